package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// SessionID is a UUID-based identifier for Session
type SessionID string

// NewSessionID generates a new UUID v4 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (id SessionID) String() string {
	return string(id)
}

// Validate checks the ID is a UUID. Session IDs are used as collection and
// document names by the vector stores, so anything else is rejected early.
func (id SessionID) Validate() error {
	if id == "" {
		return goerr.Wrap(ErrInvalidArgument, "session ID is empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(ErrInvalidArgument, "session ID is not a UUID", goerr.V(SessionIDKey, id))
	}
	return nil
}

// Session is one conversation bound to a single uploaded document. The chunks
// and embeddings of the document live in the vector store, keyed by ID.
type Session struct {
	ID           SessionID
	Name         string
	DocumentName string
	FileType     string
	FullText     string
	Summary      string
	AskHistory   []AskRecord
	ChunkCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AskRecord is one answered question in a session
type AskRecord struct {
	RequestID     string
	Question      string
	Answer        string
	Justification string
	AskedAt       time.Time
}

// HasDocument reports whether a document has been ingested into the session
func (s *Session) HasDocument() bool {
	return s.FullText != ""
}

// FindRequest returns the history record created by requestID, if any
func (s *Session) FindRequest(requestID string) (*AskRecord, bool) {
	if requestID == "" {
		return nil, false
	}
	for i := range s.AskHistory {
		if s.AskHistory[i].RequestID == requestID {
			return &s.AskHistory[i], true
		}
	}
	return nil, false
}

// Copy returns a deep copy of the session
func (s *Session) Copy() *Session {
	copied := *s
	if s.AskHistory != nil {
		copied.AskHistory = make([]AskRecord, len(s.AskHistory))
		copy(copied.AskHistory, s.AskHistory)
	}
	return &copied
}

// SessionContext identifies the session a core operation works on. It is
// passed explicitly into every use case call.
type SessionContext struct {
	SessionID SessionID
	// RequestID is an optional client generated ID used to deduplicate
	// retried Ask calls
	RequestID string
}
