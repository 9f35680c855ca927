package model

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors shared across services, repositories and use cases
var (
	// ErrIngestionFailure means text extraction produced no usable text
	ErrIngestionFailure = goerr.New("no text could be extracted from the document")

	// ErrInvalidChunkConfig is returned for chunk size and overlap combinations
	// that cannot make progress
	ErrInvalidChunkConfig = goerr.New("invalid chunk configuration")

	// ErrMetadataMismatch is returned when chunk metadata is supplied with a
	// length different from the chunks
	ErrMetadataMismatch = goerr.New("metadata length does not match chunks")

	// ErrProviderFailure wraps failures of the embedding or generative provider
	ErrProviderFailure = goerr.New("provider call failed")

	ErrSessionNotFound = goerr.New("session not found")
	ErrNoDocument      = goerr.New("session has no document")
	ErrInvalidArgument = goerr.New("invalid argument")
)

// Keys for goerr values
const (
	SessionIDKey = "session_id"
	RequestIDKey = "request_id"
	FileTypeKey  = "file_type"
	FilePathKey  = "file_path"
)

// AsProviderFailure marks err as a provider failure while keeping it in the
// chain. Errors already marked are returned as is.
func AsProviderFailure(err error) error {
	if err == nil || errors.Is(err, ErrProviderFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProviderFailure, err)
}
