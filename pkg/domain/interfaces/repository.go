package interfaces

// Repository defines the interface for session metadata persistence
type Repository interface {
	Session() SessionRepository
	Close() error
}
