package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is a transport-level connection that accepts encoded frames.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}
