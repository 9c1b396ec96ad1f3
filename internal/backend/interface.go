// Package backend builds the remote.Backend the process runs against.
package backend

import (
	"context"
	"time"

	"gestaosocial/internal/remote"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and what the owner needs to
// monitor and release it.
type BackendResult struct {
	Backend remote.Backend

	// Ping reports backend health for readiness checks.
	Ping func(ctx context.Context) error

	// Publishing is true when writes are announced over AMQP.
	Publishing bool

	Cleanup CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	JWTSecret    string
	SessionTTL   time.Duration

	// Memory specific
	SeedFile string

	// Shared auth settings
	RequireConfirmation bool
	SeedUserEmail       string
	SeedUserPassword    string

	// Change events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
