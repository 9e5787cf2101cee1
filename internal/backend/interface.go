package backend

import (
	"context"

	"moim/internal/ledger"
	"moim/internal/services"
)

// Store is everything the web server needs from a storage backend.
type Store interface {
	ledger.MeetingReader
	ledger.MeetingLister
	ledger.MeetingWriter
	ledger.CommentAppender
	ledger.PhotoWriter
	ledger.BannerStore
}

// Pinger is implemented by backends with an external dependency to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

// BackendResult contains the store, the optional sync publisher and a
// cleanup function releasing both.
type BackendResult struct {
	Store     Store
	Publisher services.SyncPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific; the AMQP settings are only used with sqlite, since
	// the worker reads pending meetings from the database.
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend specific
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
