// Package sizes persists bubble base sizes so they survive restarts and can
// be shared between server instances.
//
// A [Store] maps item ids to base sizes. Three backends exist:
//
//   - [MemoryStore]: process-local, for tests and single-run tools.
//   - [SQLiteStore]: a local database file (mattn/go-sqlite3, WAL mode).
//   - [MongoStore]: a shared MongoDB collection.
//
// [Open] picks the backend from a DSN:
//
//	memory:
//	sqlite:/var/lib/coinbubbles/sizes.db
//	mongodb://localhost:27017/coinbubbles
package sizes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	cberrors "github.com/matzehuels/coinbubbles/pkg/errors"
)

// ErrNotFound is returned by Increment for ids that were never stored.
var ErrNotFound = errors.New("size not found")

// ErrInvalidSize is returned when a size is NaN or infinite.
var ErrInvalidSize = errors.New("invalid size")

// Store persists base sizes by item id.
type Store interface {
	// Get returns the stored size and whether one exists.
	Get(ctx context.Context, id string) (float64, bool, error)
	// Put stores size, replacing any previous value.
	Put(ctx context.Context, id string, size float64) error
	// Increment atomically adds delta to an existing size and returns the
	// new value. Unknown ids yield ErrNotFound.
	Increment(ctx context.Context, id string, delta float64) (float64, error)
	// All returns every stored size.
	All(ctx context.Context) (map[string]float64, error)
	Close() error
}

// Open returns the store selected by dsn. An empty dsn opens a memory store.
func Open(ctx context.Context, dsn string, logger *log.Logger) (Store, error) {
	logger = orDiscard(logger)
	switch {
	case dsn == "" || dsn == "memory:":
		logger.Debug("using memory size store")
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == "" {
			return nil, cberrors.New(cberrors.ErrCodeInvalidConfig, "sqlite dsn needs a path")
		}
		return OpenSQLite(ctx, path, logger)
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return OpenMongo(ctx, dsn, MongoOptions{Logger: logger})
	default:
		return nil, cberrors.New(cberrors.ErrCodeInvalidConfig, "unsupported store dsn %q", redact(dsn))
	}
}

func checkSize(size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	return nil
}

// redact drops credentials from a dsn before it is logged.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}
