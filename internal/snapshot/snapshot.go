// Package snapshot reads on-disk listing snapshots written by the synchronization job.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
)

// Entry is single snapshot file. Listings are raw upstream records.
type Entry struct {
	GeneratedAt time.Time
	Listings    []json.RawMessage
}

// IsEmpty reports whether snapshot has no listings.
func (e Entry) IsEmpty() bool {
	return len(e.Listings) == 0
}

// Age returns how old snapshot is at now. Snapshot without generation time is treated as infinitely old.
func (e Entry) Age(now time.Time) time.Duration {
	if e.GeneratedAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(e.GeneratedAt)
}

type file struct {
	GeneratedAt string            `json:"generatedAt"`
	Listings    []json.RawMessage `json:"listings"`
}

// Option is custom configuration of Reader.
type Option func(r *Reader)

// Reader reads snapshot files from single directory.
type Reader struct {
	dir    string
	logger zerolog.Logger
}

// NewReader returns new Reader of snapshots stored in dir.
func NewReader(dir string, ops ...Option) *Reader {
	r := &Reader{
		dir:    dir,
		logger: zerolog.Nop(),
	}

	for _, op := range ops {
		op(r)
	}

	return r
}

// Path returns path of snapshot file of upstream and transaction type.
func (r *Reader) Path(upstream string, transactionType models.TransactionType) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s-%s.json", upstream, transactionType))
}

// Read returns snapshot of upstream and transaction type.
// Missing and malformed files are logged and read as empty snapshot.
func (r *Reader) Read(ctx context.Context, upstream string, transactionType models.TransactionType) Entry {
	path := r.Path(upstream, transactionType)
	logger := r.logger.With().Str("upstream", upstream).Str("path", path).Logger()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("snapshot read cancelled")
		return Entry{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Msg("snapshot missing")
		} else {
			logger.Warn().Err(err).Msg("can't read snapshot")
		}
		return Entry{}
	}

	entry, err := Decode(data)
	if err != nil {
		logger.Warn().Err(err).Msg("malformed snapshot")
		return Entry{}
	}

	return entry
}

// Decode parses snapshot document. A bare array of records is accepted as snapshot
// without generation time.
func Decode(data []byte) (Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Entry{}, nil
	}

	if data[0] == '[' {
		var listings []json.RawMessage
		if err := json.Unmarshal(data, &listings); err != nil {
			return Entry{}, fmt.Errorf("can't decode snapshot records: %w", err)
		}
		return Entry{Listings: listings}, nil
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return Entry{}, fmt.Errorf("can't decode snapshot: %w", err)
	}

	entry := Entry{Listings: f.Listings}
	if f.GeneratedAt != "" {
		generatedAt, err := time.Parse(time.RFC3339Nano, f.GeneratedAt)
		if err == nil {
			entry.GeneratedAt = generatedAt
		}
	}

	return entry, nil
}

// WithLogger sets Reader's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}
