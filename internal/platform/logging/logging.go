// Package logging builds service logger writing JSON lines to stderr and, optionally, to Fluent Bit.
package logging

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/rs/zerolog"
)

//go:generate mockery --name Poster --filename poster.go

// Poster posts structured record under tag.
type Poster interface {
	Post(tag string, message interface{}) error
}

// New returns logger of level writing to out and, when poster is not nil, to poster under tag.
func New(out io.Writer, level string, poster Poster, tag string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), fmt.Errorf("can't parse log level: %w", err)
		}
	}

	w := out
	if poster != nil {
		w = zerolog.MultiLevelWriter(out, NewFluentWriter(poster, tag))
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// NewFluent connects to Fluent Bit forward input. Records are sent asynchronously.
func NewFluent(host string, port int) (*fluent.Fluent, error) {
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create fluent client: %w", err)
	}
	return client, nil
}

// FluentWriter forwards zerolog JSON lines to Fluent as records tagged "<tag>.<level>".
type FluentWriter struct {
	poster Poster
	tag    string
}

// NewFluentWriter returns new FluentWriter.
func NewFluentWriter(poster Poster, tag string) *FluentWriter {
	return &FluentWriter{
		poster: poster,
		tag:    tag,
	}
}

// Write posts single JSON log line.
func (w *FluentWriter) Write(p []byte) (int, error) {
	record := map[string]interface{}{}
	if err := json.Unmarshal(p, &record); err != nil {
		return 0, fmt.Errorf("can't decode log line: %w", err)
	}

	tag := w.tag
	if level, ok := record[zerolog.LevelFieldName].(string); ok && level != "" {
		tag += "." + level
	}

	if err := w.poster.Post(tag, record); err != nil {
		return 0, fmt.Errorf("can't post log line: %w", err)
	}

	return len(p), nil
}
