package overrides_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/overrides"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitFileLoad(t *testing.T) {
	tests := map[string]struct {
		content *string
	}{
		"missing file":   {},
		"empty file":     {content: ptr("")},
		"malformed file": {content: ptr("{not json")},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "overrides.json")
			if tc.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tc.content), 0o644))
			}

			got, err := overrides.NewFile(path, zerolog.Nop()).Load(context.Background())

			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestUnitFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "overrides.json")
	file := overrides.NewFile(path, zerolog.Nop())
	updatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := map[string]models.Override{
		"L1": {
			Fields:    models.Patch{"address": json.RawMessage(`{"line1":"1 High Street"}`)},
			UpdatedAt: updatedAt,
		},
	}

	require.NoError(t, file.Store(context.Background(), snapshot, "L1"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "overrides.json", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"L1": {"address": {"line1": "1 High Street"}, "updatedAt": "2024-03-01T12:00:00Z"}}`, string(data))

	got, err := file.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, got, "L1")
	assert.Equal(t, `{"line1":"1 High Street"}`, string(got["L1"].Fields["address"]))
	assert.True(t, updatedAt.Equal(got["L1"].UpdatedAt))
}

func ptr(s string) *string {
	return &s
}
