package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnitSystemNow(t *testing.T) {
	assert.InDelta(
		t,
		time.Now().UTC().UnixMilli(),
		System{}.Now().UnixMilli(),
		float64(50*time.Millisecond),
		"should return current time",
	)
	assert.Equal(t, time.UTC, System{}.Now().Location(), "should return UTC time")
}
