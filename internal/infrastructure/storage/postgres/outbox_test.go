package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, Backoff(0))
	assert.Equal(t, time.Minute, Backoff(1))
	assert.Equal(t, 2*time.Minute, Backoff(2))
	assert.Equal(t, 16*time.Minute, Backoff(5))
	assert.Equal(t, time.Hour, Backoff(7))
	assert.Equal(t, time.Hour, Backoff(40))
}
