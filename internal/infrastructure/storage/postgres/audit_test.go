package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCompression(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: []byte(`{"status":{"old":"draft","new":"unpaid"}}`)}
	s.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := []byte(`{"lines":"` + string(bytes.Repeat([]byte("OIL-5W30 "), 2000)) + `"}`)
	large := AuditEntry{Changes: payload}
	s.compress(&large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, s.decompress(&large))
	assert.Equal(t, payload, []byte(large.Changes))

	broken := AuditEntry{CompressionAlgo: CompressionZstd, ChangesCompressed: []byte("not zstd")}
	assert.Error(t, s.decompress(&broken))
}
