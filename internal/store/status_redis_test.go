package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeStatus(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	m := encodeStatus(Status{
		State:    StateProcessing,
		Progress: 50,
		Pages:    4,
		Start:    &start,
		Metadata: map[string]interface{}{"device": "fujitsu"},
	})

	assert.Equal(t, "processing", m["status"])
	assert.Equal(t, "50", m["progress"])
	assert.Equal(t, "4", m["pages"])
	assert.Equal(t, "2024-03-01T09:30:00Z", m["start"])
	assert.JSONEq(t, `{"device":"fujitsu"}`, m["metadata"].(string))
	assert.NotContains(t, m, "end")
}

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "scanpdf:job:abc:status", statusKey("scanpdf:job", "abc"))
}

func TestNewRedisStatusBadURL(t *testing.T) {
	_, err := NewRedisStatus(context.Background(), "not-a-url", time.Hour)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	assert.NoError(t, r.Set(context.Background(), "id", Status{State: StateDone}))
	assert.NoError(t, r.Close())
}
