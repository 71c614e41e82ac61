package kst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUsesKST(t *testing.T) {
	utc := time.Date(2025, 3, 1, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-02", Date(utc))
	assert.Equal(t, "2025-03-01T16:30:00.000Z", Timestamp(utc))
}

func TestAddDays(t *testing.T) {
	d, err := AddDays("2025-03-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", d)

	_, err = AddDays("not-a-date", 1)
	assert.Error(t, err)
}
