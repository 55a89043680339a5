package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryScan(t *testing.T) {
	var h History
	require.NoError(t, h.Scan([]byte(`[{"date":"2025-01-05","amount":50},{"date":"2025-02-05","amount":72.5}]`)))
	require.Len(t, h, 2)
	assert.Equal(t, "2025-01-05", h[0].Date)
	assert.Equal(t, 72.5, h[1].Amount)
}

func TestHistoryScanNil(t *testing.T) {
	h := History{{Date: "x", Amount: 1}}
	require.NoError(t, h.Scan(nil))
	assert.Nil(t, []Transaction(h))
}

func TestHistoryValueNil(t *testing.T) {
	var h History
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestHasInterest(t *testing.T) {
	u := UserRecord{Interests: []string{"stress", "career"}}
	assert.True(t, u.HasInterest("stress"))
	assert.False(t, u.HasInterest("motivation"))
}
