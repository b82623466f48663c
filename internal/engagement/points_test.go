package engagement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"journalledger/internal/engagement"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		length int
		bonus  bool
		want   int
	}{
		{0, false, 5},
		{100, false, 5},
		{500, false, 5},
		{501, false, 8},
		{600, false, 8},
		{1000, false, 8},
		{1001, false, 10},
		{1200, false, 10},
		{100, true, 8},
		{600, true, 11},
		{1200, true, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engagement.PointsFor(tt.length, tt.bonus), "length=%d bonus=%v", tt.length, tt.bonus)
	}
}

func TestPointsFor_Maximum(t *testing.T) {
	assert.Equal(t, 13, engagement.MaxPointsPerEntry)
	assert.Equal(t, engagement.MaxPointsPerEntry, engagement.PointsFor(1_000_000, true))
}

func TestContentLength_CountsCodePoints(t *testing.T) {
	assert.Equal(t, 3, engagement.ContentLength("日本語"))
	assert.Equal(t, 5, engagement.ContentLength("hello"))
}
