package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackingStatus_Valid(t *testing.T) {
	valid := []TrackingStatus{
		StatusPlanned,
		StatusInProgress,
		StatusCompleted,
		StatusDropped,
		StatusOnHold,
	}
	for _, status := range valid {
		assert.True(t, status.Valid(), "status %s should be valid", status)
	}

	assert.False(t, TrackingStatus("watching").Valid())
	assert.False(t, TrackingStatus("").Valid())
}

func TestTrackingStatus_DisplayRoundTrip(t *testing.T) {
	statuses := []TrackingStatus{
		StatusPlanned,
		StatusInProgress,
		StatusCompleted,
		StatusDropped,
		StatusOnHold,
	}

	for _, status := range statuses {
		parsed, ok := ParseTrackingStatusLabel(status.Display())
		assert.True(t, ok, "display label %q should parse", status.Display())
		assert.Equal(t, status, parsed)
	}
}

func TestParseTrackingStatusLabel_Unknown(t *testing.T) {
	_, ok := ParseTrackingStatusLabel("Watching")
	assert.False(t, ok)

	// Raw status values are not display labels
	_, ok = ParseTrackingStatusLabel("in_progress")
	assert.False(t, ok)
}
