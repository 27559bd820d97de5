package services

import (
	"testing"

	. "digitaldome/internal/models"

	"github.com/stretchr/testify/assert"
)

func statusPtr(s TrackingStatus) *TrackingStatus {
	return &s
}

func TestMovieMinutesDelta(t *testing.T) {
	minutes := 120
	movie := &Entity{Kind: KindMovie, Name: "Test Movie", LengthMinutes: &minutes}

	tests := []struct {
		name           string
		entity         *Entity
		previous       *TrackingStatus
		next           *TrackingStatus
		deltaMinutes   int64
		deltaCompleted int64
	}{
		{
			name:           "create completed adds minutes",
			entity:         movie,
			previous:       nil,
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   120,
			deltaCompleted: 1,
		},
		{
			name:           "create planned adds nothing",
			entity:         movie,
			previous:       nil,
			next:           statusPtr(StatusPlanned),
			deltaMinutes:   0,
			deltaCompleted: 0,
		},
		{
			name:           "transition into completed adds minutes",
			entity:         movie,
			previous:       statusPtr(StatusInProgress),
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   120,
			deltaCompleted: 1,
		},
		{
			name:           "transition out of completed subtracts minutes",
			entity:         movie,
			previous:       statusPtr(StatusCompleted),
			next:           statusPtr(StatusDropped),
			deltaMinutes:   -120,
			deltaCompleted: -1,
		},
		{
			name:           "completed to completed is a no-op",
			entity:         movie,
			previous:       statusPtr(StatusCompleted),
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   0,
			deltaCompleted: 0,
		},
		{
			name:           "delete of completed record subtracts minutes",
			entity:         movie,
			previous:       statusPtr(StatusCompleted),
			next:           nil,
			deltaMinutes:   -120,
			deltaCompleted: -1,
		},
		{
			name:           "delete of planned record is a no-op",
			entity:         movie,
			previous:       statusPtr(StatusPlanned),
			next:           nil,
			deltaMinutes:   0,
			deltaCompleted: 0,
		},
		{
			name:           "non-movie kinds never adjust",
			entity:         &Entity{Kind: KindBook, Name: "Test Book"},
			previous:       nil,
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   0,
			deltaCompleted: 0,
		},
		{
			name:           "nil entity never adjusts",
			entity:         nil,
			previous:       nil,
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   0,
			deltaCompleted: 0,
		},
		{
			name:           "movie without length still counts completion",
			entity:         &Entity{Kind: KindMovie, Name: "Unknown Length"},
			previous:       nil,
			next:           statusPtr(StatusCompleted),
			deltaMinutes:   0,
			deltaCompleted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deltaMinutes, deltaCompleted := MovieMinutesDelta(tt.entity, tt.previous, tt.next)
			assert.Equal(t, tt.deltaMinutes, deltaMinutes)
			assert.Equal(t, tt.deltaCompleted, deltaCompleted)
		})
	}
}
