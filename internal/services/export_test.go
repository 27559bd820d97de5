package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeTrackingRepo serves canned batches to the export cursor. The embedded
// interface panics on any other method, which keeps the test honest about
// what Export actually touches.
type fakeTrackingRepo struct {
	repositories.TrackingRepository
	batches [][]*TrackingObject
}

func (f *fakeTrackingRepo) ForEachUserBatch(
	ctx context.Context,
	userID uuid.UUID,
	fn func(batch []*TrackingObject) error,
) error {
	for _, batch := range f.batches {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

func TestExportService_Export(t *testing.T) {
	rating := 4
	tracked := &TrackingObject{
		EntityKind: KindMovie,
		Status:     StatusCompleted,
		Rating:     &rating,
		Notes:      "Rewatched with friends.",
		Entity:     &Entity{Kind: KindMovie, Name: "The Shawshank Redemption"},
	}
	unrated := &TrackingObject{
		EntityKind: KindBook,
		Status:     StatusInProgress,
		Entity:     &Entity{Kind: KindBook, Name: "The Left Hand of Darkness"},
	}
	orphaned := &TrackingObject{
		EntityKind: KindGame,
		Status:     StatusPlanned,
	}

	repo := &fakeTrackingRepo{
		batches: [][]*TrackingObject{
			{tracked, orphaned},
			{unrated},
		},
	}

	service := NewExportService(repo)
	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}

	var buf bytes.Buffer
	err := service.Export(context.Background(), user, &buf)
	assert.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)

	assert.Len(t, records, 3, "header plus two rows, orphan skipped")
	assert.Equal(t, []string{"Title", "Type", "Status", "Rating", "Notes"}, records[0])
	assert.Equal(
		t,
		[]string{"The Shawshank Redemption", "movie", "Completed", "4", "Rewatched with friends."},
		records[1],
	)
	assert.Equal(
		t,
		[]string{"The Left Hand of Darkness", "book", "In Progress", "", ""},
		records[2],
	)
}

func TestExportService_Export_EmptyWritesHeaderOnly(t *testing.T) {
	service := NewExportService(&fakeTrackingRepo{})
	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}

	var buf bytes.Buffer
	err := service.Export(context.Background(), user, &buf)
	assert.NoError(t, err)
	assert.Equal(t, "Title,Type,Status,Rating,Notes\n", buf.String())
}
