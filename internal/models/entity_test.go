package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func completeMovie() *Entity {
	date := time.Date(1994, 9, 23, 0, 0, 0, 0, time.UTC)
	minutes := 142
	return &Entity{
		Kind:          KindMovie,
		Name:          "The Shawshank Redemption",
		ReleaseDate:   &date,
		LengthMinutes: &minutes,
		Director:      pq.StringArray{"Frank Darabont"},
		Cast:          pq.StringArray{"Tim Robbins"},
	}
}

func TestEntity_MissingDetailFields(t *testing.T) {
	t.Run("complete movie has no missing fields", func(t *testing.T) {
		assert.Empty(t, completeMovie().MissingDetailFields())
	})

	t.Run("bare movie reports all detail fields", func(t *testing.T) {
		entity := &Entity{Kind: KindMovie, Name: "Untitled"}
		assert.ElementsMatch(
			t,
			[]string{"release_date", "length", "director", "cast"},
			entity.MissingDetailFields(),
		)
	})

	t.Run("show requires creator and stars", func(t *testing.T) {
		date := time.Now()
		entity := &Entity{
			Kind:        KindShow,
			Name:        "Severance",
			ReleaseDate: &date,
			Creator:     pq.StringArray{"Dan Erickson"},
		}
		assert.Equal(t, []string{"stars"}, entity.MissingDetailFields())
	})

	t.Run("game requires developer publisher and platforms", func(t *testing.T) {
		entity := &Entity{Kind: KindGame, Name: "Untitled"}
		assert.ElementsMatch(
			t,
			[]string{"release_date", "developer", "publisher", "platforms"},
			entity.MissingDetailFields(),
		)
	})

	t.Run("book requires author and publish date", func(t *testing.T) {
		entity := &Entity{
			Kind:   KindBook,
			Name:   "Untitled",
			Author: pq.StringArray{"Anonymous"},
		}
		assert.Equal(t, []string{"publish_date"}, entity.MissingDetailFields())
	})
}

func TestEntity_RequiresApproval(t *testing.T) {
	tests := []struct {
		name     string
		draft    bool
		approved bool
		expected bool
	}{
		{name: "complete and unapproved waits in queue", draft: false, approved: false, expected: true},
		{name: "draft never queues", draft: true, approved: false, expected: false},
		{name: "approved is done", draft: false, approved: true, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := &Entity{Draft: tt.draft, Approved: tt.approved}
			assert.Equal(t, tt.expected, entity.RequiresApproval())
		})
	}
}

func TestEntity_VisibleTo(t *testing.T) {
	creatorID := uuid.New()
	creator := &User{BaseUUIDModel: BaseUUIDModel{ID: creatorID}}
	stranger := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	moderator := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, IsModerator: true}

	t.Run("approved entity visible to everyone", func(t *testing.T) {
		entity := &Entity{Approved: true}
		assert.True(t, entity.VisibleTo(nil))
		assert.True(t, entity.VisibleTo(stranger))
	})

	t.Run("unapproved entity hidden from anonymous viewers", func(t *testing.T) {
		entity := &Entity{CreatedByID: &creatorID}
		assert.False(t, entity.VisibleTo(nil))
	})

	t.Run("unapproved entity visible to creator", func(t *testing.T) {
		entity := &Entity{CreatedByID: &creatorID}
		assert.True(t, entity.VisibleTo(creator))
		assert.False(t, entity.VisibleTo(stranger))
	})

	t.Run("moderator sees everything", func(t *testing.T) {
		entity := &Entity{CreatedByID: &creatorID}
		assert.True(t, entity.VisibleTo(moderator))
	})
}
