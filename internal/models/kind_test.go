package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityKind(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected EntityKind
		wantErr  bool
	}{
		{name: "singular movie", label: "movie", expected: KindMovie},
		{name: "plural movies", label: "movies", expected: KindMovie},
		{name: "singular show", label: "show", expected: KindShow},
		{name: "plural games", label: "games", expected: KindGame},
		{name: "plural books", label: "books", expected: KindBook},
		{name: "mixed case", label: "Movies", expected: KindMovie},
		{name: "surrounding whitespace", label: "  book  ", expected: KindBook},
		{name: "unknown label", label: "album", wantErr: true},
		{name: "empty label", label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ParseEntityKind(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownEntityType)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestEntityKind_Plural(t *testing.T) {
	assert.Equal(t, "movies", KindMovie.Plural())
	assert.Equal(t, "shows", KindShow.Plural())
	assert.Equal(t, "games", KindGame.Plural())
	assert.Equal(t, "books", KindBook.Plural())
}

func TestEntityKind_Display(t *testing.T) {
	assert.Equal(t, "Movie", KindMovie.Display())
	assert.Equal(t, "Book", KindBook.Display())
	assert.Equal(t, "", EntityKind("").Display())
}

func TestEntityKind_Valid(t *testing.T) {
	for _, kind := range AllEntityKinds() {
		assert.True(t, kind.Valid(), "kind %s should be valid", kind)
	}
	assert.False(t, EntityKind("album").Valid())
	assert.False(t, EntityKind("").Valid())
}

func TestAllEntityKinds_StableOrder(t *testing.T) {
	assert.Equal(
		t,
		[]EntityKind{KindMovie, KindShow, KindGame, KindBook},
		AllEntityKinds(),
	)
}
