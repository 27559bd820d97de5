package services

import (
	"strings"
	"testing"

	. "digitaldome/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseImportRating(t *testing.T) {
	t.Run("empty is unrated", func(t *testing.T) {
		rating, err := parseImportRating("", 1)
		assert.NoError(t, err)
		assert.Nil(t, rating)
	})

	t.Run("zero is unrated", func(t *testing.T) {
		rating, err := parseImportRating("0", 1)
		assert.NoError(t, err)
		assert.Nil(t, rating)
	})

	t.Run("passes through on unit scale", func(t *testing.T) {
		rating, err := parseImportRating("4", 1)
		assert.NoError(t, err)
		assert.Equal(t, 4, *rating)
	})

	t.Run("halves ten point scale", func(t *testing.T) {
		rating, err := parseImportRating("8", 2)
		assert.NoError(t, err)
		assert.Equal(t, 4, *rating)

		rating, err = parseImportRating("10", 2)
		assert.NoError(t, err)
		assert.Equal(t, 5, *rating)
	})

	t.Run("clamps low ratings to minimum", func(t *testing.T) {
		// 1/2 truncates to 0; a rated row never drops below the floor
		rating, err := parseImportRating("1", 2)
		assert.NoError(t, err)
		assert.Equal(t, MinRating, *rating)
	})

	t.Run("rejects ratings over the cap", func(t *testing.T) {
		_, err := parseImportRating("9", 1)
		assert.Error(t, err)
	})

	t.Run("rejects unparseable values", func(t *testing.T) {
		_, err := parseImportRating("five", 1)
		assert.Error(t, err)
	})
}

func TestBuildProvenanceNotes(t *testing.T) {
	provenance := "Imported from Goodreads (id: 123)"

	t.Run("provenance alone", func(t *testing.T) {
		notes := buildProvenanceNotes("", provenance)
		assert.Equal(t, provenance, notes)
	})

	t.Run("notes plus provenance", func(t *testing.T) {
		notes := buildProvenanceNotes("Loved it.", provenance)
		assert.Equal(t, "Loved it.\n\n"+provenance, notes)
	})

	t.Run("long notes are trimmed so provenance survives", func(t *testing.T) {
		long := strings.Repeat("x", 400)
		notes := buildProvenanceNotes(long, provenance)
		assert.LessOrEqual(t, len([]rune(notes)), MaxTrackingNotesLength)
		assert.True(t, strings.HasSuffix(notes, provenance))
	})
}

func TestParseCSV(t *testing.T) {
	t.Run("maps columns to values", func(t *testing.T) {
		content := []byte("Title,Type,Status\nDune,movie,Completed\nSeverance,show,In Progress\n")
		rows, header, err := parseCSV(content)
		assert.NoError(t, err)
		assert.Equal(t, []string{"Title", "Type", "Status"}, header)
		assert.Len(t, rows, 2)
		assert.Equal(t, "Dune", rows[0]["Title"])
		assert.Equal(t, "In Progress", rows[1]["Status"])
	})

	t.Run("tolerates short rows", func(t *testing.T) {
		content := []byte("Title,Type,Status\nDune,movie\n")
		rows, _, err := parseCSV(content)
		assert.NoError(t, err)
		assert.Equal(t, "Dune", rows[0]["Title"])
		assert.Equal(t, "", rows[0]["Status"])
	})

	t.Run("empty file fails", func(t *testing.T) {
		_, _, err := parseCSV([]byte(""))
		assert.Error(t, err)
	})
}

func TestRequireColumns(t *testing.T) {
	header := []string{"Title", "Type", "Status"}

	assert.NoError(t, requireColumns(header, "Title", "Status"))

	err := requireColumns(header, "Title", "Rating")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrImport)
	assert.Contains(t, err.Error(), "Rating")
}

func TestValidateImportMIME(t *testing.T) {
	assert.NoError(t, validateImportMIME([]byte("Title,Type\nDune,movie\n")))

	// PNG magic bytes
	err := validateImportMIME([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrImport)
}

func TestImportStatusVocabularies(t *testing.T) {
	t.Run("goodreads shelves", func(t *testing.T) {
		assert.Equal(t, StatusCompleted, goodreadsStatuses["read"])
		assert.Equal(t, StatusInProgress, goodreadsStatuses["currently-reading"])
		assert.Equal(t, StatusPlanned, goodreadsStatuses["to-read"])
	})

	t.Run("simkl watchlist", func(t *testing.T) {
		assert.Equal(t, StatusCompleted, simklStatuses["completed"])
		assert.Equal(t, StatusInProgress, simklStatuses["watching"])
		assert.Equal(t, StatusPlanned, simklStatuses["plan to watch"])
		assert.Equal(t, StatusOnHold, simklStatuses["on hold"])
		assert.Equal(t, StatusDropped, simklStatuses["dropped"])
	})
}
