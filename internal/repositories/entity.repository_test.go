package repositories

import (
	"context"
	"testing"

	. "digitaldome/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		expected string
	}{
		{"plain term untouched", "blade runner", "blade runner"},
		{"percent escaped", "100% orange", `100\% orange`},
		{"underscore escaped", "snake_case", `snake\_case`},
		{"backslash escaped", `C:\games`, `C:\\games`},
		{"mixed wildcards", `50%_\`, `50\%\_\\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeLike(tt.term))
		})
	}
}

func TestSearchStrategyNames(t *testing.T) {
	assert.Equal(t, "substring", SubstringSearch{}.Name())
	assert.Equal(t, "similarity", SimilaritySearch{}.Name())
}

func searchHitColumns() []string {
	return []string{"id", "kind", "name", "search_rank"}
}

func searchHitRow(rows *sqlmock.Rows, kind EntityKind, name string, rank float64) *sqlmock.Rows {
	return rows.AddRow(uuid.New().String(), string(kind), name, rank)
}

func TestEntityRepository_SearchAll_MergesAndRanksAcrossKinds(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntityRepository(db)

	movies := sqlmock.NewRows(searchHitColumns())
	movies = searchHitRow(movies, KindMovie, "Dune", 0.62)
	movies = searchHitRow(movies, KindMovie, "Dune: Part Two", 0.55)
	mock.ExpectQuery(`SELECT entities\.\*, similarity`).WillReturnRows(movies)

	shows := sqlmock.NewRows(searchHitColumns())
	shows = searchHitRow(shows, KindShow, "Dune: Prophecy", 0.48)
	mock.ExpectQuery(`SELECT entities\.\*, similarity`).WillReturnRows(shows)

	games := sqlmock.NewRows(searchHitColumns())
	games = searchHitRow(games, KindGame, "Dune: Awakening", 0.58)
	mock.ExpectQuery(`SELECT entities\.\*, similarity`).WillReturnRows(games)

	books := sqlmock.NewRows(searchHitColumns())
	books = searchHitRow(books, KindBook, "Dune", 0.95)
	mock.ExpectQuery(`SELECT entities\.\*, similarity`).WillReturnRows(books)

	entities, err := repo.SearchAll(context.Background(), "dune", SimilaritySearch{}, nil, 3)
	assert.NoError(t, err)
	assert.Len(t, entities, 3, "union truncates to the requested limit")

	assert.Equal(t, "Dune", entities[0].Name)
	assert.Equal(t, KindBook, entities[0].Kind)
	assert.Equal(t, "Dune", entities[1].Name)
	assert.Equal(t, KindMovie, entities[1].Kind)
	assert.Equal(t, "Dune: Awakening", entities[2].Name)
	assert.Equal(t, KindGame, entities[2].Kind)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_SearchAll_BlankTermRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntityRepository(db)

	_, err := repo.SearchAll(context.Background(), "   ", SimilaritySearch{}, nil, 10)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
