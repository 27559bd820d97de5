package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func platformColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "name", "aliases"}
}

func platformRow(rows *sqlmock.Rows, name, aliases string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(uuid.New().String(), now, now, nil, name, aliases)
}

func TestPlatformRepository_ResolveBatch_FlatQueryCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPlatformRepository(db)

	// "PC (Microsoft Windows)" is an alias of the canonical "PC" row;
	// "Steam Deck" is new.
	existing := sqlmock.NewRows(platformColumns())
	existing = platformRow(existing, "PC", "{PC (Microsoft Windows)}")
	mock.ExpectQuery(`SELECT \* FROM "platforms"`).WillReturnRows(existing)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "platforms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	created := sqlmock.NewRows(platformColumns())
	created = platformRow(created, "Steam Deck", "{}")
	mock.ExpectQuery(`SELECT \* FROM "platforms"`).WillReturnRows(created)

	platforms, err := repo.ResolveBatch(
		context.Background(),
		[]string{"PC (Microsoft Windows)", "Steam Deck"},
	)
	assert.NoError(t, err)
	assert.Len(t, platforms, 2)
	assert.Equal(t, "PC", platforms[0].Name, "alias label resolves to the canonical platform")
	assert.Equal(t, "Steam Deck", platforms[1].Name)

	// Lookup, bulk insert, re-read: the count does not grow with labels.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformRepository_ResolveBatch_MatchesExactly(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPlatformRepository(db)

	// Case differences do not match the controlled vocabulary; "pc" gets
	// its own row rather than resolving to "PC".
	existing := sqlmock.NewRows(platformColumns())
	existing = platformRow(existing, "PC", "{}")
	mock.ExpectQuery(`SELECT \* FROM "platforms"`).WillReturnRows(existing)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "platforms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	created := sqlmock.NewRows(platformColumns())
	created = platformRow(created, "pc", "{}")
	mock.ExpectQuery(`SELECT \* FROM "platforms"`).WillReturnRows(created)

	platforms, err := repo.ResolveBatch(context.Background(), []string{"pc"})
	assert.NoError(t, err)
	assert.Len(t, platforms, 1)
	assert.Equal(t, "pc", platforms[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
