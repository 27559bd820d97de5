package repositories

import (
	"context"
	"testing"
	"time"

	"digitaldome/internal/database"
	. "digitaldome/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return database.DB{SQL: gormDB}, mock
}

func tagColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "kind", "name", "name_lower", "aliases"}
}

func tagRow(rows *sqlmock.Rows, kind EntityKind, name, nameLower, aliases string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(uuid.New().String(), now, now, nil, string(kind), name, nameLower, aliases)
}

func TestTagRepository_ResolveBatch_FlatQueryCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	// "Action" resolves by name, "RPG" by alias, "Strategy" needs a create.
	existing := sqlmock.NewRows(tagColumns())
	existing = tagRow(existing, KindGame, "Action", "action", "{}")
	existing = tagRow(existing, KindGame, "Role-Playing", "role-playing", "{RPG}")
	mock.ExpectQuery(`SELECT \* FROM "tags"`).WillReturnRows(existing)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	created := sqlmock.NewRows(tagColumns())
	created = tagRow(created, KindGame, "Strategy", "strategy", "{}")
	mock.ExpectQuery(`SELECT \* FROM "tags"`).WillReturnRows(created)

	tags, err := repo.ResolveBatch(context.Background(), KindGame, []string{"Action", "RPG", "Strategy"})
	assert.NoError(t, err)
	assert.Len(t, tags, 3)
	assert.Equal(t, "Action", tags[0].Name)
	assert.Equal(t, "Role-Playing", tags[1].Name, "alias label resolves to the canonical tag")
	assert.Equal(t, "Strategy", tags[2].Name)

	// Three labels, three round trips total: lookup, bulk insert, re-read.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_ResolveBatch_AllExistingSingleQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	existing := sqlmock.NewRows(tagColumns())
	existing = tagRow(existing, KindMovie, "Drama", "drama", "{}")
	existing = tagRow(existing, KindMovie, "Thriller", "thriller", "{}")
	mock.ExpectQuery(`SELECT \* FROM "tags"`).WillReturnRows(existing)

	tags, err := repo.ResolveBatch(context.Background(), KindMovie, []string{"Drama", "Thriller"})
	assert.NoError(t, err)
	assert.Len(t, tags, 2)

	// No insert and no second read when everything already exists.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_ResolveBatch_InvalidLabelFailsBeforeAnyQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	_, err := repo.ResolveBatch(context.Background(), KindBook, []string{"Fantasy", "   "})
	assert.ErrorIs(t, err, ErrValidation)

	// Validation happens before the first write or read.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_ResolveBatch_DeduplicatesLabels(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	existing := sqlmock.NewRows(tagColumns())
	existing = tagRow(existing, KindShow, "Comedy", "comedy", "{}")
	mock.ExpectQuery(`SELECT \* FROM "tags"`).WillReturnRows(existing)

	tags, err := repo.ResolveBatch(context.Background(), KindShow, []string{"Comedy", "comedy", "COMEDY"})
	assert.NoError(t, err)
	assert.Len(t, tags, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
