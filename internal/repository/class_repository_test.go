package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClassRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).AddRow("class-1", "Form 4", now, now))

	class, err := repo.FindByID(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, "Form 4", class.Name)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("class-9").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "class-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListStreams(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM class_streams WHERE class_id = $1 ORDER BY name, id")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "name", "created_at"}).
			AddRow("east", "class-1", "East", time.Now()).
			AddRow("north", "class-1", "North", time.Now()))

	streams, err := repo.ListStreams(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "East", streams[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
