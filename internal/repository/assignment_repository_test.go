package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gme-rota-api/internal/models"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func versionedClinicUpdate(id string, version int64) models.VersionedUpdate {
	rotation := "rot-clinic"
	return models.VersionedUpdate{
		Assignment: models.Assignment{
			ID:                 id,
			BlockID:            "blk-1",
			PersonID:           "res-2",
			RotationTemplateID: &rotation,
			Role:               models.RolePrimary,
			Version:            version,
		},
		ExpectedVersion: version,
	}
}

func TestAssignmentRepositoryApplyVersioned(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyVersioned(context.Background(), []models.VersionedUpdate{
		versionedClinicUpdate("a-1", 3),
		versionedClinicUpdate("a-2", 1),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryApplyVersionedStaleRollsBack(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second update hits a bumped version: zero rows, whole batch rolls back.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyVersioned(context.Background(), []models.VersionedUpdate{
		versionedClinicUpdate("a-1", 3),
		versionedClinicUpdate("a-2", 1),
	})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrOptimisticLock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryApplyVersionedEmptyBatch(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	require.NoError(t, repo.ApplyVersioned(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Assignment{
		{BlockID: "blk-1", PersonID: "res-1", Role: models.RolePrimary},
		{BlockID: "blk-1", PersonID: "res-1", Role: models.RolePrimary},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBulkCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignments := []models.Assignment{{BlockID: "blk-1", PersonID: "res-1", Role: models.RolePrimary}}
	require.NoError(t, repo.BulkCreate(context.Background(), assignments))
	require.NotEmpty(t, assignments[0].ID)
	require.Equal(t, int64(1), assignments[0].Version)
	require.False(t, assignments[0].CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountByBlock(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments")).
		WithArgs("blk-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByBlock(context.Background(), "blk-1")
	require.NoError(t, err)
	require.Equal(t, 5, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
