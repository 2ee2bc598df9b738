package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

func newScoreRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryUpsertRecomputesRoundedMean(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scores")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(rating) AS mean, COUNT(*) AS count FROM scores")).
		WithArgs(models.ScoreTargetCandidate, "cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"mean", "count"}).AddRow(2.6666666666666665, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rating = $2, rating_count = $3 WHERE id = $1")).
		WithArgs("cand-1", 2.7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := repo.UpsertAndRecompute(context.Background(), &models.Score{
		RaterID:    "rec-1",
		TargetType: models.ScoreTargetCandidate,
		TargetID:   "cand-1",
		Rating:     4,
	})
	require.NoError(t, err)
	require.Equal(t, 2.7, summary.Rating)
	require.Equal(t, 3, summary.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryUpsertOrganizationTargetTable(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scores")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(rating) AS mean, COUNT(*) AS count FROM scores")).
		WithArgs(models.ScoreTargetOrganization, "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"mean", "count"}).AddRow(5.0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE organizations SET rating = $2, rating_count = $3 WHERE id = $1")).
		WithArgs("org-1", 5.0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := repo.UpsertAndRecompute(context.Background(), &models.Score{
		RaterID:    "cand-1",
		TargetType: models.ScoreTargetOrganization,
		TargetID:   "org-1",
		Rating:     5,
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, summary.Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryDeleteLastScoreZeroesAggregate(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "rater_id", "target_type", "target_id", "rating", "comment", "created_at", "updated_at"}).
		AddRow("score-1", "rec-1", models.ScoreTargetCandidate, "cand-1", 4, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, rater_id, target_type, target_id, rating, comment, created_at, updated_at FROM scores WHERE id = $1")).
		WithArgs("score-1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scores WHERE id = $1")).
		WithArgs("score-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(rating) AS mean, COUNT(*) AS count FROM scores")).
		WithArgs(models.ScoreTargetCandidate, "cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"mean", "count"}).AddRow(nil, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rating = $2, rating_count = $3 WHERE id = $1")).
		WithArgs("cand-1", 0.0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := repo.DeleteAndRecompute(context.Background(), "score-1")
	require.NoError(t, err)
	require.Zero(t, summary.Rating)
	require.Zero(t, summary.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryDeleteMissingScore(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, rater_id, target_type, target_id, rating, comment, created_at, updated_at FROM scores WHERE id = $1")).
		WithArgs("score-missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.DeleteAndRecompute(context.Background(), "score-missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
