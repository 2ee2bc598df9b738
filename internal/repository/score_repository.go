package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// ratingTargetTable maps a score target type to the table carrying its
// denormalized {rating, rating_count} pair. Both types share the same
// recompute statement.
var ratingTargetTable = map[models.ScoreTargetType]string{
	models.ScoreTargetCandidate:    "users",
	models.ScoreTargetOrganization: "organizations",
}

// ScoreRepository handles score rows and the transactional aggregate
// recompute. The aggregate is always rebuilt from every current row for the
// target, never adjusted incrementally, so replaced or removed scores cannot
// leave drift behind.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// UpsertAndRecompute replaces the rater's score for the target and rewrites
// the target's aggregate inside one transaction. Concurrent raters race
// between the read and the aggregate write; last transaction wins, which is
// acceptable for a display value.
func (r *ScoreRepository) UpsertAndRecompute(ctx context.Context, score *models.Score) (*models.RatingSummary, error) {
	table, ok := ratingTargetTable[score.TargetType]
	if !ok {
		return nil, fmt.Errorf("unknown score target type: %s", score.TargetType)
	}
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin score tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO scores (id, rater_id, target_type, target_id, rating, comment, created_at, updated_at)
        VALUES (:id, :rater_id, :target_type, :target_id, :rating, :comment, :created_at, :updated_at)
        ON CONFLICT (rater_id, target_type, target_id)
        DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, upsert, score); err != nil {
		return nil, fmt.Errorf("upsert score: %w", err)
	}

	var summary *models.RatingSummary
	summary, err = recomputeRating(ctx, tx, table, score.TargetType, score.TargetID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit score tx: %w", err)
	}
	return summary, nil
}

// DeleteAndRecompute removes a score row and rewrites the target's aggregate
// in one transaction. Returns sql.ErrNoRows when the score does not exist.
func (r *ScoreRepository) DeleteAndRecompute(ctx context.Context, scoreID string) (*models.RatingSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin score delete tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var score models.Score
	err = tx.GetContext(ctx, &score,
		`SELECT id, rater_id, target_type, target_id, rating, comment, created_at, updated_at FROM scores WHERE id = $1`, scoreID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load score: %w", err)
	}

	table, ok := ratingTargetTable[score.TargetType]
	if !ok {
		err = fmt.Errorf("unknown score target type: %s", score.TargetType)
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM scores WHERE id = $1`, scoreID); err != nil {
		return nil, fmt.Errorf("delete score: %w", err)
	}

	var summary *models.RatingSummary
	summary, err = recomputeRating(ctx, tx, table, score.TargetType, score.TargetID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit score delete tx: %w", err)
	}
	return summary, nil
}

// recomputeRating reads every current score row for the target, computes the
// one-decimal mean, and persists the pair on the target table.
func recomputeRating(ctx context.Context, tx *sqlx.Tx, table string, targetType models.ScoreTargetType, targetID string) (*models.RatingSummary, error) {
	var agg struct {
		Mean  sql.NullFloat64 `db:"mean"`
		Count int             `db:"count"`
	}
	if err := tx.GetContext(ctx, &agg,
		`SELECT AVG(rating) AS mean, COUNT(*) AS count FROM scores WHERE target_type = $1 AND target_id = $2`,
		targetType, targetID); err != nil {
		return nil, fmt.Errorf("aggregate scores: %w", err)
	}

	summary := &models.RatingSummary{Count: agg.Count}
	if agg.Mean.Valid {
		summary.Rating = math.Round(agg.Mean.Float64*10) / 10
	}

	query := fmt.Sprintf(`UPDATE %s SET rating = $2, rating_count = $3 WHERE id = $1`, table)
	if _, err := tx.ExecContext(ctx, query, targetID, summary.Rating, summary.Count); err != nil {
		return nil, fmt.Errorf("write rating summary: %w", err)
	}
	return summary, nil
}

// ListByTarget returns score rows for a target, newest first.
func (r *ScoreRepository) ListByTarget(ctx context.Context, targetType models.ScoreTargetType, targetID string) ([]models.Score, error) {
	const query = `SELECT id, rater_id, target_type, target_id, rating, comment, created_at, updated_at
        FROM scores WHERE target_type = $1 AND target_id = $2 ORDER BY updated_at DESC`
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, targetType, targetID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// FindByRaterAndTarget returns the rater's score for a target, if any.
func (r *ScoreRepository) FindByRaterAndTarget(ctx context.Context, raterID string, targetType models.ScoreTargetType, targetID string) (*models.Score, error) {
	const query = `SELECT id, rater_id, target_type, target_id, rating, comment, created_at, updated_at
        FROM scores WHERE rater_id = $1 AND target_type = $2 AND target_id = $3 LIMIT 1`
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, raterID, targetType, targetID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find score: %w", err)
	}
	return &score, nil
}
