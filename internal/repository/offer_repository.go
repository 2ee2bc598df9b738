package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// OfferRepository handles offer persistence. Every operation that moves an
// offer and its application together runs in one transaction; no reader may
// observe the pair out of sync.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository constructs the repository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, application_id, organization_id, status, previous_stage, letter_path, created_by, created_at, sent_at, viewed_at, signed_at, withdrawn_at`

// FindByID returns an offer by identifier.
func (r *OfferRepository) FindByID(ctx context.Context, id string) (*models.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)
	var offer models.Offer
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offer: %w", err)
	}
	return &offer, nil
}

// FindLiveByApplication returns the application's non-withdrawn offer, if any.
func (r *OfferRepository) FindLiveByApplication(ctx context.Context, applicationID string) (*models.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE application_id = $1 AND status <> 'WITHDRAWN' LIMIT 1`, offerColumns)
	var offer models.Offer
	if err := r.db.GetContext(ctx, &offer, query, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find live offer: %w", err)
	}
	return &offer, nil
}

// CreateWithStage inserts a DRAFT offer and moves the application into the
// offer stage inside one transaction.
func (r *OfferRepository) CreateWithStage(ctx context.Context, offer *models.Offer, at time.Time) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = at
	}
	offer.Status = models.OfferStatusDraft

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create offer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO offers (id, application_id, organization_id, status, previous_stage, created_by, created_at)
        VALUES (:id, :application_id, :organization_id, :status, :previous_stage, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, offer); err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE applications SET stage = $2, offered_at = $3 WHERE id = $1 AND deleted_at IS NULL`,
		offer.ApplicationID, models.StageOffer, at); err != nil {
		return fmt.Errorf("move application to offer stage: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create offer tx: %w", err)
	}
	return nil
}

// MarkSent advances DRAFT to SENT. Returns sql.ErrNoRows when the offer is
// not in DRAFT.
func (r *OfferRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE offers SET status = 'SENT', sent_at = $2 WHERE id = $1 AND status = 'DRAFT'`, id, at)
	if err != nil {
		return fmt.Errorf("mark offer sent: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkViewedWithNotifications advances SENT to VIEWED and writes the staff
// notification rows inside the same transaction, so in-app state can never
// show an unviewed offer alongside a viewed notification or vice versa.
// Returns sql.ErrNoRows when the offer was not in SENT (the caller treats
// that as an idempotent no-op).
func (r *OfferRepository) MarkViewedWithNotifications(ctx context.Context, id string, at time.Time, notifications []models.Notification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view offer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE offers SET status = 'VIEWED', viewed_at = $2 WHERE id = $1 AND status = 'SENT'`, id, at)
	if err != nil {
		return fmt.Errorf("mark offer viewed: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertNotifications(ctx, tx, notifications); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit view offer tx: %w", err)
	}
	return nil
}

// MarkSigned advances VIEWED to SIGNED. Returns sql.ErrNoRows when the offer
// is not in VIEWED.
func (r *OfferRepository) MarkSigned(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE offers SET status = 'SIGNED', signed_at = $2 WHERE id = $1 AND status = 'VIEWED'`, id, at)
	if err != nil {
		return fmt.Errorf("mark offer signed: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// WithdrawAndRevertStage withdraws a non-terminal offer and reverts the
// application to the recorded pre-offer stage in one transaction. Returns
// sql.ErrNoRows when the offer is already SIGNED or WITHDRAWN.
func (r *OfferRepository) WithdrawAndRevertStage(ctx context.Context, id, applicationID, revertStage string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw offer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE offers SET status = 'WITHDRAWN', withdrawn_at = $2 WHERE id = $1 AND status NOT IN ('SIGNED', 'WITHDRAWN')`, id, at)
	if err != nil {
		return fmt.Errorf("withdraw offer: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE applications SET stage = $2 WHERE id = $1 AND deleted_at IS NULL`,
		applicationID, revertStage); err != nil {
		return fmt.Errorf("revert application stage: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw offer tx: %w", err)
	}
	return nil
}

// UpdateLetterPath records where the generated offer letter is stored.
func (r *OfferRepository) UpdateLetterPath(ctx context.Context, id, path string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE offers SET letter_path = $2 WHERE id = $1`, id, path); err != nil {
		return fmt.Errorf("update offer letter path: %w", err)
	}
	return nil
}
