// Package ledger is the persisted source of truth for payment transactions
// and the access grants derived from them. It is the only shared mutable
// state in the portal, so every state transition here is a single atomic
// conditional write: the synchronous verification path and the webhook path
// race on the same reference and must never both "win".
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yusuf-Babagana/smahi/internal/models"
)

// ErrNotFound reports a reference with no recorded transaction.
var ErrNotFound = errors.New("ledger: transaction not found")

// Ledger wraps the portal database.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger { return &Ledger{db: db} }

// RecordAttempt creates a pending transaction for a freshly generated
// reference. The unique index rejects reference reuse.
func (l *Ledger) RecordAttempt(email string, amount decimal.Decimal, reference string) (*models.PaymentTransaction, error) {
	tx := models.PaymentTransaction{
		Email:     email,
		Amount:    amount,
		Reference: reference,
		Status:    models.StatusPending,
	}
	if err := l.db.Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("record attempt %s: %w", reference, err)
	}
	return &tx, nil
}

// FindOrCreateByReference returns the transaction for reference, creating a
// pending one if the webhook arrived before the browser flow recorded it.
// Safe under a concurrent creator: a duplicate-key failure falls back to a
// re-read.
func (l *Ledger) FindOrCreateByReference(reference, email string, amount decimal.Decimal) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := l.db.Where("reference = ?", reference).First(&tx).Error
	if err == nil {
		return &tx, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", reference, err)
	}
	tx = models.PaymentTransaction{
		Email:     email,
		Amount:    amount,
		Reference: reference,
		Status:    models.StatusPending,
	}
	if err := l.db.Create(&tx).Error; err != nil {
		// Lost the create race; the row exists now.
		var existing models.PaymentTransaction
		if rerr := l.db.Where("reference = ?", reference).First(&existing).Error; rerr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("create %s: %w", reference, err)
	}
	return &tx, nil
}

// MarkResult moves a transaction to a terminal status. The update is a single
// conditional write guarded on status='pending', so of two racing writers
// exactly one observes applied=true. Re-applying a terminal outcome is a
// no-op, not an error.
func (l *Ledger) MarkResult(reference, outcome string) (applied bool, err error) {
	if outcome != models.StatusSuccess && outcome != models.StatusFailed {
		return false, fmt.Errorf("ledger: invalid outcome %q", outcome)
	}
	res := l.db.Model(&models.PaymentTransaction{}).
		Where("reference = ? AND status = ?", reference, models.StatusPending).
		Updates(map[string]any{
			"status":         outcome,
			"access_granted": outcome == models.StatusSuccess,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark %s %s: %w", reference, outcome, res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// Nothing updated: either already terminal (fine) or unknown reference.
	var count int64
	if err := l.db.Model(&models.PaymentTransaction{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return false, fmt.Errorf("mark %s: %w", reference, err)
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// GrantAccess upserts the grant for email: a repeat payer gets a fresh expiry
// and reference on the same row, never a second row. ttl counts from the
// moment of processing.
func (l *Ledger) GrantAccess(email, reference string, ttl time.Duration) error {
	now := time.Now()
	grant := models.FormAccess{
		Email:            email,
		PaymentReference: reference,
		AccessExpires:    now.Add(ttl),
		IsActive:         true,
	}
	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_reference", "access_expires", "is_active", "updated_at"}),
	}).Create(&grant).Error
	if err != nil {
		return fmt.Errorf("grant access %s: %w", email, err)
	}
	return nil
}

// IsActive reports whether email holds a live grant at the given instant.
// Expiry is purely a time comparison; nothing deactivates rows in place.
func (l *Ledger) IsActive(email string, now time.Time) (bool, error) {
	var count int64
	err := l.db.Model(&models.FormAccess{}).
		Where("email = ? AND is_active = ? AND access_expires > ?", email, true, now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("is_active %s: %w", email, err)
	}
	return count > 0, nil
}

// Deactivate consumes the grant for email. Submitting the form spends the
// payment; a candidate who wants to apply again pays again.
func (l *Ledger) Deactivate(email string) error {
	err := l.db.Model(&models.FormAccess{}).
		Where("email = ?", email).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate %s: %w", email, err)
	}
	return nil
}

// Grant fetches the stored grant row for email, if any. Used by admin views.
func (l *Ledger) Grant(email string) (*models.FormAccess, error) {
	var grant models.FormAccess
	if err := l.db.Where("email = ?", email).First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// Transaction fetches a transaction by reference.
func (l *Ledger) Transaction(reference string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := l.db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}
