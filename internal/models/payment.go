package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTransaction statuses. A transaction only ever moves
// pending -> success or pending -> failed.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PaymentTransaction records one attempted payment against the application
// fee. The reference is generated before the processor call and is immutable.
type PaymentTransaction struct {
	ID            uint            `gorm:"primaryKey"`
	Email         string          `gorm:"not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Reference     string          `gorm:"size:100;uniqueIndex;not null"`
	Status        string          `gorm:"size:20;not null;default:'pending'"`
	AccessGranted bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormAccess is the materialized access grant for an email. At most one row
// per email; repeat payments overwrite it (new reference, new expiry).
type FormAccess struct {
	ID               uint      `gorm:"primaryKey"`
	Email            string    `gorm:"uniqueIndex;not null"`
	PaymentReference string    `gorm:"size:100;not null"`
	AccessExpires    time.Time `gorm:"not null"`
	IsActive         bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Live reports whether the grant authorizes access at the given instant.
func (a FormAccess) Live(now time.Time) bool {
	return a.IsActive && a.AccessExpires.After(now)
}
