package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Applicant is the record created after a paid, validated form submission.
// The payment_* fields are a snapshot taken at submission time; they are
// never re-joined against the ledger afterwards.
type Applicant struct {
	ID              uint   `gorm:"primaryKey"`
	FullName        string `gorm:"size:200;not null"`
	Email           string `gorm:"not null;index"`
	Phone           string `gorm:"size:20;not null"`
	Address         string `gorm:"not null"`
	State           string `gorm:"size:50;not null"`
	PositionApplied string `gorm:"size:50;not null"`

	CVPath      string `gorm:"not null"`
	ReceiptPath string // optional, bank-transfer payers only

	PaymentEmail     string
	PaymentReference string          `gorm:"size:100;index"`
	PaymentVerified  bool            `gorm:"not null;default:false"`
	PaymentAmount    decimal.Decimal `gorm:"type:decimal(10,2)"`

	CreatedAt time.Time
}

// BeforeCreate derives PaymentVerified: a stamped reference means the payment
// went through the online flow.
func (a *Applicant) BeforeCreate(*gorm.DB) error {
	if a.PaymentReference != "" {
		a.PaymentVerified = true
	}
	return nil
}
