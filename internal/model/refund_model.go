package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Refund struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRef               string    `gorm:"type:varchar(100);not null;index"`
	CustomerRef            string    `gorm:"type:varchar(100);not null;index"`
	OrderNumber            string    `gorm:"type:varchar(100)"`
	CustomerName           string    `gorm:"type:varchar(255)"`
	CustomerEmail          string    `gorm:"type:varchar(255)"`
	OriginalAmount         int64     `gorm:"not null"`
	RefundAmount           int64     `gorm:"not null"`
	Currency               string    `gorm:"type:char(3);not null"`
	Reason                 string    `gorm:"type:varchar(50);not null;index"`
	Type                   string    `gorm:"type:varchar(20);not null"`
	Method                 string    `gorm:"type:varchar(50);not null"`
	Status                 string    `gorm:"type:varchar(50);not null;default:'pending';index"`
	RequestedAt            time.Time `gorm:"not null;index"`
	ProcessedAt            *time.Time
	CompletedAt            *time.Time
	ProcessedBy            *string `gorm:"type:varchar(100)"`
	ApprovedBy             *string `gorm:"type:varchar(100)"`
	GatewayRef             *string `gorm:"type:varchar(255)"`
	OriginalTransactionRef *string `gorm:"type:varchar(255)"`
	RefundTransactionRef   *string `gorm:"type:varchar(255)"`
	Notes                  string  `gorm:"type:text"`
	CustomerNotes          string  `gorm:"type:text"`
	Attachments            datatypes.JSON
	Automation             datatypes.JSON
	RetryCount             int `gorm:"not null;default:0"`
	NextRetryAt            *time.Time
	LastFailureRetryable   bool  `gorm:"not null;default:false"`
	AttemptSeq             int   `gorm:"not null;default:0"`
	Version                int64 `gorm:"not null;default:1"`
	UpdatedAt              time.Time

	Ledger []RefundLedgerEntry `gorm:"foreignKey:RefundID"`
}

func (Refund) TableName() string {
	return "refunds"
}

// RefundLedgerEntry rows are insert-only; (refund_id, seq) is the entry's position.
type RefundLedgerEntry struct {
	ID          uint      `gorm:"primaryKey"`
	RefundID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_refund_ledger_seq"`
	Seq         int       `gorm:"not null;uniqueIndex:idx_refund_ledger_seq"`
	Status      string    `gorm:"type:varchar(50);not null"`
	Kind        string    `gorm:"type:varchar(20);not null;default:'transition'"`
	Timestamp   time.Time `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Actor       string    `gorm:"type:varchar(100)"`
}

func (RefundLedgerEntry) TableName() string {
	return "refund_ledger_entries"
}
