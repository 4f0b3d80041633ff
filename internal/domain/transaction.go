package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one classified ledger entry. It is built by the ledger
// parser with CompanyID/CategoryID unset, classified exactly once, and
// persisted exactly once; there is no update path.
//
// CompanyID and CategoryID are either both set or both nil: a row is
// fully classified or fully unclassified, never half of each.
type Transaction struct {
	TransactionID       int64           `gorm:"primaryKey;autoIncrement" json:"transaction_id"`
	JobID               string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_job_row,priority:1" json:"job_id"`
	RowOrdinal          int             `gorm:"not null;uniqueIndex:idx_job_row,priority:2" json:"row_ordinal"`
	CompanyID           *string         `gorm:"type:varchar(50);index" json:"company_id,omitempty"`
	CategoryID          *string         `gorm:"type:varchar(50)" json:"category_id,omitempty"`
	TransactionDate     time.Time       `gorm:"not null" json:"transaction_date"`
	Description         string          `gorm:"type:text;not null" json:"description"`
	AmountIn            decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_in"`
	AmountOut           decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_out"`
	BalanceAfter        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	TransactionLocation *string         `gorm:"type:varchar(200)" json:"transaction_location,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	DeletedAt           *time.Time      `gorm:"index" json:"-"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string {
	return "transactions"
}

// Classified reports whether the transaction carries a classification.
func (t *Transaction) Classified() bool {
	return t.CompanyID != nil && t.CategoryID != nil
}
