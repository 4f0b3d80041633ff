package repository

import (
	"context"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyRecord is the read model returned by the records endpoint:
// one classified transaction joined with its company and category names.
type CompanyRecord struct {
	TransactionID   int64     `json:"transaction_id"`
	CompanyID       string    `json:"company_id"`
	CompanyName     string    `json:"company_name"`
	CategoryID      string    `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	TransactionDate time.Time `json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransactionRepository persists classified ledger entries and serves
// the company records read model.
type TransactionRepository interface {
	// Save durably writes one transaction. Inserts are idempotent on
	// (job_id, row_ordinal): re-running a job never duplicates a row.
	Save(ctx context.Context, txn *domain.Transaction) error

	// CountByJob returns the number of persisted transactions for a job.
	CountByJob(ctx context.Context, jobID string) (int64, error)

	// FindCompanyRecords returns the classified transactions of one
	// company, newest first, excluding soft-deleted rows.
	FindCompanyRecords(ctx context.Context, companyID string) ([]CompanyRecord, error)
}

// GormTransactionRepository is the GORM-backed TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new GormTransactionRepository.
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Save inserts one transaction. The conflict clause makes the write
// idempotent per (job_id, row_ordinal) so a manually re-run job cannot
// double-insert rows it already persisted before a crash.
func (r *GormTransactionRepository) Save(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "row_ordinal"}},
		DoNothing: true,
	}).Create(txn).Error
}

// CountByJob returns the number of persisted transactions for a job.
func (r *GormTransactionRepository) CountByJob(ctx context.Context, jobID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("job_id = ?", jobID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindCompanyRecords joins transactions with the company and category
// reference tables for one company, ordered by transaction date
// descending.
func (r *GormTransactionRepository) FindCompanyRecords(ctx context.Context, companyID string) ([]CompanyRecord, error) {
	var records []CompanyRecord
	err := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Select(`transactions.transaction_id,
			transactions.company_id,
			companies.company_name,
			transactions.category_id,
			categories.category_name,
			transactions.transaction_date,
			transactions.created_at`).
		Joins("JOIN companies ON companies.company_id = transactions.company_id").
		Joins("JOIN categories ON categories.category_id = transactions.category_id").
		Where("transactions.company_id = ? AND transactions.deleted_at IS NULL", companyID).
		Order("transactions.transaction_date DESC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
