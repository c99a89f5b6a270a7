package persistence

import (
	"context"

	"github.com/propertyhub/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormEntryRepository implements ledger.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// FindPosted returns posted entries matching the filter, with their line
// items, ordered by posting date
func (r *GormEntryRepository) FindPosted(ctx context.Context, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	query := r.db.WithContext(ctx).
		Model(&ledger.LedgerEntry{}).
		Where("status = ?", ledger.EntryStatusPosted).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ledger_lines.position ASC")
		})
	query = r.applyFilter(query, filter)

	if err := query.Order("entry_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByAccount returns posted entries that touch the given account,
// with all of their line items loaded
func (r *GormEntryRepository) FindByAccount(ctx context.Context, accountCode string, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	query := r.db.WithContext(ctx).
		Model(&ledger.LedgerEntry{}).
		Where("status = ?", ledger.EntryStatusPosted).
		Where("id IN (?)", r.db.
			Model(&ledger.LineItem{}).
			Select("entry_id").
			Where("account_code = ?", accountCode)).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ledger_lines.position ASC")
		})
	query = r.applyFilter(query, filter)

	if err := query.Order("entry_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// applyFilter applies the common filter conditions to a query
func (r *GormEntryRepository) applyFilter(query *gorm.DB, filter ledger.EntryFilter) *gorm.DB {
	if filter.From != nil {
		query = query.Where("entry_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("entry_date <= ?", *filter.To)
	}
	if len(filter.Sources) > 0 {
		query = query.Where("source IN ?", filter.Sources)
	}
	if filter.ResidenceID != nil {
		query = query.Where("residence_id = ?", *filter.ResidenceID)
	}
	return query
}
