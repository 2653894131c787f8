package repository

import (
	"context"

	"go-utang-ledger/internal/model"

	"gorm.io/gorm"
)

// LowStockThreshold is the stock level under which an item counts as low.
const LowStockThreshold = 10

// StoreSummary is the dashboard overview of one store.
type StoreSummary struct {
	StoreID            string  `json:"storeId"`
	Customers          int64   `json:"customers"`
	Items              int64   `json:"items"`
	LowStockItems      int64   `json:"lowStockItems"`
	OpenUtang          int64   `json:"openUtang"`
	TotalCredit        float64 `json:"totalCredit"`
	TotalPaid          float64 `json:"totalPaid"`
	OutstandingBalance float64 `json:"outstandingBalance"`
}

type SummaryRepository interface {
	GetStoreSummary(ctx context.Context, storeID string) (*StoreSummary, error)
}

type summaryRepo struct {
	db *gorm.DB
}

func NewSummaryRepo(db *gorm.DB) SummaryRepository {
	return &summaryRepo{db}
}

func (r *summaryRepo) GetStoreSummary(ctx context.Context, storeID string) (*StoreSummary, error) {
	db := r.db.WithContext(ctx)
	stats := StoreSummary{StoreID: storeID}

	if err := db.Model(&model.Customer{}).Where("store_id = ?", storeID).Count(&stats.Customers).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Item{}).Where("store_id = ?", storeID).Count(&stats.Items).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Item{}).
		Where("store_id = ? AND stock < ?", storeID, LowStockThreshold).
		Count(&stats.LowStockItems).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Utang{}).
		Where("store_id = ? AND status <> ?", storeID, model.UtangStatusPaid).
		Count(&stats.OpenUtang).Error; err != nil {
		return nil, translate(err)
	}

	// Total credit extended (SUM of utang totals)
	if err := db.Model(&model.Utang{}).
		Where("store_id = ?", storeID).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalCredit).Error; err != nil {
		return nil, translate(err)
	}

	// Total paid against this store's utang
	if err := db.Model(&model.Payment{}).
		Joins("JOIN utangs ON utangs.id = payments.utang_id").
		Where("utangs.store_id = ?", storeID).
		Select("COALESCE(SUM(payments.amount), 0)").
		Scan(&stats.TotalPaid).Error; err != nil {
		return nil, translate(err)
	}

	stats.OutstandingBalance = stats.TotalCredit - stats.TotalPaid
	return &stats, nil
}
