package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
	"gorm.io/gorm"
)

// PriceRepository 품목 단가 저장소
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository 단가 저장소 생성
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrice 기준일 이전 가장 최근 단가 조회. 단가가 없으면 ErrNotFound.
func (r *PriceRepository) GetPrice(ctx context.Context, itemID string, asOf time.Time) (*entity.ItemPrice, error) {
	var price entity.ItemPrice
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND effective_date <= ?", itemID, asOf).
		Order("effective_date DESC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &price, nil
}

// Create 단가 등록 (이력은 append-only)
func (r *PriceRepository) Create(ctx context.Context, price *entity.ItemPrice) error {
	if price.ID == "" {
		price.ID = generateID()
	}
	if price.CreatedAt.IsZero() {
		price.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(price).Error
}

// ListByItem 품목별 단가 이력 조회
func (r *PriceRepository) ListByItem(ctx context.Context, itemID string) ([]entity.ItemPrice, error) {
	var prices []entity.ItemPrice
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("effective_date DESC").
		Find(&prices).Error
	return prices, err
}
