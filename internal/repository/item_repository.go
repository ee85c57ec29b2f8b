package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
	"gorm.io/gorm"
)

// ItemRepository 품목 저장소
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository 품목 저장소 생성
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// FindByID 품목 단건 조회
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ResolveItems 품목 일괄 조회. 호출자당 단일 쿼리로 처리한다 (행별 루프 금지).
// 존재하지 않는 ID는 결과 맵에서 빠진다.
func (r *ItemRepository) ResolveItems(ctx context.Context, ids []string) (map[string]*entity.Item, error) {
	resolved := make(map[string]*entity.Item, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var items []entity.Item
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	for i := range items {
		resolved[items[i].ID] = &items[i]
	}
	return resolved, nil
}

// ResolveByCodes 품목 코드 일괄 조회 (단일 쿼리). 키는 코드.
func (r *ItemRepository) ResolveByCodes(ctx context.Context, codes []string) (map[string]*entity.Item, error) {
	resolved := make(map[string]*entity.Item, len(codes))
	if len(codes) == 0 {
		return resolved, nil
	}

	var items []entity.Item
	err := r.db.WithContext(ctx).
		Where("code IN ? AND deleted_at IS NULL", codes).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	for i := range items {
		resolved[items[i].Code] = &items[i]
	}
	return resolved, nil
}

// Create 품목 생성
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 품목 수정
func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 품목 소프트 삭제
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Item{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// List 품목 목록 조회
func (r *ItemRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Item, int64, error) {
	var items []entity.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Item{}).Where("deleted_at IS NULL")

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name LIKE ? OR code LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if itemType, ok := filters["item_type"].(string); ok && itemType != "" {
		query = query.Where("item_type = ?", itemType)
	}
	if active, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
