package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
)

// CreateItemRequest 품목 생성 요청
type CreateItemRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Specification string `json:"specification"`
	Unit          string `json:"unit"`
	ItemType      string `json:"item_type"`
	Notes         string `json:"notes"`
}

// UpdateItemRequest 품목 수정 요청
type UpdateItemRequest struct {
	Name          string `json:"name"`
	Specification string `json:"specification"`
	Unit          string `json:"unit"`
	IsActive      *bool  `json:"is_active"`
	Notes         string `json:"notes"`
}

// AddPriceRequest 단가 등록 요청
type AddPriceRequest struct {
	UnitPrice     float64   `json:"unit_price" binding:"required,gt=0"`
	Currency      string    `json:"currency"`
	EffectiveDate time.Time `json:"effective_date" binding:"required"`
}

// Get 품목 단건 조회
func (s *ItemService) Get(ctx context.Context, id string) (*entity.Item, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// List 품목 목록 조회
func (s *ItemService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Item, int64, error) {
	return s.itemRepo.List(ctx, page, pageSize, filters)
}

// Create 품목 생성
func (s *ItemService) Create(ctx context.Context, userID string, req *CreateItemRequest) (*entity.Item, error) {
	now := time.Now()
	item := &entity.Item{
		Code:          req.Code,
		Name:          req.Name,
		Specification: req.Specification,
		Unit:          req.Unit,
		ItemType:      req.ItemType,
		IsActive:      true,
		Notes:         req.Notes,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if item.Unit == "" {
		item.Unit = entity.ItemUnitEA
	}
	if item.ItemType == "" {
		item.ItemType = entity.ItemTypeMaterial
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// Update 품목 수정
func (s *ItemService) Update(ctx context.Context, id string, req *UpdateItemRequest) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Specification != "" {
		item.Specification = req.Specification
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.Notes != "" {
		item.Notes = req.Notes
	}
	item.UpdatedAt = time.Now()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// Delete 품목 삭제 (논리 삭제)
func (s *ItemService) Delete(ctx context.Context, id string) error {
	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.itemRepo.Delete(ctx, id)
}

// AddPrice 단가 등록
func (s *ItemService) AddPrice(ctx context.Context, itemID, userID string, req *AddPriceRequest) (*entity.ItemPrice, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	price := &entity.ItemPrice{
		ItemID:        itemID,
		UnitPrice:     req.UnitPrice,
		Currency:      req.Currency,
		EffectiveDate: req.EffectiveDate,
		CreatedBy:     userID,
		CreatedAt:     time.Now(),
	}
	if price.Currency == "" {
		price.Currency = "KRW"
	}

	if err := s.priceRepo.Create(ctx, price); err != nil {
		return nil, fmt.Errorf("create item price: %w", err)
	}
	return price, nil
}

// ListPrices 품목 단가 이력 조회
func (s *ItemService) ListPrices(ctx context.Context, itemID string) ([]entity.ItemPrice, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.priceRepo.ListByItem(ctx, itemID)
}
