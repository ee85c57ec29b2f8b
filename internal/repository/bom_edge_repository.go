package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
	"gorm.io/gorm"
)

// BOMEdgeRepository BOM 간선 저장소. 그래프 순회의 단일 출처다.
type BOMEdgeRepository struct {
	db *gorm.DB
}

// NewBOMEdgeRepository BOM 간선 저장소 생성
func NewBOMEdgeRepository(db *gorm.DB) *BOMEdgeRepository {
	return &BOMEdgeRepository{db: db}
}

// WithTx 트랜잭션에 바인딩된 저장소 반환.
// 사이클 검증과 삽입을 하나의 트랜잭션 안에서 수행할 때 사용한다.
func (r *BOMEdgeRepository) WithTx(tx *gorm.DB) *BOMEdgeRepository {
	return &BOMEdgeRepository{db: tx}
}

// Transaction gorm 트랜잭션 래퍼
func (r *BOMEdgeRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// FindByID 간선 단건 조회
func (r *BOMEdgeRepository) FindByID(ctx context.Context, id string) (*entity.BOMEdge, error) {
	var edge entity.BOMEdge
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &edge, nil
}

// GetActiveEdgesByParent 부모 기준 활성 간선 조회 (정전개 방향)
func (r *BOMEdgeRepository) GetActiveEdgesByParent(ctx context.Context, parentItemID string) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := r.db.WithContext(ctx).
		Where("parent_item_id = ? AND is_active = ?", parentItemID, true).
		Order("created_at ASC").
		Find(&edges).Error
	return edges, err
}

// GetActiveEdgesByChild 자식 기준 활성 간선 조회 (역전개 방향)
func (r *BOMEdgeRepository) GetActiveEdgesByChild(ctx context.Context, childItemID string) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := r.db.WithContext(ctx).
		Preload("ParentItem").
		Where("child_item_id = ? AND is_active = ?", childItemID, true).
		Order("created_at ASC").
		Find(&edges).Error
	return edges, err
}

// ExistsActiveEdge (parent, child) 쌍의 활성 간선 존재 여부
func (r *BOMEdgeRepository) ExistsActiveEdge(ctx context.Context, parentItemID, childItemID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.BOMEdge{}).
		Where("parent_item_id = ? AND child_item_id = ? AND is_active = ?", parentItemID, childItemID, true).
		Count(&count).Error
	return count > 0, err
}

// InsertEdges 간선 일괄 삽입 (단일 배치 INSERT)
func (r *BOMEdgeRepository) InsertEdges(ctx context.Context, edges []entity.BOMEdge) error {
	if len(edges) == 0 {
		return nil
	}
	now := time.Now()
	for i := range edges {
		if edges[i].ID == "" {
			edges[i].ID = generateID()
		}
		edges[i].IsActive = true
		edges[i].CreatedAt = now
		edges[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Create(&edges).Error
}

// Deactivate 간선 비활성화 (소프트 삭제)
func (r *BOMEdgeRepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.BOMEdge{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
