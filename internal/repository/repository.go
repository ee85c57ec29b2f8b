package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 에러 정의
var (
	ErrNotFound = errors.New("record not found")
)

// generateID 32자리 ID 생성
func generateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:32]
}

// Repositories 저장소 집합
type Repositories struct {
	Item    *ItemRepository
	BOMEdge *BOMEdgeRepository
	Price   *PriceRepository
}

// NewRepositories 저장소 집합 생성
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:    NewItemRepository(db),
		BOMEdge: NewBOMEdgeRepository(db),
		Price:   NewPriceRepository(db),
	}
}
