package entity

import (
	"time"
)

// BOMEdge BOM 구성 관계 (부모 품목 1단위당 자식 품목 소요량)
//
// 활성 간선 기준 불변식:
//   - parent_item_id != child_item_id
//   - quantity_required > 0
//   - (parent, child) 쌍당 활성 간선은 최대 1개
//   - 활성 부분그래프는 사이클이 없어야 한다
//
// 관계 변경은 기존 간선 비활성화 + 신규 삽입으로 처리하며,
// 행 자체를 물리 삭제하거나 parent/child를 수정하지 않는다.
type BOMEdge struct {
	ID               string    `json:"bom_id" gorm:"primaryKey;size:32"`
	ParentItemID     string    `json:"parent_item_id" gorm:"size:32;not null;index"`
	ChildItemID      string    `json:"child_item_id" gorm:"size:32;not null;index"`
	QuantityRequired float64   `json:"quantity_required" gorm:"type:decimal(15,4);not null"`
	LevelNo          int       `json:"level_no" gorm:"not null;default:1"`
	IsActive         bool      `json:"is_active" gorm:"not null;default:true"`
	Notes            string    `json:"notes" gorm:"type:text"`
	CreatedBy        string    `json:"created_by" gorm:"size:32"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// 관계
	ParentItem *Item `json:"parent_item,omitempty" gorm:"foreignKey:ParentItemID"`
	ChildItem  *Item `json:"child_item,omitempty" gorm:"foreignKey:ChildItemID"`
}

func (BOMEdge) TableName() string {
	return "bom_edges"
}
