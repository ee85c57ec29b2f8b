package entity

import (
	"time"
)

// Item 품목 마스터
type Item struct {
	ID            string     `json:"item_id" gorm:"primaryKey;size:32"`
	Code          string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Specification string     `json:"specification" gorm:"size:256"`
	Unit          string     `json:"unit" gorm:"size:16;not null;default:EA"`
	ItemType      string     `json:"item_type" gorm:"size:16;not null;default:material"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:32"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Item) TableName() string {
	return "items"
}

// ItemType 품목 유형
const (
	ItemTypeProduct  = "product"
	ItemTypeSemi     = "semi"
	ItemTypeMaterial = "material"
)

// ItemUnit 기본 단위
const (
	ItemUnitEA  = "EA"
	ItemUnitKG  = "kg"
	ItemUnitM   = "m"
	ItemUnitSet = "set"
)

// ItemPrice 품목 단가 이력 (append-only)
// 조회 시점 기준 가장 최근 단가를 사용한다.
type ItemPrice struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ItemID        string    `json:"item_id" gorm:"size:32;not null;index:idx_item_prices_lookup,priority:1"`
	UnitPrice     float64   `json:"unit_price" gorm:"type:decimal(15,4);not null"`
	Currency      string    `json:"currency" gorm:"size:3;not null;default:KRW"`
	EffectiveDate time.Time `json:"effective_date" gorm:"not null;index:idx_item_prices_lookup,priority:2"`
	CreatedBy     string    `json:"created_by" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`

	// 관계
	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (ItemPrice) TableName() string {
	return "item_prices"
}
