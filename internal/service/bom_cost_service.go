package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
)

// BOMTreeNode 전개 트리 노드 (파생 결과, 저장하지 않음)
type BOMTreeNode struct {
	ItemID    string        `json:"item_id"`
	ItemCode  string        `json:"item_code"`
	ItemName  string        `json:"item_name"`
	Unit      string        `json:"unit"`
	Level     int           `json:"level"`
	Quantity  float64       `json:"quantity"`
	UnitPrice *float64      `json:"unit_price,omitempty"`
	Subtotal  float64       `json:"subtotal"`
	BOMID     string        `json:"bom_id,omitempty"`
	Children  []BOMTreeNode `json:"children,omitempty"`
}

// MissingPrice 단가 미해결 품목
type MissingPrice struct {
	ItemID   string `json:"item_id"`
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
	Level    int    `json:"level"`
}

// CostResult 원가 전개 결과
type CostResult struct {
	ItemID          string         `json:"item_id"`
	AsOfDate        time.Time      `json:"as_of_date"`
	MaterialCost    float64        `json:"material_cost"`
	LaborCost       float64        `json:"labor_cost"`
	OverheadCost    float64        `json:"overhead_cost"`
	CalculatedCost  float64        `json:"calculated_cost"`
	IncludeLabor    bool           `json:"include_labor"`
	IncludeOverhead bool           `json:"include_overhead"`
	Tree            *BOMTreeNode   `json:"tree"`
	MissingPrices   []MissingPrice `json:"missing_prices"`
}

// CalculateCost 루트 품목의 원가를 재귀 전개로 계산한다.
//
// 수량은 경로를 따라 정확히 곱해 내려가고 (중간 반올림 없음),
// 리프 단가를 집계해 올라온다. 자식이 있는 노드는 자기 단가가 아닌
// 구성품 합계로만 원가가 정해진다. 단가 미해결 리프는 0원으로
// 기여하되 missing_prices 목록으로 보고한다 (루트 자신은 제외).
//
// 노무비/간접비 비율은 설정된 임시 계수이며 권위 있는 원가가 아니다.
func (s *BOMService) CalculateCost(ctx context.Context, itemID string, asOf time.Time, includeLabor, includeOverhead bool) (*CostResult, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	if cached, ok := s.costCacheGet(ctx, itemID, asOf, includeLabor, includeOverhead); ok {
		return cached, nil
	}

	// 루트 품목은 존재해야 한다
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	ctx, cancel := s.traversalContext(ctx)
	defer cancel()

	result := &CostResult{
		ItemID:          itemID,
		AsOfDate:        asOf,
		IncludeLabor:    includeLabor,
		IncludeOverhead: includeOverhead,
		MissingPrices:   []MissingPrice{},
	}

	tree, err := s.rollup(ctx, itemID, 1, 0, asOf, "", result)
	if err != nil {
		return nil, err
	}
	result.Tree = tree

	result.MaterialCost = tree.Subtotal
	if includeLabor {
		result.LaborCost = result.MaterialCost * s.cfg.LaborRate
	}
	if includeOverhead {
		result.OverheadCost = result.MaterialCost * s.cfg.OverheadRate
	}
	result.CalculatedCost = result.MaterialCost + result.LaborCost + result.OverheadCost

	s.costCacheSet(ctx, itemID, asOf, includeLabor, includeOverhead, result)

	return result, nil
}

// rollup 재귀 전개. quantity는 루트 1단위 기준 누적 소요량.
func (s *BOMService) rollup(ctx context.Context, itemID string, quantity float64, level int, asOf time.Time, bomID string, result *CostResult) (*BOMTreeNode, error) {
	if level > s.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: cost rollup exceeded depth %d", ErrTraversalLimit, s.cfg.MaxDepth)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: cost rollup timed out", ErrTraversalLimit)
		}
		return nil, fmt.Errorf("resolve item %s: %w", itemID, err)
	}

	node := &BOMTreeNode{
		ItemID:   itemID,
		ItemCode: item.Code,
		ItemName: item.Name,
		Unit:     item.Unit,
		Level:    level,
		Quantity: quantity,
		BOMID:    bomID,
	}

	// 단가는 자식 유무와 무관하게 기록한다 (부모 노드에선 표시용일 뿐 합계에 쓰지 않음)
	price, err := s.priceRepo.GetPrice(ctx, itemID, asOf)
	switch {
	case err == nil:
		node.UnitPrice = &price.UnitPrice
	case errors.Is(err, repository.ErrNotFound):
		// 단가 없음은 오류가 아니다
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: price lookup timed out", ErrTraversalLimit)
	default:
		return nil, fmt.Errorf("lookup price of %s: %w", itemID, err)
	}

	edges, err := s.edgeRepo.GetActiveEdgesByParent(ctx, itemID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: cost rollup timed out", ErrTraversalLimit)
		}
		return nil, fmt.Errorf("fetch child edges of %s: %w", itemID, err)
	}

	if len(edges) == 0 {
		// 리프: 단가 × 누적 수량. 미해결 단가는 0원 기여 + 보고 (루트는 예외).
		if node.UnitPrice != nil {
			node.Subtotal = *node.UnitPrice * quantity
		} else if level > 0 {
			result.MissingPrices = append(result.MissingPrices, MissingPrice{
				ItemID:   itemID,
				ItemCode: item.Code,
				ItemName: item.Name,
				Level:    level,
			})
		}
		return node, nil
	}

	for _, edge := range edges {
		child, err := s.rollup(ctx, edge.ChildItemID, edge.QuantityRequired*quantity, level+1, asOf, edge.ID, result)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, *child)
		node.Subtotal += child.Subtotal
	}
	return node, nil
}

// GetTree 루트 품목 기준 활성 BOM 전개 (표시용, 단가 없음)
func (s *BOMService) GetTree(ctx context.Context, itemID string) (*BOMTreeNode, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	ctx, cancel := s.traversalContext(ctx)
	defer cancel()

	return s.explode(ctx, itemID, 1, 0, "")
}

func (s *BOMService) explode(ctx context.Context, itemID string, quantity float64, level int, bomID string) (*BOMTreeNode, error) {
	if level > s.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: tree explosion exceeded depth %d", ErrTraversalLimit, s.cfg.MaxDepth)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tree explosion timed out", ErrTraversalLimit)
		}
		return nil, fmt.Errorf("resolve item %s: %w", itemID, err)
	}

	node := &BOMTreeNode{
		ItemID:   itemID,
		ItemCode: item.Code,
		ItemName: item.Name,
		Unit:     item.Unit,
		Level:    level,
		Quantity: quantity,
		BOMID:    bomID,
	}

	edges, err := s.edgeRepo.GetActiveEdgesByParent(ctx, itemID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tree explosion timed out", ErrTraversalLimit)
		}
		return nil, fmt.Errorf("fetch child edges of %s: %w", itemID, err)
	}

	for _, edge := range edges {
		child, err := s.explode(ctx, edge.ChildItemID, edge.QuantityRequired*quantity, level+1, edge.ID)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, *child)
	}
	return node, nil
}

// ==================== 원가 결과 캐시 ====================

const costCacheVerKey = "bom:cost:ver"

// costCacheKey 버전 키를 포함해, 간선 변경 시 버전만 올리면 기존 키가 무효화된다
func (s *BOMService) costCacheKey(ctx context.Context, itemID string, asOf time.Time, labor, overhead bool) string {
	ver, err := s.rdb.Get(ctx, costCacheVerKey).Result()
	if err != nil {
		ver = "0"
	}
	return fmt.Sprintf("bom:cost:v%s:%s:%s:%t:%t", ver, itemID, asOf.Format("2006-01-02"), labor, overhead)
}

func (s *BOMService) costCacheGet(ctx context.Context, itemID string, asOf time.Time, labor, overhead bool) (*CostResult, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, s.costCacheKey(ctx, itemID, asOf, labor, overhead)).Bytes()
	if err != nil {
		return nil, false
	}
	var result CostResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *BOMService) costCacheSet(ctx context.Context, itemID string, asOf time.Time, labor, overhead bool, result *CostResult) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	// 캐시 실패는 무시 (다음 요청에서 다시 계산)
	s.rdb.Set(ctx, s.costCacheKey(ctx, itemID, asOf, labor, overhead), raw, s.cfg.CostCacheTTL)
}

// invalidateCostCache 간선 변경 후 호출. 버전 증가로 전체 원가 캐시를 무효화한다.
func (s *BOMService) invalidateCostCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	s.rdb.Incr(ctx, costCacheVerKey)
}
