package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// WhereUsedRecord 역전개 결과 행 (파생 결과, 저장하지 않음)
type WhereUsedRecord struct {
	ParentItemID string  `json:"parent_item_id"`
	ParentCode   string  `json:"parent_code"`
	ParentName   string  `json:"parent_name"`
	Quantity     float64 `json:"quantity"`
	Level        int     `json:"level"`
	Path         string  `json:"path"`
	BOMID        string  `json:"bom_id"`
}

// WhereUsedSummary 역전개 요약
type WhereUsedSummary struct {
	DirectParents  int `json:"direct_parents"`
	TotalAncestors int `json:"total_ancestors"`
	MaxLevel       int `json:"max_level"`
}

// WhereUsedResult 역전개 결과
type WhereUsedResult struct {
	ItemID    string            `json:"item_id"`
	Ancestors []WhereUsedRecord `json:"ancestors"`
	Summary   WhereUsedSummary  `json:"summary"`
	Message   string            `json:"message,omitempty"`
}

// FindAncestors 품목이 사용되는 모든 상위 품목을 역전개한다.
//
// 방문 집합은 경로 단위로 관리한다: 같은 품목이 다른 분기에서 다시
// 나타나는 다이아몬드 구조는 각각 전개하되, 한 경로 안의 순환은
// 차단한다. 수량 배수는 경로를 따라 곱해 올라간다.
// 사용처가 없는 품목은 오류가 아니라 빈 목록 + 요약으로 응답한다.
func (s *BOMService) FindAncestors(ctx context.Context, itemID string) (*WhereUsedResult, error) {
	// 대상 품목 자체가 없으면 not found
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	ctx, cancel := s.traversalContext(ctx)
	defer cancel()

	result := &WhereUsedResult{
		ItemID:    itemID,
		Ancestors: []WhereUsedRecord{},
	}

	visited := map[string]struct{}{itemID: {}}
	if err := s.walkAncestors(ctx, itemID, 1, "", 1, visited, result); err != nil {
		return nil, err
	}

	// 요약 집계
	direct := make(map[string]struct{})
	total := make(map[string]struct{})
	for _, rec := range result.Ancestors {
		total[rec.ParentItemID] = struct{}{}
		if rec.Level == 1 {
			direct[rec.ParentItemID] = struct{}{}
		}
		if rec.Level > result.Summary.MaxLevel {
			result.Summary.MaxLevel = rec.Level
		}
	}
	result.Summary.DirectParents = len(direct)
	result.Summary.TotalAncestors = len(total)

	if len(result.Ancestors) == 0 {
		result.Message = "item is not used in any bill of materials"
		return result, nil
	}

	// 레벨 오름차순, 동일 레벨은 품목명 로케일 정렬
	cl := collate.New(language.Korean)
	sort.SliceStable(result.Ancestors, func(i, j int) bool {
		a, b := result.Ancestors[i], result.Ancestors[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return cl.CompareString(a.ParentName, b.ParentName) < 0
	})

	return result, nil
}

// walkAncestors 재귀 역전개. multiplier는 시작 품목 1단위 기준 누적 수량.
func (s *BOMService) walkAncestors(ctx context.Context, itemID string, level int, pathSoFar string, multiplier float64, visited map[string]struct{}, result *WhereUsedResult) error {
	if level > s.cfg.MaxDepth {
		return fmt.Errorf("%w: where-used walk exceeded depth %d", ErrTraversalLimit, s.cfg.MaxDepth)
	}

	edges, err := s.edgeRepo.GetActiveEdgesByChild(ctx, itemID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: where-used walk timed out", ErrTraversalLimit)
		}
		return fmt.Errorf("fetch parent edges of %s: %w", itemID, err)
	}

	for _, edge := range edges {
		// 현재 경로에 이미 등장한 품목이면 순환: 이 분기는 중단
		if _, ok := visited[edge.ParentItemID]; ok {
			continue
		}

		parentName := edge.ParentItemID
		parentCode := ""
		if edge.ParentItem != nil {
			parentName = edge.ParentItem.Name
			parentCode = edge.ParentItem.Code
		}

		path := parentName
		if pathSoFar != "" {
			path = parentName + " > " + pathSoFar
		}

		cumulative := multiplier * edge.QuantityRequired
		result.Ancestors = append(result.Ancestors, WhereUsedRecord{
			ParentItemID: edge.ParentItemID,
			ParentCode:   parentCode,
			ParentName:   parentName,
			Quantity:     cumulative,
			Level:        level,
			Path:         path,
			BOMID:        edge.ID,
		})

		visited[edge.ParentItemID] = struct{}{}
		if err := s.walkAncestors(ctx, edge.ParentItemID, level+1, path, cumulative, visited, result); err != nil {
			return err
		}
		// 경로 단위 방문 집합: 분기 처리 후 제거해 다른 분기의 재방문을 허용
		delete(visited, edge.ParentItemID)
	}

	return nil
}
