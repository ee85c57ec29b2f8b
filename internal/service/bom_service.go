package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
	"gorm.io/gorm"
)

// CandidateEdge 배치 등록 후보 간선
type CandidateEdge struct {
	ParentItemID     string  `json:"parent_item_id"`
	ChildItemID      string  `json:"child_item_id"`
	QuantityRequired float64 `json:"quantity_required"`
	LevelNo          int     `json:"level_no"`
	Notes            string  `json:"notes"`
}

// RowOutcome 배치 내 행 단위 결과.
// Edge가 채워지면 수용, Errors가 채워지면 거부다 (둘 중 하나만 존재).
// Index는 호출자에게 노출되는 1-base 행 번호.
type RowOutcome struct {
	Index  int             `json:"index"`
	Edge   *entity.BOMEdge `json:"edge,omitempty"`
	Errors []RowError      `json:"errors,omitempty"`
}

// BatchResult 배치 검증/커밋 결과 보고서
type BatchResult struct {
	SuccessCount     int              `json:"success_count"`
	FailCount        int              `json:"fail_count"`
	Inserted         []entity.BOMEdge `json:"inserted"`
	ValidationErrors []RowOutcome     `json:"validation_errors"`
	Rows             []RowOutcome     `json:"rows"`
}

// ValidateAndCommit 후보 간선 배치를 검증하고 통과한 행만 커밋한다.
//
// 배치는 all-or-nothing이 아니다. 행별 검증 실패는 보고서에 수집되고
// 통과한 행만 단일 배치 INSERT로 저장된다. 대량 등록 처리량을 위해
// 의도된 정책이므로 호출자는 반드시 행별 보고서를 확인해야 한다.
// 단, 개별 후보의 사이클 검증과 삽입은 하나의 트랜잭션 안에서 수행되어
// 동시 등록이 사이클을 만들 수 없다.
func (s *BOMService) ValidateAndCommit(ctx context.Context, userID string, candidates []CandidateEdge) (*BatchResult, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(candidates) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d candidates (max %d)", ErrBatchTooLarge, len(candidates), s.cfg.MaxBatchSize)
	}

	// 1단계: 필드 검증 (행별로 모든 사유를 누적한다)
	rowErrs := make([][]RowError, len(candidates))
	idSet := make(map[string]struct{})
	for i, c := range candidates {
		if c.ParentItemID == "" {
			rowErrs[i] = append(rowErrs[i], RowError{
				Code: RowErrMissingParent, Field: "parent_item_id",
				Message: "parent item id is required",
			})
		}
		if c.ChildItemID == "" {
			rowErrs[i] = append(rowErrs[i], RowError{
				Code: RowErrMissingChild, Field: "child_item_id",
				Message: "child item id is required",
			})
		}
		if c.QuantityRequired <= 0 {
			rowErrs[i] = append(rowErrs[i], RowError{
				Code: RowErrInvalidQuantity, Field: "quantity_required",
				Message: fmt.Sprintf("quantity must be greater than zero, got %v", c.QuantityRequired),
			})
		}
		if c.ParentItemID != "" && c.ParentItemID == c.ChildItemID {
			rowErrs[i] = append(rowErrs[i], RowError{
				Code: RowErrSelfReference, Field: "child_item_id",
				Message: "parent and child item cannot be the same",
			})
		}
		if c.ParentItemID != "" {
			idSet[c.ParentItemID] = struct{}{}
		}
		if c.ChildItemID != "" {
			idSet[c.ChildItemID] = struct{}{}
		}
	}

	// 2단계: 품목 일괄 조회 (전체 후보의 ID를 모아 단일 쿼리)
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	resolved, err := s.itemRepo.ResolveItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}
	for i, c := range candidates {
		for _, ref := range []struct{ field, id string }{
			{"parent_item_id", c.ParentItemID},
			{"child_item_id", c.ChildItemID},
		} {
			if ref.id == "" {
				continue
			}
			item, ok := resolved[ref.id]
			if !ok {
				rowErrs[i] = append(rowErrs[i], RowError{
					Code: RowErrItemNotFound, Field: ref.field,
					Message: fmt.Sprintf("item %s does not exist", ref.id),
				})
			} else if !item.IsActive {
				rowErrs[i] = append(rowErrs[i], RowError{
					Code: RowErrItemInactive, Field: ref.field,
					Message: fmt.Sprintf("item %s (%s) is inactive", item.Code, ref.id),
				})
			}
		}
	}

	// 3단계: 중복/사이클 검증과 삽입을 하나의 트랜잭션으로 수행
	ctx, cancel := s.traversalContext(ctx)
	defer cancel()

	result := &BatchResult{}
	idxToPos := make(map[int]int)
	txErr := s.edgeRepo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := s.edgeRepo.WithTx(tx)

		// 같은 배치에서 먼저 수용된 간선은 아직 저장 전이므로
		// 오버레이 인접 맵으로 사이클/중복 검증에 반영한다.
		overlay := make(map[string][]string)
		seenPairs := make(map[[2]string]int)
		var accepted []entity.BOMEdge
		var acceptedIdx []int

		for i, c := range candidates {
			pair := [2]string{c.ParentItemID, c.ChildItemID}

			// 배치 내 중복: 앞선 행이 같은 쌍을 이미 차지했으면 거부 (입력 순서 기준)
			if c.ParentItemID != "" && c.ChildItemID != "" {
				if firstIdx, dup := seenPairs[pair]; dup {
					rowErrs[i] = append(rowErrs[i], RowError{
						Code:    RowErrDuplicateInBatch,
						Message: fmt.Sprintf("duplicate of row %d in the same batch", firstIdx+1),
					})
				} else {
					seenPairs[pair] = i
				}
			}

			// 기존 활성 간선 중복 (다른 사유로 이미 거부된 행도 보고서 완결성을 위해 확인)
			if c.ParentItemID != "" && c.ChildItemID != "" && c.ParentItemID != c.ChildItemID {
				exists, err := txRepo.ExistsActiveEdge(ctx, c.ParentItemID, c.ChildItemID)
				if err != nil {
					return fmt.Errorf("check duplicate edge: %w", err)
				}
				if exists {
					rowErrs[i] = append(rowErrs[i], RowError{
						Code:    RowErrDuplicateEdge,
						Message: "an active BOM edge already exists for this parent/child pair",
					})
				}
			}

			// 사이클 검증은 앞선 검증을 모두 통과한 행에만 수행한다
			if len(rowErrs[i]) == 0 {
				cyc, err := s.wouldCreateCycle(ctx, txRepo, c.ParentItemID, c.ChildItemID, overlay)
				if err != nil {
					// 조회 실패는 "사이클 확인"과 구분되는 일시 오류로 전체 배치를 중단한다
					return err
				}
				if cyc {
					rowErrs[i] = append(rowErrs[i], RowError{
						Code:    RowErrCycle,
						Message: fmt.Sprintf("circular reference detected: %s is already a descendant path back to %s", c.ChildItemID, c.ParentItemID),
					})
				}
			}

			if len(rowErrs[i]) == 0 {
				levelNo := c.LevelNo
				if levelNo < 1 {
					levelNo = 1
				}
				accepted = append(accepted, entity.BOMEdge{
					ParentItemID:     c.ParentItemID,
					ChildItemID:      c.ChildItemID,
					QuantityRequired: c.QuantityRequired,
					LevelNo:          levelNo,
					Notes:            c.Notes,
					CreatedBy:        userID,
				})
				acceptedIdx = append(acceptedIdx, i)
				overlay[c.ParentItemID] = append(overlay[c.ParentItemID], c.ChildItemID)
			}
		}

		// 통과한 행이 하나도 없으면 쓰기를 시도하지 않는다
		if len(accepted) > 0 {
			if err := txRepo.InsertEdges(ctx, accepted); err != nil {
				return fmt.Errorf("insert edges: %w", err)
			}
		}

		result.Inserted = accepted
		for k, idx := range acceptedIdx {
			idxToPos[idx] = k
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 보고서 조립: 입력 순서대로, 거부 행은 1-base 인덱스와 전체 사유 목록 포함
	for i := range candidates {
		if len(rowErrs[i]) > 0 {
			outcome := RowOutcome{Index: i + 1, Errors: rowErrs[i]}
			result.ValidationErrors = append(result.ValidationErrors, outcome)
			result.Rows = append(result.Rows, outcome)
		} else if pos, ok := idxToPos[i]; ok {
			result.Rows = append(result.Rows, RowOutcome{Index: i + 1, Edge: &result.Inserted[pos]})
		}
	}
	result.SuccessCount = len(result.Inserted)
	result.FailCount = len(result.ValidationErrors)

	s.invalidateCostCache(ctx)

	return result, nil
}

// wouldCreateCycle (parent → child) 간선 추가 시 사이클 형성 여부.
//
// child의 자손 방향으로 DFS를 수행하며 parent에 도달하면 사이클이다.
// visited 집합은 기존 데이터가 이미 망가져 있어도 무한 루프에 빠지지
// 않게 한다. overlay는 같은 배치에서 먼저 수용된 간선의 인접 목록.
func (s *BOMService) wouldCreateCycle(ctx context.Context, repo *repository.BOMEdgeRepository, parentID, childID string, overlay map[string][]string) (bool, error) {
	visited := make(map[string]struct{})
	return s.walkDescendants(ctx, repo, childID, parentID, visited, overlay, 0)
}

func (s *BOMService) walkDescendants(ctx context.Context, repo *repository.BOMEdgeRepository, currentID, targetID string, visited map[string]struct{}, overlay map[string][]string, depth int) (bool, error) {
	if currentID == targetID {
		return true, nil
	}
	if _, ok := visited[currentID]; ok {
		return false, nil
	}
	visited[currentID] = struct{}{}

	if depth > s.cfg.MaxDepth {
		return false, fmt.Errorf("%w: descendant walk exceeded depth %d", ErrTraversalLimit, s.cfg.MaxDepth)
	}

	edges, err := repo.GetActiveEdgesByParent(ctx, currentID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: descendant walk timed out", ErrTraversalLimit)
		}
		return false, fmt.Errorf("fetch child edges of %s: %w", currentID, err)
	}

	next := make([]string, 0, len(edges)+len(overlay[currentID]))
	for _, e := range edges {
		next = append(next, e.ChildItemID)
	}
	next = append(next, overlay[currentID]...)

	for _, childID := range next {
		found, err := s.walkDescendants(ctx, repo, childID, targetID, visited, overlay, depth+1)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// WouldCreateCycle 단건 사전 점검용 공개 계약
func (s *BOMService) WouldCreateCycle(ctx context.Context, parentID, childID string) (bool, error) {
	ctx, cancel := s.traversalContext(ctx)
	defer cancel()
	return s.wouldCreateCycle(ctx, s.edgeRepo, parentID, childID, nil)
}

// DeactivateEdge 간선 비활성화. 관계 변경은 비활성화 + 신규 등록으로 처리한다.
func (s *BOMService) DeactivateEdge(ctx context.Context, id string) error {
	if err := s.edgeRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidateCostCache(ctx)
	return nil
}

// traversalContext 순회 요청별 데드라인 적용
func (s *BOMService) traversalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.TraversalTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.TraversalTimeout)
}
