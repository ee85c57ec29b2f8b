package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/config"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/service"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/testutil"
	"gorm.io/gorm"
)

func newTestBOMService(t *testing.T, cfg config.BOMConfig) (*service.BOMService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return service.NewBOMService(repos.BOMEdge, repos.Item, repos.Price, nil, cfg), db
}

func hasRowError(errs []service.RowError, code service.RowErrorCode) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func findOutcome(outcomes []service.RowOutcome, index int) *service.RowOutcome {
	for i := range outcomes {
		if outcomes[i].Index == index {
			return &outcomes[i]
		}
	}
	return nil
}

func TestValidateAndCommitPartialSuccess(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	ctx := context.Background()

	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "SA-0001", "반제품 B", "semi")
	testutil.SeedItem(t, db, "item-c", "RM-0001", "원자재 C", "material")
	testutil.SeedItem(t, db, "item-d", "RM-0002", "원자재 D", "material")
	testutil.SeedItem(t, db, "item-e", "RM-0003", "원자재 E", "material")

	result, err := svc.ValidateAndCommit(ctx, "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 2},
		{ParentItemID: "item-a", ChildItemID: "", QuantityRequired: 1},
		{ParentItemID: "item-b", ChildItemID: "item-c", QuantityRequired: 3},
		{ParentItemID: "item-b", ChildItemID: "item-d", QuantityRequired: -1},
		{ParentItemID: "item-a", ChildItemID: "item-e", QuantityRequired: 5},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}

	if result.SuccessCount != 3 {
		t.Errorf("SuccessCount = %d, want 3", result.SuccessCount)
	}
	if result.FailCount != 2 {
		t.Errorf("FailCount = %d, want 2", result.FailCount)
	}

	// 거부 행은 1-base 인덱스로 보고된다
	row2 := findOutcome(result.ValidationErrors, 2)
	if row2 == nil || !hasRowError(row2.Errors, service.RowErrMissingChild) {
		t.Errorf("row 2 should be rejected with missing_child_item, got %+v", row2)
	}
	row4 := findOutcome(result.ValidationErrors, 4)
	if row4 == nil || !hasRowError(row4.Errors, service.RowErrInvalidQuantity) {
		t.Errorf("row 4 should be rejected with invalid_quantity, got %+v", row4)
	}

	// 보고서는 입력 순서를 유지한다
	if len(result.Rows) != 5 {
		t.Fatalf("Rows length = %d, want 5", len(result.Rows))
	}
	for i, row := range result.Rows {
		if row.Index != i+1 {
			t.Errorf("Rows[%d].Index = %d, want %d", i, row.Index, i+1)
		}
	}

	// 통과한 행은 실제로 저장된다
	var count int64
	db.Table("bom_edges").Where("is_active = ?", true).Count(&count)
	if count != 3 {
		t.Errorf("persisted edge count = %d, want 3", count)
	}
}

func TestValidateAndCommitEmptyBatch(t *testing.T) {
	svc, _ := newTestBOMService(t, config.BOMConfig{})

	_, err := svc.ValidateAndCommit(context.Background(), "tester", nil)
	if !errors.Is(err, service.ErrEmptyBatch) {
		t.Errorf("error = %v, want ErrEmptyBatch", err)
	}
}

func TestValidateAndCommitBatchTooLarge(t *testing.T) {
	svc, _ := newTestBOMService(t, config.BOMConfig{MaxBatchSize: 2})

	candidates := make([]service.CandidateEdge, 3)
	for i := range candidates {
		candidates[i] = service.CandidateEdge{
			ParentItemID: "item-a", ChildItemID: fmt.Sprintf("item-%d", i), QuantityRequired: 1,
		}
	}

	_, err := svc.ValidateAndCommit(context.Background(), "tester", candidates)
	if !errors.Is(err, service.ErrBatchTooLarge) {
		t.Errorf("error = %v, want ErrBatchTooLarge", err)
	}
}

func TestValidateAndCommitAccumulatesAllReasons(t *testing.T) {
	svc, _ := newTestBOMService(t, config.BOMConfig{})

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "", ChildItemID: "no-such-item", QuantityRequired: 0},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}

	row := findOutcome(result.ValidationErrors, 1)
	if row == nil {
		t.Fatal("row 1 should be rejected")
	}
	// 행 하나에 해당하는 모든 사유가 누적된다 (첫 실패에서 멈추지 않음)
	if !hasRowError(row.Errors, service.RowErrMissingParent) {
		t.Error("missing_parent_item reason not reported")
	}
	if !hasRowError(row.Errors, service.RowErrInvalidQuantity) {
		t.Error("invalid_quantity reason not reported")
	}
	if !hasRowError(row.Errors, service.RowErrItemNotFound) {
		t.Error("item_not_found reason not reported")
	}
}

func TestValidateAndCommitSelfReference(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-a", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	if result.SuccessCount != 0 {
		t.Errorf("SuccessCount = %d, want 0", result.SuccessCount)
	}
	row := findOutcome(result.ValidationErrors, 1)
	if row == nil || !hasRowError(row.Errors, service.RowErrSelfReference) {
		t.Errorf("self reference should be rejected, got %+v", row)
	}
}

func TestValidateAndCommitInactiveItem(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedInactiveItem(t, db, "item-x", "RM-0099", "단종 자재")

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-x", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	row := findOutcome(result.ValidationErrors, 1)
	if row == nil || !hasRowError(row.Errors, service.RowErrItemInactive) {
		t.Errorf("inactive child should be rejected, got %+v", row)
	}
}

func TestValidateAndCommitDuplicateInBatch(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "RM-0001", "원자재 B", "material")

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 1},
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 2},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}

	// 앞선 행이 이기고 뒤의 중복만 거부된다
	if result.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", result.SuccessCount)
	}
	row2 := findOutcome(result.ValidationErrors, 2)
	if row2 == nil || !hasRowError(row2.Errors, service.RowErrDuplicateInBatch) {
		t.Fatalf("second row should be rejected as duplicate_in_batch, got %+v", row2)
	}
	if !strings.Contains(row2.Errors[0].Message, "row 1") {
		t.Errorf("duplicate message should point at row 1, got %q", row2.Errors[0].Message)
	}
}

func TestValidateAndCommitDuplicateExistingEdge(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "RM-0001", "원자재 B", "material")
	testutil.SeedEdge(t, db, "edge-1", "item-a", "item-b", 1)

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 2},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	row := findOutcome(result.ValidationErrors, 1)
	if row == nil || !hasRowError(row.Errors, service.RowErrDuplicateEdge) {
		t.Errorf("existing active edge should be rejected, got %+v", row)
	}
}

func TestValidateAndCommitAllowsReinsertAfterDeactivate(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "RM-0001", "원자재 B", "material")
	testutil.SeedEdge(t, db, "edge-1", "item-a", "item-b", 1)

	if err := svc.DeactivateEdge(context.Background(), "edge-1"); err != nil {
		t.Fatalf("DeactivateEdge failed: %v", err)
	}

	// 비활성화된 간선은 중복으로 치지 않는다 (수량 변경은 비활성화 후 재등록)
	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 4},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1: %+v", result.SuccessCount, result.ValidationErrors)
	}
}

func TestValidateAndCommitDirectCycle(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "RM-0001", "원자재 B", "material")
	testutil.SeedEdge(t, db, "edge-1", "item-a", "item-b", 1)

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-b", ChildItemID: "item-a", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	row := findOutcome(result.ValidationErrors, 1)
	if row == nil || !hasRowError(row.Errors, service.RowErrCycle) {
		t.Errorf("direct cycle should be rejected, got %+v", row)
	}
}

func TestValidateAndCommitTransitiveCycle(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "SA-0001", "반제품 B", "semi")
	testutil.SeedItem(t, db, "item-c", "RM-0001", "원자재 C", "material")
	testutil.SeedEdge(t, db, "edge-1", "item-a", "item-b", 1)
	testutil.SeedEdge(t, db, "edge-2", "item-b", "item-c", 1)

	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-c", ChildItemID: "item-a", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	row := findOutcome(result.ValidationErrors, 1)
	if row == nil || !hasRowError(row.Errors, service.RowErrCycle) {
		t.Errorf("transitive cycle should be rejected, got %+v", row)
	}
}

func TestValidateAndCommitIntraBatchCycle(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "SA-0001", "반제품 B", "semi")

	// 두 행 모두 기존 데이터만 보면 무해하지만 함께 넣으면 사이클이다
	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 1},
		{ParentItemID: "item-b", ChildItemID: "item-a", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", result.SuccessCount)
	}
	row2 := findOutcome(result.ValidationErrors, 2)
	if row2 == nil || !hasRowError(row2.Errors, service.RowErrCycle) {
		t.Errorf("second row should be rejected as cycle against in-batch edge, got %+v", row2)
	}
}

func TestValidateAndCommitDiamondAllowed(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "SA-0001", "반제품 B", "semi")
	testutil.SeedItem(t, db, "item-c", "SA-0002", "반제품 C", "semi")
	testutil.SeedItem(t, db, "item-d", "RM-0001", "원자재 D", "material")

	// 다이아몬드(공유 자식)는 사이클이 아니다
	result, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "item-a", ChildItemID: "item-b", QuantityRequired: 1},
		{ParentItemID: "item-a", ChildItemID: "item-c", QuantityRequired: 1},
		{ParentItemID: "item-b", ChildItemID: "item-d", QuantityRequired: 1},
		{ParentItemID: "item-c", ChildItemID: "item-d", QuantityRequired: 1},
	})
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	if result.SuccessCount != 4 {
		t.Errorf("SuccessCount = %d, want 4: %+v", result.SuccessCount, result.ValidationErrors)
	}
}

func TestValidateAndCommitDepthGuard(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{MaxDepth: 4})

	// MaxDepth보다 깊은 체인을 직접 심어 순회 한도를 건드린다
	const chainLen = 8
	for i := 0; i <= chainLen; i++ {
		testutil.SeedItem(t, db, fmt.Sprintf("chain-%d", i), fmt.Sprintf("CH-%04d", i), fmt.Sprintf("체인 %d", i), "material")
	}
	for i := 0; i < chainLen; i++ {
		testutil.SeedEdge(t, db, fmt.Sprintf("chain-edge-%d", i), fmt.Sprintf("chain-%d", i), fmt.Sprintf("chain-%d", i+1), 1)
	}

	// chain-0의 자손 전체를 걸어야 하는 사이클 검증이 깊이 한도에 걸린다
	_, err := svc.ValidateAndCommit(context.Background(), "tester", []service.CandidateEdge{
		{ParentItemID: "chain-8", ChildItemID: "chain-0", QuantityRequired: 1},
	})
	if !errors.Is(err, service.ErrTraversalLimit) {
		t.Errorf("error = %v, want ErrTraversalLimit", err)
	}
}

func TestWouldCreateCyclePrecheck(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	testutil.SeedItem(t, db, "item-a", "FG-0001", "완제품 A", "product")
	testutil.SeedItem(t, db, "item-b", "SA-0001", "반제품 B", "semi")
	testutil.SeedItem(t, db, "item-c", "RM-0001", "원자재 C", "material")
	testutil.SeedEdge(t, db, "edge-1", "item-a", "item-b", 1)

	cyc, err := svc.WouldCreateCycle(context.Background(), "item-b", "item-a")
	if err != nil {
		t.Fatalf("WouldCreateCycle failed: %v", err)
	}
	if !cyc {
		t.Error("b→a should create a cycle")
	}

	cyc, err = svc.WouldCreateCycle(context.Background(), "item-b", "item-c")
	if err != nil {
		t.Fatalf("WouldCreateCycle failed: %v", err)
	}
	if cyc {
		t.Error("b→c should not create a cycle")
	}
}

func TestDeactivateEdgeNotFound(t *testing.T) {
	svc, _ := newTestBOMService(t, config.BOMConfig{})

	err := svc.DeactivateEdge(context.Background(), "no-such-edge")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// 무작위 DAG를 만들어 커밋한 뒤, 기존 경로의 역방향 간선이 항상
// 거부되는지 확인한다. 활성 그래프는 어떤 입력 순서에서도 비순환을
// 유지해야 한다.
func TestValidateAndCommitKeepsGraphAcyclic(t *testing.T) {
	svc, db := newTestBOMService(t, config.BOMConfig{})
	rng := rand.New(rand.NewSource(42))

	const n = 15
	for i := 0; i < n; i++ {
		testutil.SeedItem(t, db, fmt.Sprintf("node-%02d", i), fmt.Sprintf("ND-%04d", i), fmt.Sprintf("노드 %02d", i), "material")
	}

	// 인덱스 오름차순 간선만 생성하면 DAG가 보장된다
	var candidates []service.CandidateEdge
	seen := make(map[[2]int]bool)
	for len(candidates) < 25 {
		i, j := rng.Intn(n), rng.Intn(n)
		if i >= j || seen[[2]int{i, j}] {
			continue
		}
		seen[[2]int{i, j}] = true
		candidates = append(candidates, service.CandidateEdge{
			ParentItemID:     fmt.Sprintf("node-%02d", i),
			ChildItemID:      fmt.Sprintf("node-%02d", j),
			QuantityRequired: float64(rng.Intn(5) + 1),
		})
	}

	result, err := svc.ValidateAndCommit(context.Background(), "tester", candidates)
	if err != nil {
		t.Fatalf("ValidateAndCommit failed: %v", err)
	}
	if result.FailCount != 0 {
		t.Fatalf("DAG batch should fully commit, got %d failures: %+v", result.FailCount, result.ValidationErrors)
	}

	// 커밋된 각 간선의 역방향은 모두 사이클로 거부되어야 한다
	for _, edge := range result.Inserted {
		cyc, err := svc.WouldCreateCycle(context.Background(), edge.ChildItemID, edge.ParentItemID)
		if err != nil {
			t.Fatalf("WouldCreateCycle failed: %v", err)
		}
		if !cyc {
			t.Errorf("reverse of committed edge %s→%s should be a cycle", edge.ChildItemID, edge.ParentItemID)
		}
	}
}
