package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ==================== Excel 일괄 등록 ====================

var bomImportHeaders = []string{
	"부모 품목코드", "자식 품목코드", "소요량", "레벨", "비고",
}

// ParsedEdgeRow 업로드 파일에서 해석한 후보 행 (미리보기용)
type ParsedEdgeRow struct {
	RowNumber    int     `json:"row_number"`
	ParentCode   string  `json:"parent_code"`
	ChildCode    string  `json:"child_code"`
	ParentItemID string  `json:"parent_item_id,omitempty"`
	ChildItemID  string  `json:"child_item_id,omitempty"`
	Quantity     float64 `json:"quantity"`
	LevelNo      int     `json:"level_no"`
	Notes        string  `json:"notes"`
}

// ParseWorkbook 업로드된 xlsx를 후보 행으로 해석한다 (저장하지 않음).
// 품목 코드는 단일 쿼리로 일괄 매칭하며, 매칭 실패 행도 그대로 반환해
// 이후 검증 단계가 완전한 보고서를 만들 수 있게 한다.
func (s *BOMService) ParseWorkbook(ctx context.Context, f *excelize.File) ([]ParsedEdgeRow, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	var parsed []ParsedEdgeRow
	if len(rows) < 2 {
		return parsed, nil
	}

	codeSet := make(map[string]struct{})
	for _, row := range rows[1:] { // 머리글 행 제외
		if len(row) > 0 && row[0] != "" {
			codeSet[strings.TrimSpace(row[0])] = struct{}{}
		}
		if len(row) > 1 && row[1] != "" {
			codeSet[strings.TrimSpace(row[1])] = struct{}{}
		}
	}
	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	resolved, err := s.itemRepo.ResolveByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("resolve item codes: %w", err)
	}

	for i, row := range rows[1:] {
		if len(row) < 2 || (row[0] == "" && row[1] == "") {
			continue
		}

		r := ParsedEdgeRow{
			RowNumber:  i + 2, // 시트상의 실제 행 번호
			ParentCode: strings.TrimSpace(row[0]),
			ChildCode:  strings.TrimSpace(row[1]),
			Quantity:   1,
			LevelNo:    1,
		}
		if len(row) > 2 {
			if q, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64); err == nil {
				r.Quantity = q
			}
		}
		if len(row) > 3 {
			if lv, err := strconv.Atoi(strings.TrimSpace(row[3])); err == nil {
				r.LevelNo = lv
			}
		}
		if len(row) > 4 {
			r.Notes = row[4]
		}

		if item, ok := resolved[r.ParentCode]; ok {
			r.ParentItemID = item.ID
		}
		if item, ok := resolved[r.ChildCode]; ok {
			r.ChildItemID = item.ID
		}

		parsed = append(parsed, r)
	}

	return parsed, nil
}

// ImportWorkbook xlsx 해석 후 배치 검증/커밋까지 수행한다.
// 코드 매칭에 실패한 행도 후보로 내려보내 행별 보고서에 사유가 남게 한다.
func (s *BOMService) ImportWorkbook(ctx context.Context, userID string, f *excelize.File) (*BatchResult, error) {
	parsed, err := s.ParseWorkbook(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyBatch
	}

	candidates := make([]CandidateEdge, len(parsed))
	for i, r := range parsed {
		candidates[i] = CandidateEdge{
			ParentItemID:     r.ParentItemID,
			ChildItemID:      r.ChildItemID,
			QuantityRequired: r.Quantity,
			LevelNo:          r.LevelNo,
			Notes:            r.Notes,
		}
	}

	return s.ValidateAndCommit(ctx, userID, candidates)
}

// GenerateTemplate 일괄 등록용 xlsx 템플릿 생성
func (s *BOMService) GenerateTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "BOM등록"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range bomImportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	colWidths := []float64{18, 18, 10, 8, 24}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	// 작성 안내 시트
	helpSheet := "작성안내"
	f.NewSheet(helpSheet)
	helpData := [][]string{
		{"열", "설명", "필수"},
		{"부모 품목코드", "상위 품목의 품목코드", "예"},
		{"자식 품목코드", "구성 품목의 품목코드", "예"},
		{"소요량", "부모 1단위당 소요 수량 (0보다 커야 함), 기본 1", "예"},
		{"레벨", "표시용 깊이 힌트, 기본 1", "아니오"},
		{"비고", "비고", "아니오"},
	}
	for i, row := range helpData {
		for j, val := range row {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(helpSheet, fmt.Sprintf("%s%d", col, i+1), val)
		}
	}
	f.SetColWidth(helpSheet, "A", "A", 16)
	f.SetColWidth(helpSheet, "B", "B", 44)
	f.SetColWidth(helpSheet, "C", "C", 8)

	// 예시 행
	sampleData := []string{"FG-0001", "RM-0001", "2", "1", ""}
	for j, val := range sampleData {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s2", col), val)
	}

	return f, nil
}
