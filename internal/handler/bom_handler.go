package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/service"
	"github.com/xuri/excelize/v2"
)

// BOMHandler BOM 핸들러
type BOMHandler struct {
	svc *service.BOMService
}

// NewBOMHandler BOM 핸들러 생성
func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// SubmitBatchRequest 엣지 일괄 등록 요청
type SubmitBatchRequest struct {
	Edges []service.CandidateEdge `json:"edges" binding:"required"`
}

// SubmitBatch 엣지 일괄 검증/등록
func (h *BOMHandler) SubmitBatch(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := GetUserID(c)
	result, err := h.svc.ValidateAndCommit(c.Request.Context(), userID, req.Edges)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	// 전량 실패는 보고서를 본문에 담아 422로 응답
	if result.SuccessCount == 0 && result.FailCount > 0 {
		Unprocessable(c, result, "all rows failed validation")
		return
	}

	Success(c, result)
}

// DeactivateEdge 엣지 비활성화 (논리 삭제)
func (h *BOMHandler) DeactivateEdge(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Edge ID is required")
		return
	}

	if err := h.svc.DeactivateEdge(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	Success(c, nil)
}

// Tree 품목 기준 BOM 전개 (원가 없이 구조만)
func (h *BOMHandler) Tree(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	tree, err := h.svc.GetTree(c.Request.Context(), itemID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	Success(c, tree)
}

// Cost 재귀 원가 집계
func (h *BOMHandler) Cost(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	var asOf time.Time
	if s := c.Query("as_of"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			BadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = t
	}
	includeLabor := c.DefaultQuery("include_labor", "true") != "false"
	includeOverhead := c.DefaultQuery("include_overhead", "true") != "false"

	result, err := h.svc.CalculateCost(c.Request.Context(), itemID, asOf, includeLabor, includeOverhead)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	Success(c, result)
}

// WhereUsed 역전개 (어떤 상위 품목들이 이 품목을 쓰는가)
func (h *BOMHandler) WhereUsed(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	result, err := h.svc.FindAncestors(c.Request.Context(), itemID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	Success(c, result)
}

// Import xlsx 업로드로 엣지 일괄 등록
func (h *BOMHandler) Import(c *gin.Context) {
	f, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()

	userID := GetUserID(c)
	result, err := h.svc.ImportWorkbook(c.Request.Context(), userID, f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if result.SuccessCount == 0 && result.FailCount > 0 {
		Unprocessable(c, result, "all rows failed validation")
		return
	}

	Success(c, result)
}

// ImportPreview xlsx 해석 결과 미리보기 (저장하지 않음)
func (h *BOMHandler) ImportPreview(c *gin.Context) {
	f, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()

	rows, err := h.svc.ParseWorkbook(c.Request.Context(), f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	Success(c, gin.H{"rows": rows, "total": len(rows)})
}

// Template 일괄 등록 템플릿 다운로드
func (h *BOMHandler) Template(c *gin.Context) {
	f, err := h.svc.GenerateTemplate()
	if err != nil {
		InternalError(c, "Failed to generate template: "+err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="bom_import_template.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "Failed to write template: "+err.Error())
	}
}

func (h *BOMHandler) openUpload(c *gin.Context) (*excelize.File, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required")
		return nil, false
	}

	src, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "Failed to open file: "+err.Error())
		return nil, false
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		BadRequest(c, "Invalid excel file: "+err.Error())
		return nil, false
	}

	return f, true
}

// writeServiceError 서비스 오류를 상태 코드로 매핑
func (h *BOMHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyBatch):
		BadRequest(c, "Batch must contain at least one edge")
	case errors.Is(err, service.ErrBatchTooLarge):
		BadRequest(c, fmt.Sprintf("Batch exceeds maximum size: %v", err))
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Record not found")
	case errors.Is(err, service.ErrTraversalLimit):
		Unprocessable(c, nil, "traversal limit exceeded: "+err.Error())
	default:
		BadGateway(c, "Store operation failed: "+err.Error())
	}
}
