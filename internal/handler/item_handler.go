package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/service"
)

// ItemHandler 품목 핸들러
type ItemHandler struct {
	svc *service.ItemService
}

// NewItemHandler 품목 핸들러 생성
func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// List 품목 목록 조회
func (h *ItemHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := make(map[string]interface{})
	if keyword := c.Query("keyword"); keyword != "" {
		filters["keyword"] = keyword
	}
	if itemType := c.Query("item_type"); itemType != "" {
		filters["item_type"] = itemType
	}
	if isActive := c.Query("is_active"); isActive != "" {
		filters["is_active"] = isActive == "true"
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get 품목 단건 조회
func (h *ItemHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, item)
}

// Create 품목 등록
func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := GetUserID(c)
	item, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, item)
}

// Update 품목 수정
func (h *ItemHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, item)
}

// Delete 품목 삭제
func (h *ItemHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// AddPrice 품목 단가 등록
func (h *ItemHandler) AddPrice(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	var req service.AddPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := GetUserID(c)
	price, err := h.svc.AddPrice(c.Request.Context(), itemID, userID, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, price)
}

// ListPrices 품목 단가 이력 조회
func (h *ItemHandler) ListPrices(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	prices, err := h.svc.ListPrices(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"prices": prices, "total": len(prices)})
}
