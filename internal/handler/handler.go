package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/config"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/service"
)

// Handlers 핸들러 집합
type Handlers struct {
	Item *ItemHandler
	BOM  *BOMHandler
}

// NewHandlers 핸들러 집합 생성
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Item: NewItemHandler(svc.Item),
		BOM:  NewBOMHandler(svc.BOM),
	}
}

// Response 공통 응답 구조
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 목록 응답 구조
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 페이지 정보
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 성공 응답
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 생성 성공 응답
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 오류 응답
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 요청 형식 오류 응답
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 인증 실패 응답
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// NotFound 리소스 없음 응답
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Unprocessable 의미상 처리 불가 응답
func Unprocessable(c *gin.Context, data interface{}, message string) {
	c.JSON(422, Response{
		Code:    42200,
		Message: message,
		Data:    data,
	})
}

// BadGateway 백엔드 저장소 일시 장애 응답
func BadGateway(c *gin.Context, message string) {
	Error(c, 50200, message)
}

// InternalError 서버 오류 응답
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 컨텍스트에서 사용자 ID 조회
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 요청에서 페이지 파라미터 조회
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
