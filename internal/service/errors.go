package service

import (
	"errors"
)

// 배치/순회 상위 수준 에러.
// 행 단위 검증 실패는 에러로 던지지 않고 BatchResult에 수집한다.
var (
	ErrEmptyBatch     = errors.New("batch contains no candidate edges")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")
	ErrTraversalLimit = errors.New("traversal limit exceeded")
)

// RowErrorCode 행 단위 거부 사유 코드
type RowErrorCode string

const (
	RowErrMissingParent    RowErrorCode = "missing_parent_item"
	RowErrMissingChild     RowErrorCode = "missing_child_item"
	RowErrInvalidQuantity  RowErrorCode = "invalid_quantity"
	RowErrSelfReference    RowErrorCode = "self_reference"
	RowErrItemNotFound     RowErrorCode = "item_not_found"
	RowErrItemInactive     RowErrorCode = "item_inactive"
	RowErrDuplicateInBatch RowErrorCode = "duplicate_in_batch"
	RowErrDuplicateEdge    RowErrorCode = "duplicate_edge"
	RowErrCycle            RowErrorCode = "circular_reference"
)

// RowError 행 단위 거부 사유. 메시지는 호출자가 그대로 노출할 수 있게
// 구체적으로 작성한다 ("invalid input" 류의 범용 메시지 금지).
type RowError struct {
	Code    RowErrorCode `json:"code"`
	Field   string       `json:"field,omitempty"`
	Message string       `json:"message"`
}
