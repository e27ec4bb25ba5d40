package models

import "math"

// Response is the envelope every API endpoint answers with.
type Response struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Title   string      `json:"title,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data"`
}

func SuccessResponse(status int, data interface{}, message string) Response {
	return Response{
		Status:  status,
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(status int, err string) Response {
	return Response{
		Status:  status,
		Success: false,
		Message: err,
		Error:   err,
	}
}

type PageRequest struct {
	PageNum  int `json:"pageNum"`
	PageSize int `json:"pageSize"`
}

// Normalize clamps the paging values to a usable window.
func (p PageRequest) Normalize() PageRequest {
	if p.PageNum < 1 {
		p.PageNum = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.PageNum - 1) * p.PageSize
}

type PageInfo struct {
	PageNum    int   `json:"pageNum"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func NewPageInfo(req PageRequest, total int64) PageInfo {
	req = req.Normalize()
	return PageInfo{
		PageNum:    req.PageNum,
		PageSize:   req.PageSize,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(req.PageSize))),
	}
}

type Page[T any] struct {
	PageData []T      `json:"pageData"`
	PageInfo PageInfo `json:"pageInfo"`
}

type SearchRequest[C any] struct {
	SearchCondition C           `json:"searchCondition"`
	PageInfo        PageRequest `json:"pageInfo"`
}
