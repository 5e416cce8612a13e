// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination turns "page" and "limit" query parameters into SQL
// windows and reports the resulting page count back to the client.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit applies when the caller does not choose its own default.
	DefaultLimit = 20
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip before the page starts.
func (params Params) Offset() int {
	return (max(params.Page, 1) - 1) * params.Limit
}

// Meta is the "pagination" block of a list envelope.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewMeta derives the page count for total rows split by params.
func NewMeta(params Params, total int) Meta {
	meta := Meta{Page: params.Page, Limit: params.Limit, Total: total}
	if params.Limit > 0 {
		meta.Pages = (total + params.Limit - 1) / params.Limit
	}
	return meta
}

// FromRequest reads the page window from the query string.
//
// A missing, malformed or non-positive page becomes 1. A limit outside
// 1..[MaxLimit] falls back to defaultLimit, or [DefaultLimit] when that is zero.
func FromRequest(request *http.Request, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	query := request.URL.Query()
	params := Params{Page: 1, Limit: defaultLimit}

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 && limit <= MaxLimit {
		params.Limit = limit
	}
	return params
}
