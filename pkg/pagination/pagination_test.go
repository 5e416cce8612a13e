// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/sprinto/pkg/pagination"
)

/*
TestFromRequest verifies query parsing and clamping.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		defaultLimit int
		want         pagination.Params
		wantOffset   int
	}{
		{name: "empty", query: "", defaultLimit: 50, want: pagination.Params{Page: 1, Limit: 50}, wantOffset: 0},
		{name: "explicit", query: "page=3&limit=10", defaultLimit: 50, want: pagination.Params{Page: 3, Limit: 10}, wantOffset: 20},
		{name: "negative_page", query: "page=-2", defaultLimit: 50, want: pagination.Params{Page: 1, Limit: 50}, wantOffset: 0},
		{name: "limit_over_max", query: "limit=1000", defaultLimit: 50, want: pagination.Params{Page: 1, Limit: 50}, wantOffset: 0},
		{name: "garbage", query: "page=x&limit=y", defaultLimit: 0, want: pagination.Params{Page: 1, Limit: pagination.DefaultLimit}, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.FromRequest(httptest.NewRequest("GET", "/?"+tt.query, nil), tt.defaultLimit)
			assert.Equal(t, tt.want, params)
			assert.Equal(t, tt.wantOffset, params.Offset())
		})
	}
}

/*
TestNewMeta verifies the page count rounds up.
*/
func TestNewMeta(t *testing.T) {
	assert.Equal(t, 3, pagination.NewMeta(pagination.Params{Page: 1, Limit: 50}, 101).Pages)
	assert.Equal(t, 0, pagination.NewMeta(pagination.Params{Page: 1, Limit: 50}, 0).Pages)
	assert.Equal(t, 0, pagination.NewMeta(pagination.Params{Page: 1}, 10).Pages)
}
