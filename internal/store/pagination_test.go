package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"zero values get defaults", PageRequest{}, PageRequest{Page: 1, PageSize: defaultPageSize}},
		{"negative page clamped", PageRequest{Page: -3, PageSize: 10}, PageRequest{Page: 1, PageSize: 10}},
		{"oversized page size clamped", PageRequest{Page: 2, PageSize: 5000}, PageRequest{Page: 2, PageSize: maxPageSize}},
		{"valid request untouched", PageRequest{Page: 4, PageSize: 25}, PageRequest{Page: 4, PageSize: 25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, PageSize: 20}.Offset())
}

func TestNewOffsetPage(t *testing.T) {
	p := PageRequest{Page: 2, PageSize: 10}

	page := NewOffsetPage([]int{1, 2, 3}, 23, p)
	assert.Equal(t, int64(23), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)

	exact := NewOffsetPage([]int{}, 20, p)
	assert.Equal(t, 2, exact.TotalPages)
}
