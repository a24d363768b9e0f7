package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	Name string
}

func TestFilterPageSearchIsCaseInsensitive(t *testing.T) {
	rows := []row{{"Outlet Kemang"}, {"outlet depok"}, {"Gudang Pusat"}}
	got, meta := FilterPage(rows, TableQuery{Search: "OUTLET"}, func(r row) string { return r.Name })
	require.Len(t, got, 2)
	require.Equal(t, 2, meta.Total)
	require.Equal(t, 1, meta.TotalPages)
}

func TestFilterPagePaginates(t *testing.T) {
	rows := make([]row, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, row{Name: "r"})
	}
	got, meta := FilterPage(rows, TableQuery{Page: 3, PerPage: 10}, func(r row) string { return r.Name })
	require.Len(t, got, 5)
	require.Equal(t, Pagination{Page: 3, PerPage: 10, Total: 25, TotalPages: 3}, meta)

	got, _ = FilterPage(rows, TableQuery{Page: 9, PerPage: 10}, func(r row) string { return r.Name })
	require.Empty(t, got)
}

func TestFilterPageHugePageIsEmpty(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?page=9223372036854775807&per_page=20", nil)
	got, meta := FilterPage([]row{{"a"}, {"b"}}, TableQueryFromRequest(req), func(r row) string { return r.Name })
	require.Empty(t, got)
	require.Equal(t, 2, meta.Total)
	require.GreaterOrEqual(t, meta.Offset(), 0)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 41)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPerPage, p.PerPage)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, MaxPerPage, NewPagination(1, 10000, 1).PerPage)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Mitra ")
	require.True(t, ok)
	require.Equal(t, RoleMitra, r)
	require.Equal(t, "/mitra/dashboard", r.HomePath())
	_, ok = ParseRole("owner")
	require.False(t, ok)
}

func TestTableQueryFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?q=+kemang+&page=2&per_page=50", nil)
	q := TableQueryFromRequest(req)
	require.Equal(t, TableQuery{Search: "kemang", Page: 2, PerPage: 50}, q)

	q = TableQueryFromRequest(httptest.NewRequest("GET", "/x?page=abc", nil))
	require.Equal(t, TableQuery{}, q)
}
