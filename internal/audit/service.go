// Package audit reads back the audit trail written by the domain services.
package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	maxExportRows   = 10000
)

// Repository reads audit_logs. Limit bounds the rows returned.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error)
}

// Service mengoordinasikan pengambilan data audit.
type Service struct {
	repo Repository
}

// NewService membuat service audit timeline baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil data audit dengan paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Timeline(ctx, filters, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	decorate(rows)
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	rows, err := s.repo.Timeline(ctx, filters, 0, maxExportRows)
	if err != nil {
		return nil, err
	}
	decorate(rows)
	return rows, nil
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"waktu", "aktor", "aksi", "entitas", "id_entitas", "meta"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			row.Actor,
			row.Action,
			row.Entity,
			row.EntityID,
			string(row.Meta),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decorate(rows []TimelineRow) {
	for i := range rows {
		rows[i].AtLabel = format.Date(rows[i].At)
		if rows[i].Actor == "" {
			if rows[i].ActorID != 0 {
				rows[i].Actor = "user#" + strconv.FormatInt(rows[i].ActorID, 10)
			} else {
				rows[i].Actor = "sistem"
			}
		}
	}
}
