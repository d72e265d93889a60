package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v3"

	"github.com/bellebook/catalog/internal/domain"
)

// AvailableColumns returns the list of available columns for export
func (s *Catalog) AvailableColumns() []string {
	return []string{
		"id",
		"owner_id",
		"title",
		"description",
		"category",
		"subcategory",
		"price",
		"location",
		"is_mobile",
		"is_active",
		"rating",
		"review_count",
	}
}

// ExportCSV exports the snapshot to CSV format
func (s *Catalog) ExportCSV(ctx context.Context, w io.Writer, columns []string) error {
	if len(columns) == 0 {
		columns = s.AvailableColumns()
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	return s.repo.Stream(ctx, func(svc *domain.Service) error {
		return csvWriter.Write(s.serviceToRow(svc, columns))
	})
}

// ExportJSON exports the snapshot to JSON format
func (s *Catalog) ExportJSON(ctx context.Context, w io.Writer) error {
	if _, err := w.Write([]byte("[\n")); err != nil {
		return err
	}

	first := true
	err := s.repo.Stream(ctx, func(svc *domain.Service) error {
		if !first {
			if _, err := w.Write([]byte(",\n")); err != nil {
				return err
			}
		}
		first = false

		data, err := json.MarshalIndent(svc, "", "  ")
		if err != nil {
			return err
		}

		_, err = w.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	_, err = w.Write([]byte("\n]"))
	return err
}

// ExportXLSX exports the snapshot to XLSX format
func (s *Catalog) ExportXLSX(ctx context.Context, w io.Writer, columns []string) error {
	if len(columns) == 0 {
		columns = s.AvailableColumns()
	}

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Services")
	if err != nil {
		return fmt.Errorf("create xlsx sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, col := range columns {
		headerRow.AddCell().SetString(col)
	}

	err = s.repo.Stream(ctx, func(svc *domain.Service) error {
		row := sheet.AddRow()
		for _, val := range s.serviceToRow(svc, columns) {
			row.AddCell().SetString(val)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return wb.Write(w)
}

// serviceToRow converts a service to a row based on selected columns
func (s *Catalog) serviceToRow(svc *domain.Service, columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = s.getColumnValue(svc, col)
	}
	return row
}

// getColumnValue extracts a column value from a service
func (s *Catalog) getColumnValue(svc *domain.Service, column string) string {
	switch column {
	case "id":
		return fmt.Sprintf("%d", svc.ID)
	case "owner_id":
		return svc.OwnerID.String()
	case "title":
		return svc.Title
	case "description":
		return svc.Description
	case "category":
		return svc.Category
	case "subcategory":
		return svc.Subcategory
	case "price":
		if svc.Price.Valid {
			return fmt.Sprintf("%.2f", svc.Price.Val)
		}
	case "location":
		return svc.Location
	case "is_mobile":
		return fmt.Sprintf("%t", svc.IsMobile)
	case "is_active":
		return fmt.Sprintf("%t", svc.IsActive)
	case "rating":
		if svc.Rating > 0 {
			return fmt.Sprintf("%.1f", svc.Rating)
		}
	case "review_count":
		return fmt.Sprintf("%d", svc.ReviewCount)
	}
	return ""
}
