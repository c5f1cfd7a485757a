package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv or xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat normalizes a raw format string; an empty value defaults to csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw)
	}
}

// pageSize bounds each repository read while streaming the full result set.
const pageSize = 500

// Service renders a tenant's assets as a downloadable file. Exports run
// synchronously inside the request.
type Service struct {
	assetRepo    repository.AssetRepository
	categoryRepo repository.CategoryRepository
}

// NewService creates a new export service.
func NewService(assetRepo repository.AssetRepository, categoryRepo repository.CategoryRepository) *Service {
	return &Service{assetRepo: assetRepo, categoryRepo: categoryRepo}
}

// Request scopes an export. When CategoryID is set the category's custom
// field columns are appended after the built-in columns.
type Request struct {
	TenantID   uuid.UUID
	CategoryID *uuid.UUID
	Filter     *domain.AssetFilter
	Format     Format
}

// File is a rendered export ready to stream to the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

var builtInHeaders = []string{
	"Name",
	"Serial Number",
	"Asset Tag",
	"Category",
	"Status",
	"Condition",
	"Location",
	"Purchase Price",
	"Purchase Date",
	"Warranty End",
	"Notes",
	"Created At",
}

// ExportAssets collects every matching asset and renders it in the requested
// format.
func (s *Service) ExportAssets(ctx context.Context, req Request) (File, error) {
	if req.TenantID == uuid.Nil {
		return File{}, errors.New("tenant id is required")
	}

	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return File{}, err
	}

	categories, err := s.categoryRepo.List(ctx, req.TenantID)
	if err != nil {
		return File{}, fmt.Errorf("failed to list categories: %w", err)
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, category := range categories {
		categoryNames[category.ID] = category.Name
	}

	filter := req.Filter
	var customFields []domain.FieldDefinition
	scopeName := "assets"
	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, req.TenantID, *req.CategoryID)
		if err != nil {
			return File{}, err
		}
		customFields = category.FieldSchema
		scopeName = category.Name
		if filter == nil {
			filter = &domain.AssetFilter{}
		}
		filter.CategoryID = req.CategoryID
	}

	headers := append([]string(nil), builtInHeaders...)
	for _, field := range customFields {
		headers = append(headers, field.Label)
	}

	sort := &domain.AssetSort{Field: domain.AssetSortFieldName, Direction: domain.SortDirectionAsc}

	var rows [][]string
	offset := 0
	for {
		assets, _, err := s.assetRepo.List(ctx, req.TenantID, filter, sort, pageSize, offset)
		if err != nil {
			return File{}, fmt.Errorf("failed to list assets: %w", err)
		}
		for _, asset := range assets {
			rows = append(rows, assetRow(asset, categoryNames, customFields))
		}
		if len(assets) < pageSize {
			break
		}
		offset += pageSize
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	fileName := fmt.Sprintf("%s-export-%s.%s", slugify(scopeName), stamp, format)

	switch format {
	case FormatXLSX:
		data, err := renderXLSX(headers, rows)
		if err != nil {
			return File{}, err
		}
		return File{
			Name:        fileName,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := renderCSV(headers, rows)
		if err != nil {
			return File{}, err
		}
		return File{Name: fileName, ContentType: "text/csv", Data: data}, nil
	}
}

func assetRow(asset domain.Asset, categoryNames map[uuid.UUID]string, customFields []domain.FieldDefinition) []string {
	row := []string{
		asset.Name,
		stringOrEmpty(asset.SerialNumber),
		stringOrEmpty(asset.AssetTag),
		categoryNames[asset.CategoryID],
		string(asset.Status),
		string(asset.Condition),
		stringOrEmpty(asset.Location),
		priceOrEmpty(asset.PurchasePrice),
		dateOrEmpty(asset.PurchaseDate),
		dateOrEmpty(asset.WarrantyEnd),
		stringOrEmpty(asset.Notes),
		asset.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, field := range customFields {
		row = append(row, formatCustomValue(asset.CustomFields[field.Key]))
	}
	return row
}

func formatCustomValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Assets"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerCells := make([]any, len(headers))
	for i, header := range headers {
		headerCells[i] = header
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for idx, row := range rows {
		cells := make([]any, len(row))
		for i, value := range row {
			cells[i] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", idx+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func priceOrEmpty(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}

func dateOrEmpty(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func slugify(value string) string {
	var b []rune
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
			b = append(b, r+('a'-'A'))
			lastDash = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b = append(b, r)
			lastDash = false
		default:
			if !lastDash && len(b) > 0 {
				b = append(b, '-')
				lastDash = true
			}
		}
	}
	for len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "assets"
	}
	return string(b)
}
