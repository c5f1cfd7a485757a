package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
	"github.com/assetwise/assetwise/pkg/validator"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// MaxRows caps the number of data rows accepted per validate or execute call.
const MaxRows = 1000

// invalidPreviewLimit caps how many invalid rows are echoed back for preview.
const invalidPreviewLimit = 50

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when the upload contains no bytes.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNoDataRows is returned when the file has a header but no data rows.
	ErrNoDataRows = errors.New("no data rows found in file")
	// ErrTooManyRows is returned when a batch exceeds MaxRows.
	ErrTooManyRows = fmt.Errorf("too many rows: maximum %d rows per import", MaxRows)
	// ErrNoRows is returned when execute is called with an empty row set.
	ErrNoRows = errors.New("at least one row is required")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// RowError reports a row rejected by execute-time re-validation. It is a
// client error, distinct from storage failures.
type RowError struct {
	RowNumber int
	Message   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d failed validation: %s", e.RowNumber, e.Message)
}

// Built-in columns shared by every category. Name is always required; the
// rest are optional. Labels double as CSV headers.
const (
	ColumnName          = "Name"
	ColumnSerialNumber  = "Serial Number"
	ColumnAssetTag      = "Asset Tag"
	ColumnStatus        = "Status"
	ColumnCondition     = "Condition"
	ColumnLocation      = "Location"
	ColumnPurchasePrice = "Purchase Price"
	ColumnPurchaseDate  = "Purchase Date"
	ColumnWarrantyEnd   = "Warranty End"
	ColumnNotes         = "Notes"
)

// BuiltInColumns lists the built-in column labels in template order.
func BuiltInColumns() []string {
	return []string{
		ColumnName,
		ColumnSerialNumber,
		ColumnAssetTag,
		ColumnStatus,
		ColumnCondition,
		ColumnLocation,
		ColumnPurchasePrice,
		ColumnPurchaseDate,
		ColumnWarrantyEnd,
		ColumnNotes,
	}
}

// Service runs the three-step bulk import pipeline: template, validate,
// execute. Steps are stateless; the client re-sends rows between them.
type Service struct {
	categoryRepo repository.CategoryRepository
	assetRepo    repository.AssetRepository
	activityRepo repository.ActivityLogRepository
	logRepo      repository.ImportLogRepository
}

// NewService creates a new import service.
func NewService(
	categoryRepo repository.CategoryRepository,
	assetRepo repository.AssetRepository,
	activityRepo repository.ActivityLogRepository,
	logRepo repository.ImportLogRepository,
) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		assetRepo:    assetRepo,
		activityRepo: activityRepo,
		logRepo:      logRepo,
	}
}

// Row maps a column label to its raw cell value.
type Row map[string]string

// ValidateRequest describes the validation input.
type ValidateRequest struct {
	TenantID   uuid.UUID
	CategoryID uuid.UUID
	FileName   string
	Data       io.Reader
}

// ValidRow is a row that passed every check, keyed by column label.
type ValidRow struct {
	RowNumber int `json:"rowNumber"`
	Data      Row `json:"data"`
}

// InvalidRow carries the collected error messages for one rejected row.
type InvalidRow struct {
	RowNumber int      `json:"rowNumber"`
	Data      Row      `json:"data"`
	Errors    []string `json:"errors"`
}

// ValidationReport partitions the parsed rows into valid and invalid sets.
type ValidationReport struct {
	TotalRows    int          `json:"totalRows"`
	ValidCount   int          `json:"validCount"`
	InvalidCount int          `json:"invalidCount"`
	ValidRows    []ValidRow   `json:"validRows"`
	InvalidRows  []InvalidRow `json:"invalidRows"`
	CategoryID   uuid.UUID    `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
}

// ExecuteRequest describes the batch creation input. Rows use column labels
// as keys, exactly as returned by Validate.
type ExecuteRequest struct {
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	CategoryID uuid.UUID
	FileName   string
	Rows       []Row
}

// ExecuteResult reports how many assets a batch created.
type ExecuteResult struct {
	Created      int    `json:"created"`
	CategoryName string `json:"categoryName"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Validate parses the upload and checks every row against the category's
// schema, collecting all errors per row rather than short-circuiting.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (ValidationReport, error) {
	report := ValidationReport{
		ValidRows:   []ValidRow{},
		InvalidRows: []InvalidRow{},
	}

	if req.TenantID == uuid.Nil {
		return report, errors.New("tenant id is required")
	}
	if req.CategoryID == uuid.Nil {
		return report, errors.New("category id is required")
	}
	if req.Data == nil {
		return report, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return report, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return report, ErrEmptyFile
	}

	category, err := s.categoryRepo.GetByID(ctx, req.TenantID, req.CategoryID)
	if err != nil {
		return report, err
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return report, err
	}
	if len(table.rows) == 0 {
		return report, ErrNoDataRows
	}
	if len(table.rows) > MaxRows {
		return report, ErrTooManyRows
	}

	report.TotalRows = len(table.rows)
	report.CategoryID = category.ID
	report.CategoryName = category.Name

	for rowIdx, cells := range table.rows {
		rowNumber := rowIdx + 1 // 1-based data row position, header excluded
		row := make(Row, len(table.headers))
		for colIdx, header := range table.headers {
			if colIdx < len(cells) {
				row[header] = strings.TrimSpace(cells[colIdx])
			} else {
				row[header] = ""
			}
		}

		rowErrors := validateRow(row, category)
		if len(rowErrors) == 0 {
			report.ValidCount++
			report.ValidRows = append(report.ValidRows, ValidRow{RowNumber: rowNumber, Data: row})
			continue
		}

		report.InvalidCount++
		if len(report.InvalidRows) < invalidPreviewLimit {
			report.InvalidRows = append(report.InvalidRows, InvalidRow{
				RowNumber: rowNumber,
				Data:      row,
				Errors:    rowErrors,
			})
		}
		s.logRowError(ctx, req.TenantID, category.ID, req.FileName, rowNumber, strings.Join(rowErrors, "; "))
	}

	return report, nil
}

// Execute re-resolves the category schema, re-validates the submitted rows,
// and inserts them as assets in one batch, then writes a single audit entry.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	result := ExecuteResult{}

	if req.TenantID == uuid.Nil {
		return result, errors.New("tenant id is required")
	}
	if req.ActorID == uuid.Nil {
		return result, errors.New("actor id is required")
	}
	if req.CategoryID == uuid.Nil {
		return result, errors.New("category id is required")
	}
	if len(req.Rows) == 0 {
		return result, ErrNoRows
	}
	if len(req.Rows) > MaxRows {
		return result, ErrTooManyRows
	}

	category, err := s.categoryRepo.GetByID(ctx, req.TenantID, req.CategoryID)
	if err != nil {
		return result, err
	}
	result.CategoryName = category.Name

	// The schema comes from the server, never from the client payload.
	assets := make([]domain.Asset, 0, len(req.Rows))
	for rowIdx, row := range req.Rows {
		rowNumber := rowIdx + 1
		if rowErrors := validateRow(row, category); len(rowErrors) > 0 {
			message := strings.Join(rowErrors, "; ")
			s.logRowError(ctx, req.TenantID, category.ID, req.FileName, rowNumber, message)
			return result, &RowError{RowNumber: rowNumber, Message: message}
		}

		asset, err := buildAsset(req.TenantID, category, row)
		if err != nil {
			return result, fmt.Errorf("row %d: %w", rowNumber, err)
		}
		assets = append(assets, asset)
	}

	batch, err := s.assetRepo.CreateBatch(ctx, assets)
	if err != nil {
		return result, fmt.Errorf("failed to create asset batch: %w", err)
	}
	result.Created = len(batch.IDs)

	entry := domain.NewActivityLogEntry(req.TenantID, req.ActorID, domain.ActivityActionBulkImport, batch.IDs, map[string]any{
		"category": category.Name,
		"source":   "bulk_import",
	})
	if _, err := s.activityRepo.Record(ctx, entry); err != nil {
		// Assets are already committed; the missing audit entry is logged but
		// does not fail the import.
		log.Printf("[import] failed to record bulk import activity for category %s: %v", category.ID, err)
	}

	return result, nil
}

// Template renders the header-only CSV for a category: built-in columns
// followed by custom fields in schema order, required ones marked with '*'.
func (s *Service) Template(ctx context.Context, tenantID, categoryID uuid.UUID) (string, []byte, error) {
	category, err := s.categoryRepo.GetByID(ctx, tenantID, categoryID)
	if err != nil {
		return "", nil, err
	}

	headers := make([]string, 0, len(BuiltInColumns())+len(category.FieldSchema))
	for _, label := range BuiltInColumns() {
		if label == ColumnName {
			label += "*"
		}
		headers = append(headers, label)
	}
	for _, field := range category.FieldSchema {
		label := field.Label
		if field.Required {
			label += "*"
		}
		headers = append(headers, label)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return "", nil, fmt.Errorf("failed to write template header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", nil, fmt.Errorf("failed to flush template: %w", err)
	}

	fileName := fmt.Sprintf("%s-import-template.csv", slugify(category.Name))
	return fileName, buf.Bytes(), nil
}

// validateRow applies every check independently and returns the collected
// error messages; an empty slice means the row is valid.
func validateRow(row Row, category domain.Category) []string {
	var rowErrors []string

	if strings.TrimSpace(row[ColumnName]) == "" {
		rowErrors = append(rowErrors, "Name is required")
	}

	if raw := strings.TrimSpace(row[ColumnStatus]); raw != "" {
		if _, ok := domain.ParseAssetStatus(raw); !ok {
			rowErrors = append(rowErrors, fmt.Sprintf("Status must be one of: %s", joinStatuses()))
		}
	}
	if raw := strings.TrimSpace(row[ColumnCondition]); raw != "" {
		if _, ok := domain.ParseAssetCondition(raw); !ok {
			rowErrors = append(rowErrors, fmt.Sprintf("Condition must be one of: %s", joinConditions()))
		}
	}
	if raw := strings.TrimSpace(row[ColumnPurchasePrice]); raw != "" {
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			rowErrors = append(rowErrors, "Purchase Price must be a number")
		}
	}
	if raw := strings.TrimSpace(row[ColumnPurchaseDate]); raw != "" {
		if _, err := validator.ParseDate(raw); err != nil {
			rowErrors = append(rowErrors, "Purchase Date must be a valid date")
		}
	}
	if raw := strings.TrimSpace(row[ColumnWarrantyEnd]); raw != "" {
		if _, err := validator.ParseDate(raw); err != nil {
			rowErrors = append(rowErrors, "Warranty End must be a valid date")
		}
	}

	for _, field := range category.FieldSchema {
		raw := strings.TrimSpace(row[field.Label])
		if raw == "" {
			if field.Required {
				rowErrors = append(rowErrors, fmt.Sprintf("%s is required", field.Label))
			}
			continue
		}

		switch field.Type {
		case domain.FieldTypeNumber:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("%s must be a number", field.Label))
			}
		case domain.FieldTypeDate:
			if _, err := validator.ParseDate(raw); err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("%s must be a valid date", field.Label))
			}
		case domain.FieldTypeBoolean:
			if _, err := parseBool(raw); err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("%s must be a boolean", field.Label))
			}
		case domain.FieldTypeSelect:
			if !containsOption(field.Options, raw) {
				rowErrors = append(rowErrors, fmt.Sprintf("%s must be one of: %s", field.Label, strings.Join(field.Options, ", ")))
			}
		}
	}

	return rowErrors
}

// buildAsset transforms a validated label-keyed row into an asset record,
// translating custom field labels to storage keys and coercing values per
// their declared type.
func buildAsset(tenantID uuid.UUID, category domain.Category, row Row) (domain.Asset, error) {
	asset := domain.NewAsset(tenantID, category.ID, strings.TrimSpace(row[ColumnName]))

	asset.SerialNumber = trimmedOrNil(row[ColumnSerialNumber])
	asset.AssetTag = trimmedOrNil(row[ColumnAssetTag])
	asset.Location = trimmedOrNil(row[ColumnLocation])
	asset.Notes = trimmedOrNil(row[ColumnNotes])

	if status, ok := domain.ParseAssetStatus(row[ColumnStatus]); ok {
		asset.Status = status
	}
	if condition, ok := domain.ParseAssetCondition(row[ColumnCondition]); ok {
		asset.Condition = condition
	}

	if raw := strings.TrimSpace(row[ColumnPurchasePrice]); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Asset{}, fmt.Errorf("unable to coerce %q to a price", raw)
		}
		asset.PurchasePrice = &price
	}
	if raw := strings.TrimSpace(row[ColumnPurchaseDate]); raw != "" {
		date, err := validator.ParseDate(raw)
		if err != nil {
			return domain.Asset{}, fmt.Errorf("unable to coerce %q to a date", raw)
		}
		asset.PurchaseDate = &date
	}
	if raw := strings.TrimSpace(row[ColumnWarrantyEnd]); raw != "" {
		date, err := validator.ParseDate(raw)
		if err != nil {
			return domain.Asset{}, fmt.Errorf("unable to coerce %q to a date", raw)
		}
		asset.WarrantyEnd = &date
	}

	for _, field := range category.FieldSchema {
		raw := strings.TrimSpace(row[field.Label])
		if raw == "" {
			continue
		}
		value, err := coerceFieldValue(field, raw)
		if err != nil {
			return domain.Asset{}, err
		}
		asset.CustomFields[field.Key] = value
	}

	return asset, nil
}

// coerceFieldValue converts a raw cell into the typed value stored in
// customFields: float64 for number, bool for boolean, string otherwise.
func coerceFieldValue(field domain.FieldDefinition, raw string) (any, error) {
	switch field.Type {
	case domain.FieldTypeNumber:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to number for %s", raw, field.Label)
		}
		return value, nil
	case domain.FieldTypeBoolean:
		value, err := parseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to boolean for %s", raw, field.Label)
		}
		return value, nil
	default:
		return raw, nil
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "yes", "y":
		return true, nil
	case "0", "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func trimmedOrNil(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func joinStatuses() string {
	statuses := domain.AssetStatuses()
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

func joinConditions() string {
	conditions := domain.AssetConditions()
	parts := make([]string, len(conditions))
	for i, condition := range conditions {
		parts[i] = string(condition)
	}
	return strings.Join(parts, ", ")
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", "":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, ErrNoDataRows
	}

	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := sanitizeHeaders(headerRow)

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return tableData{
		headers: headers,
		rows:    dataRows,
	}, nil
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

// sanitizeHeaders trims headers and strips the trailing '*' required marker
// used by generated templates.
func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for idx, value := range raw {
		name := strings.TrimSpace(value)
		name = strings.TrimSuffix(name, "*")
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Column %d", idx+1)
		}
		headers[idx] = name
	}
	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	for i := len(row); i < length; i++ {
		padded[i] = ""
	}
	return padded
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *Service) logRowError(ctx context.Context, tenantID, categoryID uuid.UUID, fileName string, rowNumber int, message string) {
	if s.logRepo == nil || message == "" {
		return
	}
	entry := domain.ImportLogEntry{
		TenantID:     tenantID,
		CategoryID:   categoryID,
		FileName:     fileName,
		RowNumber:    &rowNumber,
		ErrorMessage: message,
	}
	_ = s.logRepo.Record(ctx, entry)
}
