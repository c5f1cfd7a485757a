package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"

	"github.com/google/uuid"
)

func laptopCategory(tenantID uuid.UUID) domain.Category {
	return domain.Category{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Laptops",
		FieldSchema: []domain.FieldDefinition{
			{Key: "ram_gb", Label: "RAM (GB)", Type: domain.FieldTypeNumber, Required: true},
			{Key: "warranty_tier", Label: "Warranty Tier", Type: domain.FieldTypeSelect, Options: []string{"Basic", "Premium"}},
			{Key: "managed", Label: "Managed", Type: domain.FieldTypeBoolean},
		},
	}
}

func TestServiceValidatePartitionsRows(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	categoryRepo := &stubCategoryRepo{category: category}
	logRepo := &stubImportLogRepo{}

	service := NewService(categoryRepo, &stubAssetRepo{}, &stubActivityRepo{}, logRepo)

	data := "Name*,Serial Number,Status,Purchase Price,RAM (GB)*,Warranty Tier\n" +
		"MacBook Pro,SN-001,AVAILABLE,1999.99,16,Premium\n" +
		",SN-002,AVAILABLE,100,8,Basic\n" +
		"ThinkPad,SN-003,BROKEN,not-a-price,lots,Gold\n" +
		"\n" +
		"Chromebook,SN-004,maintenance,,4,\n"

	report, err := service.Validate(context.Background(), ValidateRequest{
		TenantID:   tenantID,
		CategoryID: category.ID,
		FileName:   "laptops.csv",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}

	if report.TotalRows != 4 {
		t.Fatalf("expected 4 data rows (blank line skipped), got %d", report.TotalRows)
	}
	if report.ValidCount != 2 || report.InvalidCount != 2 {
		t.Fatalf("unexpected partition: %d valid / %d invalid", report.ValidCount, report.InvalidCount)
	}
	if report.CategoryName != "Laptops" {
		t.Fatalf("expected category name Laptops, got %q", report.CategoryName)
	}

	if report.ValidRows[0].RowNumber != 1 || report.ValidRows[1].RowNumber != 4 {
		t.Fatalf("unexpected valid row numbers: %+v", report.ValidRows)
	}
	if got := report.ValidRows[0].Data["Name"]; got != "MacBook Pro" {
		t.Fatalf("expected header marker stripped, got key Name=%q", got)
	}

	missingName := report.InvalidRows[0]
	if missingName.RowNumber != 2 {
		t.Fatalf("expected row 2 invalid, got %d", missingName.RowNumber)
	}
	if len(missingName.Errors) != 1 || missingName.Errors[0] != "Name is required" {
		t.Fatalf("unexpected errors for row 2: %v", missingName.Errors)
	}

	multiError := report.InvalidRows[1]
	if multiError.RowNumber != 3 {
		t.Fatalf("expected row 3 invalid, got %d", multiError.RowNumber)
	}
	wantErrors := []string{
		"Status must be one of: AVAILABLE, ASSIGNED, MAINTENANCE, RETIRED",
		"Purchase Price must be a number",
		"RAM (GB) must be a number",
		"Warranty Tier must be one of: Basic, Premium",
	}
	if len(multiError.Errors) != len(wantErrors) {
		t.Fatalf("expected %d errors for row 3, got %v", len(wantErrors), multiError.Errors)
	}
	for i, want := range wantErrors {
		if multiError.Errors[i] != want {
			t.Fatalf("error %d mismatch: want %q got %q", i, want, multiError.Errors[i])
		}
	}

	if len(logRepo.entries) != 2 {
		t.Fatalf("expected 2 import log entries, got %d", len(logRepo.entries))
	}
	if logRepo.entries[0].RowNumber == nil || *logRepo.entries[0].RowNumber != 2 {
		t.Fatalf("expected first log entry for row 2, got %+v", logRepo.entries[0])
	}
}

func TestServiceValidateHandlesBOM(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	data := "\xEF\xBB\xBFName,RAM (GB)\nMacBook Air,8\n"

	report, err := service.Validate(context.Background(), ValidateRequest{
		TenantID:   tenantID,
		CategoryID: category.ID,
		FileName:   "laptops.csv",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if report.ValidCount != 1 {
		t.Fatalf("expected BOM-prefixed header to parse, report: %+v", report)
	}
}

func TestServiceValidateCapsInvalidpreview(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	var b strings.Builder
	b.WriteString("Name,RAM (GB)\n")
	for i := 0; i < 80; i++ {
		b.WriteString(",bad\n") // missing name, non-numeric RAM
	}

	report, err := service.Validate(context.Background(), ValidateRequest{
		TenantID:   tenantID,
		CategoryID: category.ID,
		FileName:   "laptops.csv",
		Data:       strings.NewReader(b.String()),
	})
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if report.InvalidCount != 80 {
		t.Fatalf("expected 80 invalid rows counted, got %d", report.InvalidCount)
	}
	if len(report.InvalidRows) != invalidPreviewLimit {
		t.Fatalf("expected invalid preview capped at %d, got %d", invalidPreviewLimit, len(report.InvalidRows))
	}
}

func TestServiceValidateRejectsOversizedFile(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	var b strings.Builder
	b.WriteString("Name,RAM (GB)\n")
	for i := 0; i < MaxRows+1; i++ {
		fmt.Fprintf(&b, "Laptop %d,8\n", i)
	}

	_, err := service.Validate(context.Background(), ValidateRequest{
		TenantID:   tenantID,
		CategoryID: category.ID,
		FileName:   "laptops.csv",
		Data:       strings.NewReader(b.String()),
	})
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestServiceValidateUnknownCategory(t *testing.T) {
	service := NewService(&stubCategoryRepo{err: repository.ErrNotFound}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	_, err := service.Validate(context.Background(), ValidateRequest{
		TenantID:   uuid.New(),
		CategoryID: uuid.New(),
		FileName:   "laptops.csv",
		Data:       strings.NewReader("Name\nMacBook\n"),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceExecuteCreatesAssetsAndAuditEntry(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	category := laptopCategory(tenantID)
	assetRepo := &stubAssetRepo{}
	activityRepo := &stubActivityRepo{}

	service := NewService(&stubCategoryRepo{category: category}, assetRepo, activityRepo, &stubImportLogRepo{})

	rows := []Row{
		{
			"Name":           "MacBook Pro",
			"Serial Number":  "SN-001",
			"Status":         "assigned",
			"Condition":      "Excellent",
			"Purchase Price": "1999.99",
			"Purchase Date":  "2024-03-01",
			"RAM (GB)":       "16",
			"Warranty Tier":  "Premium",
			"Managed":        "yes",
		},
		{
			"Name":     "ThinkPad",
			"RAM (GB)": "32",
		},
	}

	result, err := service.Execute(context.Background(), ExecuteRequest{
		TenantID:   tenantID,
		ActorID:    actorID,
		CategoryID: category.ID,
		FileName:   "laptops.csv",
		Rows:       rows,
	})
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 assets created, got %d", result.Created)
	}

	if len(assetRepo.batches) != 1 || len(assetRepo.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 assets, got %+v", assetRepo.batches)
	}

	first := assetRepo.batches[0][0]
	if first.TenantID != tenantID || first.CategoryID != category.ID {
		t.Fatalf("asset scope mismatch: %+v", first)
	}
	if first.Status != domain.AssetStatusAssigned || first.Condition != domain.AssetConditionExcellent {
		t.Fatalf("expected case-insensitive status/condition coercion, got %s/%s", first.Status, first.Condition)
	}
	if first.PurchasePrice == nil || *first.PurchasePrice != 1999.99 {
		t.Fatalf("expected purchase price 1999.99, got %v", first.PurchasePrice)
	}
	if first.PurchaseDate == nil || first.PurchaseDate.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("expected purchase date 2024-03-01, got %v", first.PurchaseDate)
	}
	if got, ok := first.CustomFields["ram_gb"].(float64); !ok || got != 16 {
		t.Fatalf("expected ram_gb stored as float64 16, got %#v", first.CustomFields["ram_gb"])
	}
	if got, ok := first.CustomFields["managed"].(bool); !ok || !got {
		t.Fatalf("expected managed stored as bool true, got %#v", first.CustomFields["managed"])
	}
	if _, present := first.CustomFields["RAM (GB)"]; present {
		t.Fatalf("expected labels translated to keys, found label key in %v", first.CustomFields)
	}

	second := assetRepo.batches[0][1]
	if second.Status != domain.AssetStatusAvailable || second.Condition != domain.AssetConditionGood {
		t.Fatalf("expected defaults for omitted status/condition, got %s/%s", second.Status, second.Condition)
	}
	if second.SerialNumber != nil {
		t.Fatalf("expected nil serial number for blank cell, got %v", *second.SerialNumber)
	}

	if len(activityRepo.entries) != 1 {
		t.Fatalf("expected a single audit entry, got %d", len(activityRepo.entries))
	}
	entry := activityRepo.entries[0]
	if entry.Action != domain.ActivityActionBulkImport {
		t.Fatalf("unexpected action %s", entry.Action)
	}
	if entry.ActorID != actorID || entry.TenantID != tenantID {
		t.Fatalf("audit entry scope mismatch: %+v", entry)
	}
	if len(entry.AssetIDs) != 2 {
		t.Fatalf("expected 2 asset ids on audit entry, got %d", len(entry.AssetIDs))
	}
	if entry.Details["source"] != "bulk_import" || entry.Details["category"] != "Laptops" {
		t.Fatalf("unexpected audit details: %v", entry.Details)
	}
}

func TestServiceExecuteRejectsInvalidRow(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	assetRepo := &stubAssetRepo{}

	service := NewService(&stubCategoryRepo{category: category}, assetRepo, &stubActivityRepo{}, &stubImportLogRepo{})

	_, err := service.Execute(context.Background(), ExecuteRequest{
		TenantID:   tenantID,
		ActorID:    uuid.New(),
		CategoryID: category.ID,
		Rows:       []Row{{"Name": "", "RAM (GB)": "16"}},
	})
	if err == nil || !strings.Contains(err.Error(), "Name is required") {
		t.Fatalf("expected row validation failure, got %v", err)
	}
	if len(assetRepo.batches) != 0 {
		t.Fatalf("expected no batch insert, got %+v", assetRepo.batches)
	}
}

func TestServiceExecuteRequiresRows(t *testing.T) {
	service := NewService(&stubCategoryRepo{}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	_, err := service.Execute(context.Background(), ExecuteRequest{
		TenantID:   uuid.New(),
		ActorID:    uuid.New(),
		CategoryID: uuid.New(),
	})
	if !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestServiceExecuteSucceedsWhenAuditFails(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	activityRepo := &stubActivityRepo{err: errors.New("audit store down")}

	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, activityRepo, &stubImportLogRepo{})

	result, err := service.Execute(context.Background(), ExecuteRequest{
		TenantID:   tenantID,
		ActorID:    uuid.New(),
		CategoryID: category.ID,
		Rows:       []Row{{"Name": "MacBook", "RAM (GB)": "8"}},
	})
	if err != nil {
		t.Fatalf("expected success despite audit failure, got %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 asset created, got %d", result.Created)
	}
}

func TestServiceTemplateMarksRequiredColumns(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, &stubActivityRepo{}, &stubImportLogRepo{})

	fileName, payload, err := service.Template(context.Background(), tenantID, category.ID)
	if err != nil {
		t.Fatalf("template returned error: %v", err)
	}
	if fileName != "laptops-import-template.csv" {
		t.Fatalf("unexpected template file name %q", fileName)
	}

	header := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(header, "Name*,") {
		t.Fatalf("expected Name marked required, header: %s", header)
	}
	if !strings.Contains(header, "RAM (GB)*") {
		t.Fatalf("expected required custom field marked, header: %s", header)
	}
	if !strings.Contains(header, "Warranty Tier") || strings.Contains(header, "Warranty Tier*") {
		t.Fatalf("expected optional custom field unmarked, header: %s", header)
	}
}

type stubCategoryRepo struct {
	category domain.Category
	err      error
}

func (s *stubCategoryRepo) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	return domain.Category{}, errors.New("not implemented")
}

func (s *stubCategoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Category, error) {
	if s.err != nil {
		return domain.Category{}, s.err
	}
	return s.category, nil
}

func (s *stubCategoryRepo) List(ctx context.Context, tenantID uuid.UUID) ([]domain.Category, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCategoryRepo) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	return domain.Category{}, errors.New("not implemented")
}

func (s *stubCategoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return errors.New("not implemented")
}

type stubAssetRepo struct {
	batches [][]domain.Asset
	err     error
}

func (s *stubAssetRepo) Create(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	return domain.Asset{}, errors.New("not implemented")
}

func (s *stubAssetRepo) CreateBatch(ctx context.Context, assets []domain.Asset) (repository.AssetBatchResult, error) {
	if s.err != nil {
		return repository.AssetBatchResult{}, s.err
	}
	s.batches = append(s.batches, assets)
	ids := make([]uuid.UUID, len(assets))
	for i := range assets {
		ids[i] = uuid.New()
	}
	return repository.AssetBatchResult{IDs: ids}, nil
}

func (s *stubAssetRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Asset, error) {
	return domain.Asset{}, errors.New("not implemented")
}

func (s *stubAssetRepo) List(ctx context.Context, tenantID uuid.UUID, filter *domain.AssetFilter, sort *domain.AssetSort, limit, offset int) ([]domain.Asset, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (s *stubAssetRepo) Update(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	return domain.Asset{}, errors.New("not implemented")
}

func (s *stubAssetRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (s *stubAssetRepo) ExistsSerialNumber(ctx context.Context, tenantID uuid.UUID, serialNumber string, excludeID *uuid.UUID) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubAssetRepo) ExistsAssetTag(ctx context.Context, tenantID uuid.UUID, assetTag string, excludeID *uuid.UUID) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubAssetRepo) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubAssetRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.AssetStatus]int64, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAssetRepo) CountByCategory(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error) {
	return nil, errors.New("not implemented")
}

type stubActivityRepo struct {
	entries []domain.ActivityLogEntry
	err     error
}

func (s *stubActivityRepo) Record(ctx context.Context, entry domain.ActivityLogEntry) (domain.ActivityLogEntry, error) {
	if s.err != nil {
		return domain.ActivityLogEntry{}, s.err
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *stubActivityRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error) {
	return nil, errors.New("not implemented")
}

func (s *stubActivityRepo) ListByAsset(ctx context.Context, tenantID, assetID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error) {
	return nil, errors.New("not implemented")
}

type stubImportLogRepo struct {
	entries []domain.ImportLogEntry
}

func (s *stubImportLogRepo) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubImportLogRepo) List(ctx context.Context, tenantID, categoryID uuid.UUID, fileName string, limit, offset int) ([]domain.ImportLogEntry, error) {
	return append([]domain.ImportLogEntry(nil), s.entries...), nil
}
