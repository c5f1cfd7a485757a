package importer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"

	"github.com/google/uuid"
)

func executeRequest(t *testing.T, tenantID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/import/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	identity := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: domain.RoleManager}
	return req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
}

func TestHandlerExecuteStorageFailureIsServerError(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	assetRepo := &stubAssetRepo{err: errors.New("connection reset by peer")}
	logRepo := &stubImportLogRepo{}

	service := NewService(&stubCategoryRepo{category: category}, assetRepo, &stubActivityRepo{}, logRepo)
	handler := NewHTTPHandler(service, logRepo)

	body := `{"categoryId":"` + category.ID.String() + `","rows":[{"Name":"MacBook","RAM (GB)":"16"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, executeRequest(t, tenantID, body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for storage failure, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerExecuteBadRowIsClientError(t *testing.T) {
	tenantID := uuid.New()
	category := laptopCategory(tenantID)
	logRepo := &stubImportLogRepo{}

	service := NewService(&stubCategoryRepo{category: category}, &stubAssetRepo{}, &stubActivityRepo{}, logRepo)
	handler := NewHTTPHandler(service, logRepo)

	body := `{"categoryId":"` + category.ID.String() + `","rows":[{"Name":"","RAM (GB)":"16"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, executeRequest(t, tenantID, body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected row, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Name is required") {
		t.Fatalf("expected row message, got %s", rec.Body.String())
	}
}

func TestHandlerExecuteUnknownCategoryIsNotFound(t *testing.T) {
	tenantID := uuid.New()
	logRepo := &stubImportLogRepo{}

	service := NewService(&stubCategoryRepo{err: repository.ErrNotFound}, &stubAssetRepo{}, &stubActivityRepo{}, logRepo)
	handler := NewHTTPHandler(service, logRepo)

	body := `{"categoryId":"` + uuid.NewString() + `","rows":[{"Name":"MacBook"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, executeRequest(t, tenantID, body))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d: %s", rec.Code, rec.Body.String())
	}
}
