package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// Handler exposes the import pipeline over HTTP.
type Handler struct {
	service *Service
	logRepo repository.ImportLogRepository
}

// NewHTTPHandler wraps the service with the template, validate, execute and
// logs endpoints.
func NewHTTPHandler(service *Service, logRepo repository.ImportLogRepository) http.Handler {
	return &Handler{service: service, logRepo: logRepo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/template"):
		h.handleTemplate(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/validate"):
		h.handleValidate(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/execute"):
		h.handleExecute(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/logs"):
		h.handleListLogs(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleMember)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	categoryID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("categoryId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid categoryId: %v", err), http.StatusBadRequest)
		return
	}

	fileName, payload, err := h.service.Template(r.Context(), identity.TenantID, categoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleMember)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	categoryID, err := uuid.Parse(strings.TrimSpace(r.FormValue("categoryId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid categoryId: %v", err), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	report, err := h.service.Validate(r.Context(), ValidateRequest{
		TenantID:   identity.TenantID,
		CategoryID: categoryID,
		FileName:   header.Filename,
		Data:       bytes.NewReader(data),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type executePayload struct {
	CategoryID string `json:"categoryId"`
	FileName   string `json:"fileName"`
	Rows       []Row  `json:"rows"`
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	defer r.Body.Close()
	var payload executePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	categoryID, err := uuid.Parse(strings.TrimSpace(payload.CategoryID))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid categoryId: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Execute(r.Context(), ExecuteRequest{
		TenantID:   identity.TenantID,
		ActorID:    identity.UserID,
		CategoryID: categoryID,
		FileName:   strings.TrimSpace(payload.FileName),
		Rows:       payload.Rows,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, executeResponse{
		Success:      true,
		Created:      result.Created,
		CategoryName: result.CategoryName,
	})
}

type executeResponse struct {
	Success      bool   `json:"success"`
	Created      int    `json:"created"`
	CategoryName string `json:"categoryName"`
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	categoryID, err := uuid.Parse(strings.TrimSpace(query.Get("categoryId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid categoryId: %v", err), http.StatusBadRequest)
		return
	}
	fileName := strings.TrimSpace(query.Get("fileName"))

	limit := 200
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return
		}
		offset = parsed
	}

	logs, err := h.logRepo.List(r.Context(), identity.TenantID, categoryID, fileName, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("list logs: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "category not found", http.StatusNotFound)
	case errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrEmptyFile),
		errors.Is(err, ErrNoDataRows),
		errors.Is(err, ErrTooManyRows),
		errors.Is(err, ErrNoRows):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
