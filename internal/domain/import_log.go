package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogEntry captures row level issues that occur during import validation.
type ImportLogEntry struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	CategoryID   uuid.UUID `json:"category_id"`
	FileName     string    `json:"file_name"`
	RowNumber    *int      `json:"row_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
