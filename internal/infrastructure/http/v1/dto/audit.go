package dto

import (
	"encoding/json"
	"time"

	"saldo/internal/domain/audit"
)

// --- Response DTOs ---

// AuditEntryResponse is the response body for one audit trail entry.
// The snapshot is the transition event as recorded, already decompressed
// by the storage layer.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"documentId"`
	Kind       string          `json:"kind"`
	Number     string          `json:"number,omitempty"`
	Intent     string          `json:"intent"`
	Status     string          `json:"status"`
	Attempt    int             `json:"attempt"`
	UserID     string          `json:"userId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
}

// FromAuditEntry creates response DTO from an audit entry.
func FromAuditEntry(entry *audit.Entry) *AuditEntryResponse {
	return &AuditEntryResponse{
		ID:         entry.ID.String(),
		DocumentID: entry.DocumentID.String(),
		Kind:       entry.Kind,
		Number:     entry.Number,
		Intent:     entry.Intent,
		Status:     entry.Status,
		Attempt:    entry.Attempt,
		UserID:     entry.UserID,
		OccurredAt: entry.OccurredAt,
		Snapshot:   json.RawMessage(entry.Snapshot),
	}
}

// FromAuditEntries maps audit entries to response DTOs.
func FromAuditEntries(entries []*audit.Entry) []*AuditEntryResponse {
	out := make([]*AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromAuditEntry(entry))
	}
	return out
}
