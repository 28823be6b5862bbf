package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"saldo/internal/core/id"
	"saldo/internal/domain/posting"
)

// Recorder adapts the audit trail to the posting engine's event sink.
// Record runs after the transition commits; its errors are logged by
// the engine, never propagated.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder over the repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record implements posting.EventSink.
func (r *Recorder) Record(ctx context.Context, ev posting.TransitionEvent) error {
	snapshot, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}

	return r.repo.Insert(ctx, &Entry{
		ID:         id.New(),
		TenantID:   ev.TenantID,
		DocumentID: ev.DocumentID,
		Kind:       string(ev.Kind),
		Number:     ev.Number,
		Intent:     string(ev.Intent),
		Status:     string(ev.Status),
		Attempt:    ev.Attempt,
		UserID:     ev.UserID,
		OccurredAt: ev.OccurredAt,
		Snapshot:   snapshot,
	})
}
