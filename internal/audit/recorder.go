package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

// Entry describes one state-changing operation for the audit trail.
type Entry struct {
	CompanyID    uint
	Action       string
	EntityType   string
	EntityID     uint
	OldValue     string
	NewValue     string
	ActingUserID uint
}

// Recorder is the audit sink. Callers invoke it exactly once per
// successful mutation and never for denied or failed ones.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// StoreRecorder appends immutable ActivityLog rows through the store.
type StoreRecorder struct {
	store store.Store
	log   *zap.Logger
}

// NewStoreRecorder creates a recorder writing to the given store.
func NewStoreRecorder(s store.Store, log *zap.Logger) *StoreRecorder {
	return &StoreRecorder{store: s, log: log}
}

// Record appends the entry. The audit trail is a sink: a write failure is
// logged but does not fail the mutation that already committed.
func (r *StoreRecorder) Record(ctx context.Context, entry Entry) {
	row := &model.ActivityLog{
		CompanyID:    entry.CompanyID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		OldValue:     entry.OldValue,
		NewValue:     entry.NewValue,
		ActingUserID: entry.ActingUserID,
	}
	if err := r.store.AppendActivity(ctx, row); err != nil {
		r.log.Error("Failed to append activity log",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Uint("entity_id", entry.EntityID),
			zap.Error(err))
		return
	}
	prometheus.ActivityRecordCounter.Inc()
}
