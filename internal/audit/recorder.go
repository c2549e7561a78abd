package audit

import "context"

// Recorder persists settled-operation events. Recording happens after the
// state transition commits; a recording failure never rolls the ledger back.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
}

// NopRecorder discards events. Used in tests and in deployments without an
// audit database.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, event *Event) error {
	return nil
}
