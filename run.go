package figmatokens

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

// Stage is a step of the export pipeline.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageFetching    Stage = "fetching"
	StageResolving   Stage = "resolving"
	StageSerializing Stage = "serializing"
	StageFinalizing  Stage = "finalizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// progress is the percentage reported on entering each stage.
var progress = map[Stage]int{
	StageValidating:  10,
	StageFetching:    25,
	StageResolving:   50,
	StageSerializing: 75,
	StageFinalizing:  95,
	StageDone:        100,
}

// Stats counts what a run did.
type Stats struct {
	Variables  int   // variables read from the source
	Selected   int   // variables passing the collection and type filter
	Resolved   int   // variables that became tokens
	Unresolved int   // variables skipped for a dangling, cyclic or too deep alias
	Skipped    int   // resolved variables the tree builder rejected
	Tokens     int   // leaves in the final tree
	Files      int   // files returned
	Bytes      int64 // combined size of the rendered files
}

// ErrorRecord is the structured form of a problem met during a run.
type ErrorRecord struct {
	Operation string         `json:"operation"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Stack     string         `json:"stack,omitempty"`
}

// RunContext is the state of one export. Nothing in it outlives the run.
type RunContext struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Stage      Stage
	Progress   int
	Stats      Stats
	Errors     []ErrorRecord
	Collisions []tokens.Collision

	ch     host.Channel
	logger *zap.Logger
	now    func() time.Time
}

func newRun(ch host.Channel, opts Options) *RunContext {
	id := uuid.New()
	return &RunContext{
		ID:        id,
		StartedAt: opts.Now(),
		ch:        ch,
		logger:    opts.Logger.With(zap.String("run", id.String())),
		now:       opts.Now,
	}
}

// Failed reports whether any error was recorded.
func (rc *RunContext) Failed() bool {
	return len(rc.Errors) > 0
}

// enter moves the run to stage and reports its progress.
func (rc *RunContext) enter(ctx context.Context, stage Stage) {
	rc.Stage = stage
	rc.Progress = progress[stage]
	rc.logger.Debug("stage", zap.String("stage", string(stage)), zap.Int("percent", rc.Progress))
	rc.send(ctx, host.ExportProgress{Percent: rc.Progress})
}

// record stores err as an ErrorRecord and logs it.
func (rc *RunContext) record(op string, err error, fields map[string]any, stack string) ErrorRecord {
	if stack == "" {
		stack = fmt.Sprintf("%+v", err)
	}
	rec := ErrorRecord{
		Operation: op,
		Message:   err.Error(),
		Context:   fields,
		Timestamp: rc.now(),
		Stack:     stack,
	}
	rc.Errors = append(rc.Errors, rec)

	zf := []zap.Field{zap.String("operation", op), zap.Error(err)}
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	rc.logger.Error("export error", zf...)
	return rec
}

// send delivers m. A host that stopped listening does not stop the run.
func (rc *RunContext) send(ctx context.Context, m host.Outbound) {
	if rc.ch == nil {
		return
	}
	if err := rc.ch.Send(ctx, m); err != nil {
		rc.logger.Warn("send to host failed", zap.String("type", string(m.Type())), zap.Error(err))
	}
}

func (rc *RunContext) notify(ctx context.Context, msg string, isErr bool) {
	rc.send(ctx, host.Notify{Message: msg, Error: isErr})
}

// fail ends the run with an empty result and an error notification.
func (rc *RunContext) fail(ctx context.Context, op string, err error, userMessage string) error {
	rc.record(op, err, map[string]any{"stage": string(rc.Stage)}, "")
	rc.Stage = StageFailed
	rc.send(ctx, host.ExportResult{})
	rc.notify(ctx, userMessage, true)
	return err
}

// userMessage is the text shown for err: its message followed by any hints.
func userMessage(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}
