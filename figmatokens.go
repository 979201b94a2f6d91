package figmatokens

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/logging"
	"github.com/hellenic-development/figma-tokens/pkg/memwatch"
	"github.com/hellenic-development/figma-tokens/pkg/resolve"
)

// Run limits applied when the corresponding Options field is zero.
const (
	DefaultMaxOutputBytes = 50 << 20
	DefaultBatchSize      = 100
	DefaultYieldEvery     = 1000
)

var (
	// ErrValidation marks a request rejected before any work started.
	ErrValidation = errors.New("invalid export request")
	// ErrCapacity marks a run whose combined output exceeded the size cap.
	ErrCapacity = errors.New("export output too large")
	// ErrRender marks a renderer failure.
	ErrRender = errors.New("render failed")
)

// Request selects what to export.
type Request struct {
	CollectionIDs []string
	Formats       []string // css, swift, android, flutter, w3c, tailwind
	TokenTypes    []string // color, string, boolean, number
}

// RequestFromMessage converts an export-tokens message.
func RequestFromMessage(m host.ExportTokens) Request {
	return Request{
		CollectionIDs: m.CollectionIDs,
		Formats:       m.Formats,
		TokenTypes:    m.ActiveTokenTypes,
	}
}

// Options configures a run. The zero value is ready to use.
type Options struct {
	Logger *zap.Logger // nil = no logging

	MaxOutputBytes int64 // 0 = DefaultMaxOutputBytes
	BatchSize      int   // 0 = DefaultBatchSize
	YieldEvery     int   // 0 = DefaultYieldEvery
	MaxAliasDepth  int   // 0 = resolve.DefaultMaxDepth

	// MemoryAdvisoryBytes is the resident size above which the host is told
	// once per run that memory is running high. 0 = memwatch.DefaultLimit.
	MemoryAdvisoryBytes uint64
	Sampler             memwatch.Sampler // nil = current process

	// Renderers overrides the renderer used for a format.
	Renderers map[formatter.Format]formatter.Renderer

	Now func() time.Time // nil = time.Now
}

func (o Options) withDefaults() Options {
	o.Logger = logging.OrNop(o.Logger)
	if o.MaxOutputBytes <= 0 {
		o.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.YieldEvery <= 0 {
		o.YieldEvery = DefaultYieldEvery
	}
	if o.MaxAliasDepth <= 0 {
		o.MaxAliasDepth = resolve.DefaultMaxDepth
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) renderer(f formatter.Format) (formatter.Renderer, error) {
	if r, ok := o.Renderers[f]; ok && r != nil {
		return r, nil
	}
	return formatter.New(f)
}

// Result contains the export output.
type Result struct {
	Files []formatter.File
	Run   *RunContext
}

// ParseList parses a comma-separated string and returns its non-empty,
// trimmed items.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
