package figmatokens

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/memwatch"
	"github.com/hellenic-development/figma-tokens/pkg/resolve"
	"github.com/hellenic-development/figma-tokens/pkg/source"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

// selection is a validated Request.
type selection struct {
	collections map[string]bool
	types       map[figma.ResolvedType]bool
	formats     []formatter.Format
}

// Export runs the pipeline for req against src, reporting to ch.
//
// The returned error is non-nil only when the run was aborted: by
// validation (ErrValidation), by the size cap (ErrCapacity), when no
// requested format could be rendered (ErrRender), or by an unexpected
// failure such as an unreadable source. In every case ch has already
// received an empty export-result and an error notification.
func Export(ctx context.Context, src source.Source, ch host.Channel, req Request, opts Options) (result *Result, err error) {
	opts = opts.withDefaults()
	rc := newRun(ch, opts)
	result = &Result{Run: rc}

	defer func() {
		if p := recover(); p != nil {
			perr := errors.Newf("export panicked: %v", p)
			rc.record("export", perr, map[string]any{"stage": string(rc.Stage)}, string(debug.Stack()))
			rc.Stage = StageFailed
			rc.send(ctx, host.ExportResult{})
			rc.notify(ctx, "Export failed", true)
			result.Files = nil
			err = perr
		}
	}()

	rc.logger.Info("export started",
		zap.Strings("collections", req.CollectionIDs),
		zap.Strings("formats", req.Formats),
		zap.Strings("types", req.TokenTypes))

	rc.enter(ctx, StageValidating)
	sel, err := validate(req)
	if err != nil {
		return result, rc.fail(ctx, "validate", err, userMessage(err))
	}

	rc.enter(ctx, StageFetching)
	data, err := source.Fetch(ctx, src)
	if err != nil {
		err = errors.Wrap(err, "fetch variables")
		return result, rc.fail(ctx, "fetch", err, "Export failed: "+userMessage(err))
	}
	rc.Stats.Variables = len(data.Variables)

	defaultModes := make(map[string]string, len(data.Collections))
	for _, c := range data.Collections {
		if sel.collections[c.ID] {
			defaultModes[c.ID] = c.DefaultModeID
		}
	}
	if len(defaultModes) == 0 {
		err := errors.WithHint(
			errors.Mark(errors.New("none of the selected collections exist in this file"), ErrValidation),
			"list the available collections first")
		return result, rc.fail(ctx, "fetch", err, userMessage(err))
	}

	selected := filter(data.Variables, sel, defaultModes)
	rc.Stats.Selected = len(selected)

	rc.enter(ctx, StageResolving)
	builder := tokens.NewBuilder()
	resolveAll(ctx, rc, opts, selected, resolve.NewIndex(data.Variables, data.Collections), defaultModes, builder)

	tree := builder.Tree()
	rc.Collisions = builder.Collisions()
	for _, c := range rc.Collisions {
		rc.logger.Warn("token path collision",
			zap.String("variable", c.Name),
			zap.Strings("wanted", c.Wanted),
			zap.Strings("stored", c.Stored))
	}
	rc.Stats.Tokens = len(tree.Leaves())

	rc.enter(ctx, StageSerializing)
	files, failed := renderAll(rc, opts, sel.formats, tree)
	if len(files) == 0 {
		err := errors.Mark(errors.Newf("no format could be rendered (%s)", strings.Join(failed, ", ")), ErrRender)
		return result, rc.fail(ctx, "serialize", err, "Export failed: "+err.Error())
	}

	rc.enter(ctx, StageFinalizing)
	var total int64
	for _, f := range files {
		total += int64(len(f.Content))
	}
	rc.Stats.Bytes = total
	if total > opts.MaxOutputBytes {
		err := errors.WithDetailf(
			errors.Mark(errors.Newf("output of %d bytes exceeds the %d byte limit", total, opts.MaxOutputBytes), ErrCapacity),
			"formats: %s", formatList(files))
		msg := fmt.Sprintf("Export too large: %s exceeds the %s limit",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(opts.MaxOutputBytes)))
		return result, rc.fail(ctx, "finalize", err, msg)
	}

	result.Files = files
	rc.Stats.Files = len(files)
	rc.enter(ctx, StageDone)
	rc.send(ctx, host.ExportResult{Data: files})

	msg := fmt.Sprintf("Exported %d file(s)", len(files))
	if len(failed) > 0 {
		msg += fmt.Sprintf("; failed: %s", strings.Join(failed, ", "))
	}
	rc.notify(ctx, msg, false)

	rc.logger.Info("export finished",
		zap.Int("variables", rc.Stats.Variables),
		zap.Int("tokens", rc.Stats.Tokens),
		zap.Int("unresolved", rc.Stats.Unresolved),
		zap.Int("files", rc.Stats.Files),
		zap.String("size", humanize.IBytes(uint64(total))),
		zap.Duration("elapsed", rc.now().Sub(rc.StartedAt)))

	return result, nil
}

func validate(req Request) (*selection, error) {
	invalid := func(msg, hint string) error {
		return errors.WithHint(errors.Mark(errors.New(msg), ErrValidation), hint)
	}

	sel := &selection{
		collections: make(map[string]bool, len(req.CollectionIDs)),
		types:       make(map[figma.ResolvedType]bool, len(req.TokenTypes)),
	}

	for _, id := range req.CollectionIDs {
		if id = strings.TrimSpace(id); id != "" {
			sel.collections[id] = true
		}
	}
	if len(sel.collections) == 0 {
		return nil, invalid("no collections selected", "select at least one variable collection")
	}

	seen := make(map[formatter.Format]bool, len(req.Formats))
	for _, s := range req.Formats {
		f, err := formatter.ParseFormat(s)
		if err != nil {
			return nil, errors.WithHint(errors.Mark(err, ErrValidation),
				"supported formats: css, swift, android, flutter, w3c, tailwind")
		}
		if !seen[f] {
			seen[f] = true
			sel.formats = append(sel.formats, f)
		}
	}
	if len(sel.formats) == 0 {
		return nil, invalid("no formats selected", "select at least one output format")
	}

	for _, s := range req.TokenTypes {
		t, err := tokens.ParseType(s)
		if err != nil {
			return nil, errors.WithHint(errors.Mark(err, ErrValidation),
				"supported token types: color, string, boolean, number")
		}
		sel.types[t] = true
	}
	if len(sel.types) == 0 {
		return nil, invalid("no token types selected", "select at least one token type")
	}

	return sel, nil
}

// filter keeps exportable variables of selected collections and types, in source order.
func filter(vars []figma.Variable, sel *selection, defaultModes map[string]string) []*figma.Variable {
	var out []*figma.Variable
	for i := range vars {
		v := &vars[i]
		if v.DeletedButReferenced {
			continue
		}
		if _, ok := defaultModes[v.VariableCollectionID]; !ok {
			continue
		}
		if !sel.types[v.ResolvedType] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// resolveAll feeds every selected variable, resolved at its collection's
// default mode, into b. Work proceeds in batches with a memory check after
// each and a scheduler yield every opts.YieldEvery variables.
func resolveAll(ctx context.Context, rc *RunContext, opts Options, vars []*figma.Variable,
	lookup resolve.Lookup, defaultModes map[string]string, b *tokens.Builder) {
	r := &resolve.Resolver{Lookup: lookup, MaxDepth: opts.MaxAliasDepth, Logger: rc.logger}
	mon := memwatch.New(opts.MemoryAdvisoryBytes, opts.Sampler)

	processed := 0
	for start := 0; start < len(vars); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(vars))

		for _, v := range vars[start:end] {
			processed++
			if processed%opts.YieldEvery == 0 {
				runtime.Gosched()
			}

			val, ok := r.Resolve(v, defaultModes[v.VariableCollectionID])
			if !ok {
				rc.Stats.Unresolved++
				rc.logger.Debug("variable skipped: unresolved",
					zap.String("variable", v.Name),
					zap.String("id", v.ID))
				continue
			}

			if _, err := b.Add(v, val); err != nil {
				rc.Stats.Skipped++
				rc.record("build", err, map[string]any{
					"variable": v.Name,
					"id":       v.ID,
					"type":     string(v.ResolvedType),
				}, "")
				continue
			}
			rc.Stats.Resolved++
		}

		checkMemory(ctx, rc, mon)
	}
}

func checkMemory(ctx context.Context, rc *RunContext, mon *memwatch.Monitor) {
	u, advise, err := mon.Check(ctx)
	if err != nil {
		rc.logger.Debug("memory sample failed", zap.Error(err))
		return
	}
	if !advise {
		return
	}
	rc.logger.Warn("memory usage above advisory limit",
		zap.Uint64("rss", u.RSS),
		zap.Uint64("limit", mon.Limit),
		zap.Float64("systemUsedPercent", u.SystemUsedPercent))
	rc.notify(ctx, fmt.Sprintf("High memory usage: %s in use (advisory limit %s)",
		humanize.IBytes(u.RSS), humanize.IBytes(mon.Limit)), false)
}

// renderAll renders each format independently. A failing format is
// recorded and left out; the names of failed formats are returned.
func renderAll(rc *RunContext, opts Options, formats []formatter.Format, tree *tokens.Branch) ([]formatter.File, []string) {
	var (
		files  []formatter.File
		failed []string
	)
	for _, f := range formats {
		r, err := opts.renderer(f)
		if err != nil {
			rc.record("render", errors.Mark(err, ErrRender), map[string]any{"format": string(f)}, "")
			failed = append(failed, string(f))
			continue
		}

		content, stack, err := render(r, tree)
		if err != nil {
			rc.record("render", errors.Mark(err, ErrRender), map[string]any{"format": string(f)}, stack)
			failed = append(failed, string(f))
			continue
		}
		files = append(files, formatter.File{Filename: r.Filename(), Content: content})
	}
	return files, failed
}

// render calls r, turning a panic into an error with the panic's stack.
func render(r formatter.Renderer, tree *tokens.Branch) (content, stack string, err error) {
	defer func() {
		if p := recover(); p != nil {
			stack = string(debug.Stack())
			err = errors.Newf("%s renderer panicked: %v", r.Format(), p)
		}
	}()
	content, err = r.Render(tree)
	if err != nil {
		err = errors.Wrapf(err, "render %s", r.Format())
	}
	return content, "", err
}

func formatList(files []formatter.File) string {
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = fmt.Sprintf("%s=%s", f.Filename, humanize.IBytes(uint64(len(f.Content))))
	}
	return strings.Join(parts, ", ")
}
