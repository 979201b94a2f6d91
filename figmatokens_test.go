package figmatokens

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/memwatch"
	"github.com/hellenic-development/figma-tokens/pkg/source"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

func variable(id, col, name string, typ figma.ResolvedType, mode string, val figma.Value) figma.Variable {
	return figma.Variable{
		ID:                   id,
		Name:                 name,
		VariableCollectionID: col,
		ResolvedType:         typ,
		ValuesByMode:         map[string]figma.Value{mode: val},
	}
}

// testSource has a primitives collection and a semantic collection whose
// colors alias into it, plus a dangling alias and a two-variable cycle.
func testSource() *source.Static {
	red := figma.ColorValue(figma.Color{R: 1, A: 1})

	cols := []figma.VariableCollection{
		{ID: "c1", Name: "Primitives", DefaultModeID: "m1", Modes: []figma.Mode{{ModeID: "m1", Name: "Value"}}},
		{ID: "c2", Name: "Semantic", DefaultModeID: "m2", Modes: []figma.Mode{{ModeID: "m2", Name: "Light"}, {ModeID: "m3", Name: "Dark"}}},
	}
	vars := []figma.Variable{
		variable("v1", "c1", "color/red", figma.ResolvedTypeColor, "m1", red),
		variable("v2", "c2", "color/brand/primary", figma.ResolvedTypeColor, "m2", figma.AliasValue("v1")),
		variable("v3", "c2", "color/brand/secondary", figma.ResolvedTypeColor, "m2", figma.AliasValue("v2")),
		variable("v4", "c2", "broken/ref", figma.ResolvedTypeColor, "m2", figma.AliasValue("missing")),
		variable("v5", "c2", "loop/a", figma.ResolvedTypeColor, "m2", figma.AliasValue("v6")),
		variable("v6", "c2", "loop/b", figma.ResolvedTypeColor, "m2", figma.AliasValue("v5")),
		variable("v7", "c2", "spacing/md", figma.ResolvedTypeFloat, "m2", figma.FloatValue(16)),
		variable("v8", "c2", "label/title", figma.ResolvedTypeString, "m2", figma.StringValue("Hello")),
	}
	return source.NewStatic(cols, vars)
}

func quietOptions() Options {
	return Options{
		Sampler: memwatch.SamplerFunc(func(context.Context) (memwatch.Usage, error) {
			return memwatch.Usage{RSS: 1}, nil
		}),
	}
}

func TestExport_AliasExample(t *testing.T) {
	var rec host.Recorder
	res, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"c2"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"color"},
	}, quietOptions())
	require.NoError(t, err)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "tokens.css", res.Files[0].Filename)
	assert.Equal(t, `/**
 * Design tokens generated by figma-tokens. Do not edit.
 */

:root {
  /* color */
  --color-brand-primary: #ff0000;
  --color-brand-secondary: #ff0000;
}
`, res.Files[0].Content)

	assert.Equal(t, []int{10, 25, 50, 75, 95, 100}, rec.Progress())
	assert.Equal(t, []host.Notify{{Message: "Exported 1 file(s)"}}, rec.Notifications())
	result, ok := rec.Result()
	require.True(t, ok)
	assert.Equal(t, res.Files, result.Data)

	stats := res.Run.Stats
	assert.Equal(t, 8, stats.Variables)
	assert.Equal(t, 5, stats.Selected)
	assert.Equal(t, 2, stats.Resolved)
	assert.Equal(t, 3, stats.Unresolved)
	assert.Equal(t, 2, stats.Tokens)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, StageDone, res.Run.Stage)
	assert.False(t, res.Run.Failed())
	assert.NotEqual(t, uuid.Nil, res.Run.ID)
}

func TestExport_ResultIsLastBeforeSummary(t *testing.T) {
	var rec host.Recorder
	_, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"c1", "c2"},
		Formats:       []string{"css", "w3c"},
		TokenTypes:    []string{"color", "number", "string"},
	}, quietOptions())
	require.NoError(t, err)

	msgs := rec.Messages()
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, host.ExportProgress{Percent: 100}, msgs[len(msgs)-3])
	assert.IsType(t, host.ExportResult{}, msgs[len(msgs)-2])
	assert.Equal(t, host.Notify{Message: "Exported 2 file(s)"}, msgs[len(msgs)-1])
}

func TestExport_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no collections", Request{Formats: []string{"css"}, TokenTypes: []string{"color"}}},
		{"blank collections", Request{CollectionIDs: []string{" "}, Formats: []string{"css"}, TokenTypes: []string{"color"}}},
		{"no formats", Request{CollectionIDs: []string{"c1"}, TokenTypes: []string{"color"}}},
		{"unknown format", Request{CollectionIDs: []string{"c1"}, Formats: []string{"css", "markdown"}, TokenTypes: []string{"color"}}},
		{"no types", Request{CollectionIDs: []string{"c1"}, Formats: []string{"css"}}},
		{"unknown type", Request{CollectionIDs: []string{"c1"}, Formats: []string{"css"}, TokenTypes: []string{"gradient"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec host.Recorder
			res, err := Export(context.Background(), testSource(), &rec, tt.req, quietOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Empty(t, res.Files)
			assert.Equal(t, StageFailed, res.Run.Stage)

			assert.Equal(t, []int{10}, rec.Progress())
			result, ok := rec.Result()
			require.True(t, ok)
			assert.Empty(t, result.Data)

			notes := rec.Notifications()
			require.Len(t, notes, 1)
			assert.True(t, notes[0].Error)
			require.Len(t, res.Run.Errors, 1)
			assert.Equal(t, "validate", res.Run.Errors[0].Operation)
		})
	}
}

func TestExport_UnknownCollection(t *testing.T) {
	var rec host.Recorder
	_, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"nope"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"color"},
	}, quietOptions())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []int{10, 25}, rec.Progress())
	assert.Contains(t, rec.Notifications()[0].Message, "list the available collections")
}

type panicRenderer struct{ format formatter.Format }

func (r panicRenderer) Format() formatter.Format            { return r.format }
func (panicRenderer) Filename() string                      { return "boom" }
func (panicRenderer) Render(*tokens.Branch) (string, error) { panic("boom") }

type failingRenderer struct{}

func (failingRenderer) Format() formatter.Format { return formatter.Android }
func (failingRenderer) Filename() string         { return "resources.xml" }
func (failingRenderer) Render(*tokens.Branch) (string, error) {
	return "", errors.New("disk on fire")
}

func TestExport_RendererIsolation(t *testing.T) {
	opts := quietOptions()
	opts.Renderers = map[formatter.Format]formatter.Renderer{
		formatter.Swift:   panicRenderer{formatter.Swift},
		formatter.Android: failingRenderer{},
	}

	var rec host.Recorder
	res, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"c2"},
		Formats:       []string{"css", "swift", "android", "w3c"},
		TokenTypes:    []string{"color", "number"},
	}, opts)
	require.NoError(t, err)

	var names []string
	for _, f := range res.Files {
		names = append(names, f.Filename)
	}
	assert.Equal(t, []string{"tokens.css", "tokens.json"}, names)

	require.Len(t, res.Run.Errors, 2)
	for _, rec := range res.Run.Errors {
		assert.Equal(t, "render", rec.Operation)
		assert.NotEmpty(t, rec.Stack)
		assert.False(t, rec.Timestamp.IsZero())
	}
	assert.Equal(t, "swift", res.Run.Errors[0].Context["format"])
	assert.Contains(t, res.Run.Errors[0].Message, "panicked")
	assert.Equal(t, "android", res.Run.Errors[1].Context["format"])

	assert.Equal(t, []host.Notify{{Message: "Exported 2 file(s); failed: swift, android"}}, rec.Notifications())
}

func TestExport_AllRenderersFail(t *testing.T) {
	opts := quietOptions()
	opts.Renderers = map[formatter.Format]formatter.Renderer{formatter.Swift: panicRenderer{formatter.Swift}}

	var rec host.Recorder
	res, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"c2"},
		Formats:       []string{"swift"},
		TokenTypes:    []string{"color"},
	}, opts)
	assert.True(t, errors.Is(err, ErrRender))
	assert.Empty(t, res.Files)
	result, ok := rec.Result()
	require.True(t, ok)
	assert.Empty(t, result.Data)
}

func TestExport_CapacityBoundary(t *testing.T) {
	req := Request{
		CollectionIDs: []string{"c1", "c2"},
		Formats:       []string{"css", "swift", "w3c"},
		TokenTypes:    []string{"color", "number", "string"},
	}

	res, err := Export(context.Background(), testSource(), nil, req, quietOptions())
	require.NoError(t, err)
	total := res.Run.Stats.Bytes
	require.Greater(t, total, int64(0))

	t.Run("one byte over", func(t *testing.T) {
		opts := quietOptions()
		opts.MaxOutputBytes = total - 1

		var rec host.Recorder
		res, err := Export(context.Background(), testSource(), &rec, req, opts)
		assert.True(t, errors.Is(err, ErrCapacity))
		assert.Empty(t, res.Files)
		assert.Equal(t, []int{10, 25, 50, 75, 95}, rec.Progress())

		result, ok := rec.Result()
		require.True(t, ok)
		assert.Empty(t, result.Data)
		notes := rec.Notifications()
		require.Len(t, notes, 1)
		assert.True(t, notes[0].Error)
		assert.True(t, strings.HasPrefix(notes[0].Message, "Export too large"))
	})

	for _, limit := range []int64{total, total + 1} {
		opts := quietOptions()
		opts.MaxOutputBytes = limit
		res, err := Export(context.Background(), testSource(), nil, req, opts)
		require.NoError(t, err)
		assert.Len(t, res.Files, 3)
	}
}

func TestExport_Deterministic(t *testing.T) {
	req := Request{
		CollectionIDs: []string{"c1", "c2"},
		Formats:       formatNames(),
		TokenTypes:    tokens.Types,
	}

	first, err := Export(context.Background(), testSource(), nil, req, quietOptions())
	require.NoError(t, err)
	second, err := Export(context.Background(), testSource(), nil, req, quietOptions())
	require.NoError(t, err)

	assert.Len(t, first.Files, len(formatter.Formats))
	assert.Equal(t, first.Files, second.Files)
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
}

func formatNames() []string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return names
}

func TestExport_DuplicateFormatsRenderOnce(t *testing.T) {
	res, err := Export(context.Background(), testSource(), nil, Request{
		CollectionIDs: []string{"c1"},
		Formats:       []string{"css", "CSS", " css "},
		TokenTypes:    []string{"color"},
	}, quietOptions())
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
}

func TestExport_TypeFilter(t *testing.T) {
	res, err := Export(context.Background(), testSource(), nil, Request{
		CollectionIDs: []string{"c2"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"dimension"},
	}, quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Run.Stats.Selected)
	assert.Contains(t, res.Files[0].Content, "--spacing-md: 16px;")
	assert.NotContains(t, res.Files[0].Content, "color")
}

func TestExport_DeletedVariablesStayResolvable(t *testing.T) {
	src := testSource()
	vars, _ := src.Variables(context.Background())
	cols, _ := src.Collections(context.Background())
	vars[0].DeletedButReferenced = true

	res, err := Export(context.Background(), source.NewStatic(cols, vars), nil, Request{
		CollectionIDs: []string{"c1", "c2"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"color"},
	}, quietOptions())
	require.NoError(t, err)
	assert.NotContains(t, res.Files[0].Content, "--color-red:")
	assert.Contains(t, res.Files[0].Content, "--color-brand-primary: #ff0000;")
}

func TestExport_Collisions(t *testing.T) {
	cols := []figma.VariableCollection{{ID: "c1", Name: "A", DefaultModeID: "m1"}}
	vars := []figma.Variable{
		variable("v1", "c1", "size/sm", figma.ResolvedTypeFloat, "m1", figma.FloatValue(4)),
		variable("v2", "c1", "size / sm", figma.ResolvedTypeFloat, "m1", figma.FloatValue(8)),
	}

	res, err := Export(context.Background(), source.NewStatic(cols, vars), nil, Request{
		CollectionIDs: []string{"c1"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"number"},
	}, quietOptions())
	require.NoError(t, err)
	require.Len(t, res.Run.Collisions, 1)
	assert.Equal(t, "v2", res.Run.Collisions[0].VariableID)
	assert.Equal(t, 2, res.Run.Stats.Tokens)
}

func TestExport_MemoryAdvisoryOnce(t *testing.T) {
	opts := Options{
		BatchSize:           1,
		MemoryAdvisoryBytes: 1000,
		Sampler: memwatch.SamplerFunc(func(context.Context) (memwatch.Usage, error) {
			return memwatch.Usage{RSS: 4096}, nil
		}),
	}

	var rec host.Recorder
	_, err := Export(context.Background(), testSource(), &rec, Request{
		CollectionIDs: []string{"c2"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"color"},
	}, opts)
	require.NoError(t, err)

	notes := rec.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "High memory usage: 4.0 KiB in use (advisory limit 1000 B)", notes[0].Message)
	assert.False(t, notes[0].Error)
	assert.Equal(t, "Exported 1 file(s)", notes[1].Message)
}

type brokenSource struct{ panics bool }

func (s brokenSource) Collections(context.Context) ([]figma.VariableCollection, error) {
	if s.panics {
		panic("corrupt state")
	}
	return nil, errors.New("network unreachable")
}

func (brokenSource) Variables(context.Context) ([]figma.Variable, error) { return nil, nil }

func TestExport_SourceFailure(t *testing.T) {
	var rec host.Recorder
	res, err := Export(context.Background(), brokenSource{}, &rec, Request{
		CollectionIDs: []string{"c1"},
		Formats:       []string{"css"},
		TokenTypes:    []string{"color"},
	}, quietOptions())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "fetch", res.Run.Errors[0].Operation)

	notes := rec.Notifications()
	require.Len(t, notes, 1)
	assert.True(t, strings.HasPrefix(notes[0].Message, "Export failed"))
}

func TestExport_PanicIsContained(t *testing.T) {
	var rec host.Recorder
	var (
		res *Result
		err error
	)
	require.NotPanics(t, func() {
		res, err = Export(context.Background(), brokenSource{panics: true}, &rec, Request{
			CollectionIDs: []string{"c1"},
			Formats:       []string{"css"},
			TokenTypes:    []string{"color"},
		}, quietOptions())
	})
	require.Error(t, err)
	assert.Empty(t, res.Files)
	assert.Equal(t, []host.Notify{{Message: "Export failed", Error: true}}, rec.Notifications())
	assert.NotEmpty(t, res.Run.Errors[0].Stack)
}

func TestListCollections(t *testing.T) {
	cols, err := ListCollections(context.Background(), testSource())
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "Semantic", cols[1].Name)
	assert.Equal(t, "Light", cols[1].DefaultMode)
	assert.Equal(t, 7, cols[1].VariableCount)
	assert.Equal(t, 5, cols[1].AliasCount)
}

func TestServe(t *testing.T) {
	in := strings.Join([]string{
		`{"type":"get-collections"}`,
		`{not json`,
		`{"type":"resize"}`,
		`{"type":"export-tokens","collectionIds":["c2"],"formats":["css"],"activeTokenTypes":["color"]}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := Serve(context.Background(), host.NewStream(strings.NewReader(in), &out), testSource(), quietOptions())
	require.NoError(t, err)

	var msgs []host.Outbound
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		m, err := host.DecodeOutbound([]byte(line))
		require.NoError(t, err)
		msgs = append(msgs, m)
	}

	require.Len(t, msgs, 3+6+2)
	assert.Len(t, msgs[0].(host.Collections).Collections, 2)
	assert.True(t, msgs[1].(host.Notify).Error)
	assert.True(t, msgs[2].(host.Notify).Error)
	assert.Equal(t, host.ExportProgress{Percent: 10}, msgs[3])
	assert.Equal(t, host.ExportProgress{Percent: 100}, msgs[8])
	assert.Len(t, msgs[9].(host.ExportResult).Data, 1)
	assert.Equal(t, host.Notify{Message: "Exported 1 file(s)"}, msgs[10])
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"css", "w3c"}, ParseList(" css, ,w3c ,"))
	assert.Empty(t, ParseList(""))
}
