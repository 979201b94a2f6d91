package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/source"
)

func testSource() *source.Static {
	return source.NewStatic(
		[]figma.VariableCollection{
			{
				ID:            "c1",
				Name:          "Colors",
				Modes:         []figma.Mode{{ModeID: "m1", Name: "Light"}, {ModeID: "m2", Name: "Dark"}},
				DefaultModeID: "m2",
			},
			{ID: "c2", Name: "Empty", Modes: []figma.Mode{{ModeID: "m3", Name: "Mode 1"}}, DefaultModeID: "m3"},
		},
		[]figma.Variable{
			{ID: "v1", VariableCollectionID: "c1", ResolvedType: figma.ResolvedTypeColor,
				ValuesByMode: map[string]figma.Value{"m2": figma.ColorValue(figma.Color{A: 1})}},
			{ID: "v2", VariableCollectionID: "c1", ResolvedType: figma.ResolvedTypeColor,
				ValuesByMode: map[string]figma.Value{"m2": figma.AliasValue("v1")}},
			{ID: "v3", VariableCollectionID: "c1", ResolvedType: figma.ResolvedTypeFloat,
				ValuesByMode: map[string]figma.Value{"m1": figma.AliasValue("v9"), "m2": figma.FloatValue(4)}},
			{ID: "v4", VariableCollectionID: "c1", ResolvedType: figma.ResolvedTypeString, DeletedButReferenced: true},
			{ID: "v5", VariableCollectionID: "missing", ResolvedType: figma.ResolvedTypeBoolean},
		},
	)
}

func TestCollect(t *testing.T) {
	got, err := Collect(context.Background(), testSource())
	require.NoError(t, err)
	require.Len(t, got, 2)

	colors := got[0]
	assert.Equal(t, "Colors", colors.Name)
	assert.Equal(t, "Dark", colors.DefaultMode)
	assert.Equal(t, 3, colors.VariableCount)
	assert.Equal(t, map[string]int{"color": 2, "number": 1}, colors.TypeCounts)
	assert.Equal(t, 1, colors.AliasCount)

	assert.Equal(t, 0, got[1].VariableCount)
	assert.Empty(t, got[1].TypeCounts)
}

func TestMarkdown(t *testing.T) {
	got, err := Collect(context.Background(), testSource())
	require.NoError(t, err)

	md := Markdown(got, "Design System")
	assert.Contains(t, md, "# Variable Collections - Design System\n")
	assert.Contains(t, md, "| Colors | `c1` | Dark | Light, Dark | 3 | 1 |\n")
	assert.Contains(t, md, "### Colors\n\n- color: 2\n- number: 1\n")

	assert.Contains(t, Markdown(nil, "x"), "No variable collections found.")
}
