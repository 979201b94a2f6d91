// Package inventory summarizes the variable collections of a file so that a
// host can offer them for selection before exporting.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/source"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

// Collection describes one variable collection.
type Collection struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Modes         []figma.Mode `json:"modes"`
	DefaultModeID string       `json:"defaultModeId"`
	DefaultMode   string       `json:"defaultMode"`
	Remote        bool         `json:"remote,omitempty"`

	// VariableCount counts exportable variables (deleted ones excluded).
	VariableCount int `json:"variableCount"`
	// TypeCounts is keyed by token type name (color, string, boolean, number).
	TypeCounts map[string]int `json:"typeCounts"`
	// AliasCount counts variables whose default-mode value is an alias.
	AliasCount int `json:"aliasCount"`
}

// Collect reads src and summarizes it.
func Collect(ctx context.Context, src source.Source) ([]Collection, error) {
	data, err := source.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return Summarize(data), nil
}

// Summarize builds one Collection per collection of data, in source order.
func Summarize(data *source.Data) []Collection {
	out := make([]Collection, 0, len(data.Collections))
	index := make(map[string]int, len(data.Collections))

	for _, c := range data.Collections {
		summary := Collection{
			ID:            c.ID,
			Name:          c.Name,
			Modes:         append([]figma.Mode{}, c.Modes...),
			DefaultModeID: c.DefaultModeID,
			Remote:        c.Remote,
			TypeCounts:    make(map[string]int, len(tokens.Types)),
		}
		for _, m := range c.Modes {
			if m.ModeID == c.DefaultModeID {
				summary.DefaultMode = m.Name
			}
		}
		index[c.ID] = len(out)
		out = append(out, summary)
	}

	for _, v := range data.Variables {
		i, ok := index[v.VariableCollectionID]
		if !ok || v.DeletedButReferenced {
			continue
		}
		summary := &out[i]
		summary.VariableCount++
		if name := tokens.TypeName(v.ResolvedType); name != "" {
			summary.TypeCounts[name]++
		}
		if val, ok := v.ValuesByMode[summary.DefaultModeID]; ok && val.IsAlias() {
			summary.AliasCount++
		}
	}

	return out
}

// Markdown renders the summaries as a markdown document.
func Markdown(collections []Collection, title string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Variable Collections - %s\n\n", title))
	if len(collections) == 0 {
		sb.WriteString("No variable collections found.\n")
		return sb.String()
	}

	sb.WriteString("| Collection | ID | Default mode | Modes | Variables | Aliases |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range collections {
		modes := make([]string, len(c.Modes))
		for i, m := range c.Modes {
			modes[i] = m.Name
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s | %d | %d |\n",
			c.Name, c.ID, c.DefaultMode, strings.Join(modes, ", "), c.VariableCount, c.AliasCount))
	}

	sb.WriteString("\n## Token Types\n\n")
	for _, c := range collections {
		sb.WriteString(fmt.Sprintf("### %s\n\n", c.Name))
		for _, typ := range tokens.Types {
			if n := c.TypeCounts[typ]; n > 0 {
				sb.WriteString(fmt.Sprintf("- %s: %d\n", typ, n))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
