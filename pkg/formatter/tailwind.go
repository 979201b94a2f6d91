package formatter

import (
	"fmt"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type tailwindRenderer struct{}

func (tailwindRenderer) Format() Format   { return Tailwind }
func (tailwindRenderer) Filename() string { return "tailwind.config.js" }

// Theme keys under theme.extend, in output order.
var tailwindBuckets = []string{"colors", "spacing", "borderRadius", "fontSize", "fontWeight", "lineHeight"}

type tailwindEntry struct {
	key, value string
}

// Render emits a Tailwind config extending the theme. Strings and booleans
// have no theme slot and are left out.
func (r tailwindRenderer) Render(tree *tokens.Branch) (string, error) {
	buckets := make(map[string][]tailwindEntry, len(tailwindBuckets))
	ids := make(map[string]*identifiers, len(tailwindBuckets))
	for _, b := range tailwindBuckets {
		ids[b] = newIdentifiers("-")
	}

	err := Walk(tree, Visitor{
		Leaf: func(leaf *tokens.Leaf) error {
			bucket, value, ok, err := tailwindSlot(leaf)
			if err != nil || !ok {
				return err
			}
			buckets[bucket] = append(buckets[bucket], tailwindEntry{
				key:   ids[bucket].claim(variants(leaf).Kebab),
				value: value,
			})
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("/** @type {import('tailwindcss').Config} */\n")
	sb.WriteString(fmt.Sprintf("// %s\n", generatedNotice))
	sb.WriteString("module.exports = {\n")
	sb.WriteString("  theme: {\n")
	sb.WriteString("    extend: {\n")

	for _, name := range tailwindBuckets {
		entries := buckets[name]
		if len(entries) == 0 {
			sb.WriteString(fmt.Sprintf("      %s: {},\n", name))
			continue
		}
		sb.WriteString(fmt.Sprintf("      %s: {\n", name))
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("        %s: %s,\n", jsString(e.key), jsString(e.value)))
		}
		sb.WriteString("      },\n")
	}

	sb.WriteString("    },\n")
	sb.WriteString("  },\n")
	sb.WriteString("};\n")
	return sb.String(), nil
}

// tailwindSlot picks the theme bucket of a token from its scopes and then
// from substrings of its kebab name.
func tailwindSlot(leaf *tokens.Leaf) (bucket, value string, ok bool, err error) {
	switch t := leaf.Token.(type) {
	case tokens.Color:
		return "colors", t.Display(), true, nil
	case tokens.Text, tokens.Boolean:
		return "", "", false, nil
	case tokens.Dimension, tokens.Number:
		name := variants(leaf).Kebab
		raw := rawNumber(t)
		switch {
		case leaf.HasScope(figma.ScopeFontWeight) || strings.Contains(name, "font-weight"):
			return "fontWeight", raw, true, nil
		case leaf.HasScope(figma.ScopeLineHeight) || strings.Contains(name, "line-height"):
			return "lineHeight", raw, true, nil
		case strings.Contains(name, "radius"):
			return "borderRadius", t.Display(), true, nil
		case strings.Contains(name, "font-size"):
			return "fontSize", t.Display(), true, nil
		default:
			return "spacing", t.Display(), true, nil
		}
	default:
		return "", "", false, unsupported(Tailwind, leaf)
	}
}

func rawNumber(t tokens.Token) string {
	switch n := t.(type) {
	case tokens.Dimension:
		return tokens.FormatNumber(n.Value)
	case tokens.Number:
		return tokens.FormatNumber(n.Value)
	}
	return t.Display()
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\u2028", `\u2028`, "\u2029", `\u2029`)

func jsString(s string) string {
	return `"` + jsEscaper.Replace(s) + `"`
}
