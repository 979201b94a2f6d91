package formatter

import (
	"fmt"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type cssRenderer struct{}

func (cssRenderer) Format() Format   { return CSS }
func (cssRenderer) Filename() string { return "tokens.css" }

// Render emits one custom property per token inside :root, with a comment
// line opening each top-level group.
func (r cssRenderer) Render(tree *tokens.Branch) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("/**\n * %s\n */\n\n", generatedNotice))
	sb.WriteString(":root {\n")

	ids := newIdentifiers("-")
	err := Walk(tree, Visitor{
		Branch: func(path []string, depth int) error {
			if depth == 1 {
				sb.WriteString(fmt.Sprintf("  /* %s */\n", path[0]))
			}
			return nil
		},
		Leaf: func(leaf *tokens.Leaf) error {
			value, err := cssValue(leaf)
			if err != nil {
				return err
			}
			sb.WriteString(fmt.Sprintf("  --%s: %s;\n", ids.claim(variants(leaf).Kebab), value))
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func cssValue(leaf *tokens.Leaf) (string, error) {
	switch t := leaf.Token.(type) {
	case tokens.Color, tokens.Text, tokens.Boolean, tokens.Dimension, tokens.Number:
		return t.Display(), nil
	default:
		return "", unsupported(CSS, leaf)
	}
}
