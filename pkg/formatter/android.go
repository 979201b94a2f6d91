package formatter

import (
	"fmt"
	"math"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type androidRenderer struct{}

func (androidRenderer) Format() Format   { return Android }
func (androidRenderer) Filename() string { return "resources.xml" }

// Render emits an Android values resource file.
func (r androidRenderer) Render(tree *tokens.Branch) (string, error) {
	var sb strings.Builder

	sb.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	sb.WriteString(fmt.Sprintf("<!-- %s -->\n", generatedNotice))
	sb.WriteString("<resources>\n")

	ids := newIdentifiers("_")
	err := Walk(tree, Visitor{
		Branch: func(path []string, depth int) error {
			if depth == 1 {
				sb.WriteString(fmt.Sprintf("    <!-- %s -->\n", path[0]))
			}
			return nil
		},
		Leaf: func(leaf *tokens.Leaf) error {
			elem, err := androidElement(ids.claim(variants(leaf).Snake), leaf)
			if err != nil {
				return err
			}
			sb.WriteString("    " + elem + "\n")
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	sb.WriteString("</resources>\n")
	return sb.String(), nil
}

func androidElement(name string, leaf *tokens.Leaf) (string, error) {
	switch t := leaf.Token.(type) {
	case tokens.Color:
		return fmt.Sprintf(`<color name="%s">%s</color>`, name, androidColor(t)), nil
	case tokens.Text:
		return fmt.Sprintf(`<string name="%s">%s</string>`, name, androidString(t.Value)), nil
	case tokens.Boolean:
		return fmt.Sprintf(`<bool name="%s">%s</bool>`, name, t.Display()), nil
	case tokens.Dimension:
		return fmt.Sprintf(`<dimen name="%s">%sdp</dimen>`, name, tokens.FormatNumber(t.Value)), nil
	case tokens.Number:
		if leaf.HasScope(figma.ScopeFontWeight) && t.Value == math.Trunc(t.Value) {
			return fmt.Sprintf(`<integer name="%s">%s</integer>`, name, tokens.FormatNumber(t.Value)), nil
		}
		return fmt.Sprintf(`<item name="%s" format="float" type="dimen">%s</item>`, name, tokens.FormatNumber(t.Value)), nil
	default:
		return "", unsupported(Android, leaf)
	}
}

// androidColor returns #RRGGBB, or #AARRGGBB when the color is translucent.
func androidColor(c tokens.Color) string {
	if c.Opaque() {
		return fmt.Sprintf("#%02X%02X%02X", c.R8(), c.G8(), c.B8())
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A8(), c.R8(), c.G8(), c.B8())
}

var androidEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `'`, `\'`, "\n", `\n`, "\t", `\t`,
	"&", "&amp;", "<", "&lt;", ">", "&gt;",
)

// androidString escapes s for a <string> resource. A leading @ or ? would be
// read as a resource reference.
func androidString(s string) string {
	out := androidEscaper.Replace(s)
	if strings.HasPrefix(out, "@") || strings.HasPrefix(out, "?") {
		out = `\` + out
	}
	return out
}
