package formatter

import (
	"fmt"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type swiftRenderer struct{}

func (swiftRenderer) Format() Format   { return Swift }
func (swiftRenderer) Filename() string { return "AppTokens.swift" }

// Render emits a struct of static constants. Colors become UIColor with 0-1
// channels, dimensions and numbers CGFloat.
func (r swiftRenderer) Render(tree *tokens.Branch) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("// %s\n\n", generatedNotice))
	sb.WriteString("import UIKit\n\n")
	sb.WriteString("struct AppTokens {\n")

	ids := newIdentifiers("")
	first := true
	err := Walk(tree, Visitor{
		Branch: func(path []string, depth int) error {
			if depth != 1 {
				return nil
			}
			if !first {
				sb.WriteString("\n")
			}
			first = false
			sb.WriteString(fmt.Sprintf("    // MARK: - %s\n", path[0]))
			return nil
		},
		Leaf: func(leaf *tokens.Leaf) error {
			decl, err := swiftDecl(leaf)
			if err != nil {
				return err
			}
			sb.WriteString(fmt.Sprintf("    static let %s%s\n", swiftIdentifier(ids.claim(variants(leaf).Camel)), decl))
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

// swiftDecl returns everything after the constant name.
func swiftDecl(leaf *tokens.Leaf) (string, error) {
	switch t := leaf.Token.(type) {
	case tokens.Color:
		return fmt.Sprintf(" = UIColor(red: %.3f, green: %.3f, blue: %.3f, alpha: %.3f)",
			unit(t.RGBA.R), unit(t.RGBA.G), unit(t.RGBA.B), unit(t.RGBA.A)), nil
	case tokens.Text:
		return " = " + swiftString(t.Value), nil
	case tokens.Boolean:
		return " = " + t.Display(), nil
	case tokens.Dimension:
		return ": CGFloat = " + tokens.FormatNumber(t.Value), nil
	case tokens.Number:
		return ": CGFloat = " + tokens.FormatNumber(t.Value), nil
	default:
		return "", unsupported(Swift, leaf)
	}
}

var swiftEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func swiftString(s string) string {
	return `"` + swiftEscaper.Replace(s) + `"`
}

func unit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var swiftKeywords = keywordSet(
	"associatedtype", "class", "deinit", "enum", "extension", "fileprivate", "func",
	"import", "init", "inout", "internal", "let", "open", "operator", "private",
	"precedencegroup", "protocol", "public", "rethrows", "static", "struct",
	"subscript", "typealias", "var", "break", "case", "catch", "continue",
	"default", "defer", "do", "else", "fallthrough", "for", "guard", "if", "in",
	"repeat", "return", "throw", "switch", "where", "while", "as", "await",
	"false", "is", "nil", "self", "super", "throws", "true", "try",
)

// swiftIdentifier escapes reserved words with backticks.
func swiftIdentifier(name string) string {
	if swiftKeywords[name] {
		return "`" + name + "`"
	}
	return name
}
