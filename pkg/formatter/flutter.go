package formatter

import (
	"fmt"
	"strings"

	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type flutterRenderer struct{}

func (flutterRenderer) Format() Format   { return Flutter }
func (flutterRenderer) Filename() string { return "app_tokens.dart" }

// Render emits a non-instantiable Dart class of static constants.
func (r flutterRenderer) Render(tree *tokens.Branch) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("// %s\n\n", generatedNotice))
	sb.WriteString("import 'package:flutter/material.dart';\n\n")
	sb.WriteString("class AppTokens {\n")
	sb.WriteString("  AppTokens._();\n")

	ids := newIdentifiers("")
	err := Walk(tree, Visitor{
		Branch: func(path []string, depth int) error {
			if depth == 1 {
				sb.WriteString(fmt.Sprintf("\n  // %s\n", path[0]))
			}
			return nil
		},
		Leaf: func(leaf *tokens.Leaf) error {
			typ, value, err := dartConst(leaf)
			if err != nil {
				return err
			}
			sb.WriteString(fmt.Sprintf("  static const %s %s = %s;\n", typ, ids.claim(dartIdentifier(variants(leaf).Camel)), value))
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func dartConst(leaf *tokens.Leaf) (typ, value string, err error) {
	switch t := leaf.Token.(type) {
	case tokens.Color:
		return "Color", fmt.Sprintf("Color(0x%02X%02X%02X%02X)", t.A8(), t.R8(), t.G8(), t.B8()), nil
	case tokens.Text:
		return "String", dartString(t.Value), nil
	case tokens.Boolean:
		return "bool", t.Display(), nil
	case tokens.Dimension:
		return "double", dartDouble(t.Value), nil
	case tokens.Number:
		return "double", dartDouble(t.Value), nil
	default:
		return "", "", unsupported(Flutter, leaf)
	}
}

func dartDouble(f float64) string {
	s := tokens.FormatNumber(f)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var dartEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `$`, `\$`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func dartString(s string) string {
	return "'" + dartEscaper.Replace(s) + "'"
}

var dartReserved = keywordSet(
	"assert", "break", "case", "catch", "class", "const", "continue", "default",
	"do", "else", "enum", "extends", "false", "final", "finally", "for", "if",
	"in", "is", "new", "null", "rethrow", "return", "super", "switch", "this",
	"throw", "true", "try", "var", "void", "while", "with",
)

// dartIdentifier suffixes reserved words, which Dart cannot escape.
func dartIdentifier(name string) string {
	if dartReserved[name] {
		return name + "Token"
	}
	return name
}
