package formatter

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

type w3cRenderer struct{}

func (w3cRenderer) Format() Format   { return W3C }
func (w3cRenderer) Filename() string { return "tokens.json" }

// Render emits the tree as nested JSON groups whose leaves are
// {"$type", "$value"} objects, keeping the tree's key order.
func (r w3cRenderer) Render(tree *tokens.Branch) (string, error) {
	doc, err := w3cGroup(tree)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", errors.Wrap(err, "w3c: encode")
	}
	return buf.String(), nil
}

type w3cObject = orderedmap.OrderedMap[string, any]

func w3cGroup(b *tokens.Branch) (*w3cObject, error) {
	group := orderedmap.New[string, any]()

	var err error
	b.Each(func(key string, n tokens.Node) bool {
		var child *w3cObject
		switch c := n.(type) {
		case *tokens.Branch:
			child, err = w3cGroup(c)
		case *tokens.Leaf:
			child, err = w3cToken(c)
		}
		if err != nil {
			return false
		}
		group.Set(key, child)
		return true
	})
	return group, err
}

func w3cToken(leaf *tokens.Leaf) (*w3cObject, error) {
	var value any
	switch t := leaf.Token.(type) {
	case tokens.Color:
		value = t.Display()
	case tokens.Text:
		value = t.Value
	case tokens.Boolean:
		value = t.Value
	case tokens.Dimension:
		value = json.Number(tokens.FormatNumber(t.Value))
	case tokens.Number:
		value = json.Number(tokens.FormatNumber(t.Value))
	default:
		return nil, unsupported(W3C, leaf)
	}

	obj := orderedmap.New[string, any]()
	obj.Set("$type", leaf.Token.Kind().String())
	obj.Set("$value", value)
	if leaf.Description != "" {
		obj.Set("$description", leaf.Description)
	}
	return obj, nil
}
