package figma

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ValueKind discriminates the variants a mode value can take.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindColor
	KindFloat
	KindString
	KindBoolean
	KindAlias
)

func (k ValueKind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindAlias:
		return "alias"
	default:
		return "invalid"
	}
}

// aliasType is the type tag Figma uses for variable alias values.
const aliasType = "VARIABLE_ALIAS"

// Value is a single per-mode value of a variable: either a primitive or an
// alias pointing at another variable's ID. Only the field matching Kind is set.
type Value struct {
	Kind    ValueKind
	Color   Color
	Float   float64
	String  string
	Boolean bool
	AliasID string
}

// ColorValue returns a color primitive.
func ColorValue(c Color) Value { return Value{Kind: KindColor, Color: c} }

// FloatValue returns a float primitive.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringValue returns a string primitive.
func StringValue(s string) Value { return Value{Kind: KindString, String: s} }

// BooleanValue returns a boolean primitive.
func BooleanValue(b bool) Value { return Value{Kind: KindBoolean, Boolean: b} }

// AliasValue returns an alias to the variable with the given ID.
func AliasValue(id string) Value { return Value{Kind: KindAlias, AliasID: id} }

// IsAlias reports whether the value points at another variable.
func (v Value) IsAlias() bool { return v.Kind == KindAlias }

// rawObject is the union of the object-shaped values Figma sends:
// {"type":"VARIABLE_ALIAS","id":"..."} or {"r":..,"g":..,"b":..,"a":..}.
type rawObject struct {
	Type string   `json:"type" yaml:"type"`
	ID   string   `json:"id" yaml:"id"`
	R    *float64 `json:"r" yaml:"r"`
	G    *float64 `json:"g" yaml:"g"`
	B    *float64 `json:"b" yaml:"b"`
	A    *float64 `json:"a" yaml:"a"`
}

func (o rawObject) value() (Value, error) {
	if o.Type == aliasType {
		if o.ID == "" {
			return Value{}, errors.New("variable alias without id")
		}
		return AliasValue(o.ID), nil
	}
	if o.R == nil || o.G == nil || o.B == nil {
		return Value{}, errors.Newf("unsupported object value (type %q)", o.Type)
	}
	c := Color{R: *o.R, G: *o.G, B: *o.B, A: 1}
	if o.A != nil {
		c.A = *o.A
	}
	return ColorValue(c), nil
}

// UnmarshalJSON decodes a Figma mode value.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty variable value")
	}

	switch data[0] {
	case '{':
		var o rawObject
		if err := json.Unmarshal(data, &o); err != nil {
			return errors.Wrap(err, "decode object value")
		}
		val, err := o.value()
		if err != nil {
			return err
		}
		*v = val
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decode string value")
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return errors.Wrap(err, "decode boolean value")
		}
		*v = BooleanValue(b)
	case 'n':
		return errors.New("null variable value")
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return errors.Wrapf(err, "decode number value %q", data)
		}
		*v = FloatValue(f)
	}

	return nil
}

// UnmarshalYAML decodes a mode value from a YAML snapshot using the same
// shapes as the JSON API.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var o rawObject
		if err := node.Decode(&o); err != nil {
			return errors.Wrap(err, "decode object value")
		}
		val, err := o.value()
		if err != nil {
			return err
		}
		*v = val
		return nil
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return errors.Wrap(err, "decode boolean value")
			}
			*v = BooleanValue(b)
		case "!!int", "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return errors.Wrap(err, "decode number value")
			}
			*v = FloatValue(f)
		case "!!null":
			return errors.New("null variable value")
		default:
			*v = StringValue(node.Value)
		}
		return nil
	default:
		return errors.Newf("unsupported YAML node kind %d for variable value", node.Kind)
	}
}

type aliasObject struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// wire returns the API shape of v.
func (v Value) wire() (any, error) {
	switch v.Kind {
	case KindColor:
		return v.Color, nil
	case KindFloat:
		return v.Float, nil
	case KindString:
		return v.String, nil
	case KindBoolean:
		return v.Boolean, nil
	case KindAlias:
		return aliasObject{Type: aliasType, ID: v.AliasID}, nil
	default:
		return nil, errors.New("cannot encode an invalid variable value")
	}
}

// MarshalJSON encodes v in the shape the API sends.
func (v Value) MarshalJSON() ([]byte, error) {
	w, err := v.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// MarshalYAML encodes v in the shape UnmarshalYAML accepts.
func (v Value) MarshalYAML() (any, error) {
	return v.wire()
}
