// Package tokens converts resolved Figma variables into a platform-agnostic
// token tree that the formatters render.
package tokens

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// Kind is the token category a serializer switches on.
type Kind int

const (
	KindColor Kind = iota
	KindString
	KindBoolean
	KindDimension
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindDimension:
		return "dimension"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Token is one of Color, Text, Boolean, Dimension or Number.
type Token interface {
	Kind() Kind
	// Display is the platform-neutral rendering, e.g. "#aabbcc", "\"Inter\"" or "16px".
	Display() string
	sealed()
}

// Color keeps the 0-1 float channels so that platforms needing float precision
// do not have to parse the display string back.
type Color struct {
	RGBA figma.Color
}

// Text is a string token. Value is unquoted.
type Text struct {
	Value string
}

// Boolean is a boolean token.
type Boolean struct {
	Value bool
}

// Dimension is a pixel measure.
type Dimension struct {
	Value float64
}

// Number is a unit-less measure (font weight, opacity, line height).
type Number struct {
	Value float64
}

func (Color) Kind() Kind     { return KindColor }
func (Text) Kind() Kind      { return KindString }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Dimension) Kind() Kind { return KindDimension }
func (Number) Kind() Kind    { return KindNumber }

func (Color) sealed()     {}
func (Text) sealed()      {}
func (Boolean) sealed()   {}
func (Dimension) sealed() {}
func (Number) sealed()    {}

// Display renders #rrggbb for opaque colors and rgba() otherwise.
func (c Color) Display() string {
	if c.Opaque() {
		return c.Hex()
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %.3f)", c.R8(), c.G8(), c.B8(), clamp01(c.RGBA.A))
}

func (t Text) Display() string      { return Quote(t.Value) }
func (b Boolean) Display() string   { return strconv.FormatBool(b.Value) }
func (d Dimension) Display() string { return FormatNumber(d.Value) + "px" }
func (n Number) Display() string    { return FormatNumber(n.Value) }

// Opaque reports whether alpha is 1.
func (c Color) Opaque() bool { return c.A8() == 255 }

// Hex returns #rrggbb (lowercase), ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R8(), c.G8(), c.B8())
}

// R8, G8, B8 and A8 return the channels scaled to 0-255.
func (c Color) R8() int { return channel(c.RGBA.R) }
func (c Color) G8() int { return channel(c.RGBA.G) }
func (c Color) B8() int { return channel(c.RGBA.B) }
func (c Color) A8() int { return channel(c.RGBA.A) }

func channel(v float64) int {
	return int(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// FormatNumber prints f with at most four decimals and no trailing zeros.
// Figma stores numbers as float32, so 0.3 arrives as 0.30000001192092896.
func FormatNumber(f float64) string {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Quote wraps s in double quotes, escaping backslashes and double quotes.
func Quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// ErrTypeMismatch is returned when a value's kind does not match the variable's resolved type.
var ErrTypeMismatch = errors.New("value does not match resolved type")

// unitless lists the scopes that render FLOAT variables as Number.
var unitless = []string{figma.ScopeFontWeight, figma.ScopeOpacity, figma.ScopeLineHeight}

// NewToken converts a resolved primitive of v into a Token.
func NewToken(v *figma.Variable, val figma.Value) (Token, error) {
	want := map[figma.ResolvedType]figma.ValueKind{
		figma.ResolvedTypeColor:   figma.KindColor,
		figma.ResolvedTypeString:  figma.KindString,
		figma.ResolvedTypeBoolean: figma.KindBoolean,
		figma.ResolvedTypeFloat:   figma.KindFloat,
	}[v.ResolvedType]

	if want == figma.KindInvalid || val.Kind != want {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s is %s but holds %s", v.Name, v.ResolvedType, val.Kind)
	}

	switch val.Kind {
	case figma.KindColor:
		return Color{RGBA: val.Color}, nil
	case figma.KindString:
		return Text{Value: val.String}, nil
	case figma.KindBoolean:
		return Boolean{Value: val.Boolean}, nil
	default:
		for _, s := range unitless {
			if v.HasScope(s) {
				return Number{Value: val.Float}, nil
			}
		}
		return Dimension{Value: val.Float}, nil
	}
}
