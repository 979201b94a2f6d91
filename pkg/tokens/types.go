package tokens

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// Token type names used when selecting which variables to export.
const (
	TypeColor   = "color"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
)

// Types lists the selectable token types.
var Types = []string{TypeColor, TypeString, TypeBoolean, TypeNumber}

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("unknown token type")

// ParseType maps a token type name to the resolved type it selects.
// "float" and "dimension" are accepted for number.
func ParseType(s string) (figma.ResolvedType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case TypeColor:
		return figma.ResolvedTypeColor, nil
	case TypeString:
		return figma.ResolvedTypeString, nil
	case TypeBoolean:
		return figma.ResolvedTypeBoolean, nil
	case TypeNumber, "float", "dimension":
		return figma.ResolvedTypeFloat, nil
	default:
		return "", errors.Wrapf(ErrUnknownType, "%q", s)
	}
}

// TypeName is the selection name of a resolved type, or "" if it has none.
func TypeName(rt figma.ResolvedType) string {
	switch rt {
	case figma.ResolvedTypeColor:
		return TypeColor
	case figma.ResolvedTypeString:
		return TypeString
	case figma.ResolvedTypeBoolean:
		return TypeBoolean
	case figma.ResolvedTypeFloat:
		return TypeNumber
	default:
		return ""
	}
}
