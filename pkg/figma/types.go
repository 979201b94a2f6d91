package figma

// LocalVariablesResponse represents the response from the Figma local variables endpoint
// (GET /v1/files/:key/variables/local). Variables and collections are keyed by their IDs.
type LocalVariablesResponse struct {
	Status int                `json:"status" yaml:"status"`
	Error  bool               `json:"error" yaml:"error"`
	Meta   LocalVariablesMeta `json:"meta" yaml:"meta"`
}

// LocalVariablesMeta holds the variable and collection maps of a LocalVariablesResponse.
type LocalVariablesMeta struct {
	Variables           map[string]Variable           `json:"variables" yaml:"variables"`
	VariableCollections map[string]VariableCollection `json:"variableCollections" yaml:"variableCollections"`
}

// ResolvedType is the primitive type a variable resolves to once every alias is followed.
type ResolvedType string

const (
	ResolvedTypeColor   ResolvedType = "COLOR"
	ResolvedTypeString  ResolvedType = "STRING"
	ResolvedTypeBoolean ResolvedType = "BOOLEAN"
	ResolvedTypeFloat   ResolvedType = "FLOAT"
)

// Usage scopes that make a FLOAT variable render without a unit.
const (
	ScopeFontWeight = "FONT_WEIGHT"
	ScopeOpacity    = "OPACITY"
	ScopeLineHeight = "LINE_HEIGHT"
)

// Variable represents a single Figma variable. Name is slash-delimited
// (e.g. "color/brand/primary") and ValuesByMode maps a mode ID to either a
// primitive value or an alias to another variable.
type Variable struct {
	ID                   string            `json:"id" yaml:"id"`
	Name                 string            `json:"name" yaml:"name"`
	Key                  string            `json:"key" yaml:"key"`
	VariableCollectionID string            `json:"variableCollectionId" yaml:"variableCollectionId"`
	ResolvedType         ResolvedType      `json:"resolvedType" yaml:"resolvedType"`
	ValuesByMode         map[string]Value  `json:"valuesByMode" yaml:"valuesByMode"`
	Scopes               []string          `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	Remote               bool              `json:"remote,omitempty" yaml:"remote,omitempty"`
	HiddenFromPublishing bool              `json:"hiddenFromPublishing,omitempty" yaml:"hiddenFromPublishing,omitempty"`
	DeletedButReferenced bool              `json:"deletedButReferenced,omitempty" yaml:"deletedButReferenced,omitempty"`
	CodeSyntax           map[string]string `json:"codeSyntax,omitempty" yaml:"codeSyntax,omitempty"`
}

// HasScope reports whether the variable carries the given usage scope.
func (v *Variable) HasScope(scope string) bool {
	for _, s := range v.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// VariableCollection groups variables that share a set of modes.
type VariableCollection struct {
	ID                   string   `json:"id" yaml:"id"`
	Name                 string   `json:"name" yaml:"name"`
	Key                  string   `json:"key" yaml:"key"`
	Modes                []Mode   `json:"modes" yaml:"modes"`
	DefaultModeID        string   `json:"defaultModeId" yaml:"defaultModeId"`
	Remote               bool     `json:"remote,omitempty" yaml:"remote,omitempty"`
	HiddenFromPublishing bool     `json:"hiddenFromPublishing,omitempty" yaml:"hiddenFromPublishing,omitempty"`
	VariableIDs          []string `json:"variableIds" yaml:"variableIds"`
}

// Mode is a named variant of a collection, e.g. "Light" or "Dark".
type Mode struct {
	ModeID string `json:"modeId" yaml:"modeId"`
	Name   string `json:"name" yaml:"name"`
}

// Color represents an RGBA color with float values ranging from 0 to 1.
// The R, G, B, and A (alpha/opacity) values must be converted to 0-255 range for standard use.
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}
