// Package source supplies the raw variable and collection records an export
// runs on: live from the Figma REST API, from a saved snapshot file, or from
// memory.
package source

import (
	"context"
	"sort"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// Source supplies variables and their collections. Implementations must
// return them in a stable order so that repeated exports are identical.
type Source interface {
	Collections(ctx context.Context) ([]figma.VariableCollection, error)
	Variables(ctx context.Context) ([]figma.Variable, error)
}

// Data is everything a source holds, read in one go.
type Data struct {
	Collections []figma.VariableCollection
	Variables   []figma.Variable
}

// Loader is implemented by sources that read collections and variables
// together, so Fetch does a single round trip.
type Loader interface {
	Load(ctx context.Context) (*Data, error)
}

// Fetch reads all of src.
func Fetch(ctx context.Context, src Source) (*Data, error) {
	if l, ok := src.(Loader); ok {
		return l.Load(ctx)
	}

	cols, err := src.Collections(ctx)
	if err != nil {
		return nil, err
	}
	vars, err := src.Variables(ctx)
	if err != nil {
		return nil, err
	}
	return &Data{Collections: cols, Variables: vars}, nil
}

// FromMeta flattens the ID-keyed maps of the variables endpoint into ordered
// slices. Collections sort by name, then ID. Variables follow their
// collection's variableIds; any variable not listed there comes after, sorted by ID.
func FromMeta(meta figma.LocalVariablesMeta) *Data {
	data := &Data{
		Collections: make([]figma.VariableCollection, 0, len(meta.VariableCollections)),
		Variables:   make([]figma.Variable, 0, len(meta.Variables)),
	}

	for id, c := range meta.VariableCollections {
		if c.ID == "" {
			c.ID = id
		}
		data.Collections = append(data.Collections, c)
	}
	sort.Slice(data.Collections, func(i, j int) bool {
		a, b := data.Collections[i], data.Collections[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	placed := make(map[string]bool, len(meta.Variables))
	take := func(id string) {
		v, ok := meta.Variables[id]
		if !ok || placed[id] {
			return
		}
		if v.ID == "" {
			v.ID = id
		}
		placed[id] = true
		data.Variables = append(data.Variables, v)
	}

	for _, c := range data.Collections {
		for _, id := range c.VariableIDs {
			take(id)
		}
	}

	rest := make([]string, 0, len(meta.Variables)-len(placed))
	for id := range meta.Variables {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		take(id)
	}

	return data
}

// Static serves fixed data, in the order given.
type Static struct {
	Data Data
}

// NewStatic returns a Static source over cols and vars.
func NewStatic(cols []figma.VariableCollection, vars []figma.Variable) *Static {
	return &Static{Data: Data{Collections: cols, Variables: vars}}
}

func (s *Static) Load(ctx context.Context) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := s.Data
	return &d, nil
}

func (s *Static) Collections(ctx context.Context) ([]figma.VariableCollection, error) {
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Collections, nil
}

func (s *Static) Variables(ctx context.Context) ([]figma.Variable, error) {
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Variables, nil
}
