// Package resolve follows variable aliases down to concrete primitive values.
package resolve

import (
	"go.uber.org/zap"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// DefaultMaxDepth bounds the number of distinct variables a single resolution may visit.
const DefaultMaxDepth = 100

// Lookup finds variables by ID.
type Lookup interface {
	Variable(id string) (*figma.Variable, bool)
}

// ModeLookup is optionally implemented by a Lookup that also knows collection
// default modes. It lets an alias that crosses into another collection be
// read at that collection's default mode.
type ModeLookup interface {
	DefaultMode(collectionID string) (string, bool)
}

// Visited is the set of variable IDs seen during one top-level resolution.
type Visited map[string]struct{}

// Index is a map-backed Lookup over a variable/collection snapshot.
type Index struct {
	variables    map[string]*figma.Variable
	defaultModes map[string]string
}

// NewIndex indexes variables by ID and collections by default mode.
func NewIndex(variables []figma.Variable, collections []figma.VariableCollection) *Index {
	idx := &Index{
		variables:    make(map[string]*figma.Variable, len(variables)),
		defaultModes: make(map[string]string, len(collections)),
	}
	for i := range variables {
		idx.variables[variables[i].ID] = &variables[i]
	}
	for _, c := range collections {
		idx.defaultModes[c.ID] = c.DefaultModeID
	}
	return idx
}

// Variable implements Lookup.
func (idx *Index) Variable(id string) (*figma.Variable, bool) {
	v, ok := idx.variables[id]
	return v, ok
}

// DefaultMode implements ModeLookup.
func (idx *Index) DefaultMode(collectionID string) (string, bool) {
	m, ok := idx.defaultModes[collectionID]
	return m, ok
}

// Resolver resolves variable values through alias chains. Every failure
// (missing mode, dangling alias, cycle, depth overflow) is reported as a miss,
// never as an error or panic.
type Resolver struct {
	Lookup   Lookup
	MaxDepth int         // zero means DefaultMaxDepth
	Logger   *zap.Logger // nil = no logging
}

// Resolve returns the primitive value of v at modeID using a fresh visited set.
func (r *Resolver) Resolve(v *figma.Variable, modeID string) (figma.Value, bool) {
	return r.ResolveVisited(v, modeID, make(Visited))
}

// ResolveVisited resolves v at modeID, sharing visited with the caller so
// that every hop of one chain participates in the same cycle detection.
func (r *Resolver) ResolveVisited(v *figma.Variable, modeID string, visited Visited) (figma.Value, bool) {
	if v == nil {
		return figma.Value{}, false
	}
	if _, seen := visited[v.ID]; seen {
		return figma.Value{}, false
	}

	visited[v.ID] = struct{}{}
	if len(visited) > r.maxDepth() {
		r.logger().Warn("alias chain exceeds depth bound",
			zap.String("variable", v.Name),
			zap.String("id", v.ID),
			zap.Int("maxDepth", r.maxDepth()))
		return figma.Value{}, false
	}

	val, ok := v.ValuesByMode[modeID]
	if !ok {
		return figma.Value{}, false
	}

	if !val.IsAlias() {
		return val, true
	}

	if r.Lookup == nil {
		return figma.Value{}, false
	}
	target, ok := r.Lookup.Variable(val.AliasID)
	if !ok {
		return figma.Value{}, false
	}

	return r.ResolveVisited(target, r.targetMode(v, target, modeID), visited)
}

// targetMode keeps modeID within a collection; crossing into another
// collection switches to that collection's default mode when it is known.
func (r *Resolver) targetMode(from, to *figma.Variable, modeID string) string {
	if from.VariableCollectionID == to.VariableCollectionID {
		return modeID
	}
	if _, ok := to.ValuesByMode[modeID]; ok {
		return modeID
	}
	if ml, ok := r.Lookup.(ModeLookup); ok {
		if m, ok := ml.DefaultMode(to.VariableCollectionID); ok {
			return m
		}
	}
	return modeID
}

func (r *Resolver) maxDepth() int {
	if r.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return r.MaxDepth
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
