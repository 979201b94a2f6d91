package tokens

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is either a *Branch or a *Leaf.
type Node interface {
	node()
}

// Branch is a namespace in the token tree. Children keep insertion order,
// which is the order variables were added.
type Branch struct {
	children *orderedmap.OrderedMap[string, Node]
}

// Leaf holds one token. Path is the sanitized (kebab) segment list from the
// root; serializers derive their own casing from it.
type Leaf struct {
	Path        []string
	Name        string // original variable name
	VariableID  string
	Description string
	Scopes      []string
	Token       Token
}

func (*Branch) node() {}
func (*Leaf) node()   {}

// NewBranch returns an empty branch.
func NewBranch() *Branch {
	return &Branch{children: orderedmap.New[string, Node]()}
}

// Child returns the child stored under key.
func (b *Branch) Child(key string) (Node, bool) {
	return b.children.Get(key)
}

// Len returns the number of direct children.
func (b *Branch) Len() int {
	return b.children.Len()
}

// Each calls fn for every direct child in insertion order until fn returns false.
func (b *Branch) Each(fn func(key string, n Node) bool) {
	for pair := b.children.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Leaves returns every leaf below b in depth-first insertion order.
func (b *Branch) Leaves() []*Leaf {
	var out []*Leaf
	var walk func(*Branch)
	walk = func(br *Branch) {
		br.Each(func(_ string, n Node) bool {
			switch c := n.(type) {
			case *Leaf:
				out = append(out, c)
			case *Branch:
				walk(c)
			}
			return true
		})
	}
	walk(b)
	return out
}

func (b *Branch) set(key string, n Node) {
	b.children.Set(key, n)
}

// HasScope reports whether the token's variable carried the given scope.
func (l *Leaf) HasScope(scope string) bool {
	for _, s := range l.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
