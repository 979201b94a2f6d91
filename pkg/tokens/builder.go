package tokens

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/naming"
)

// ErrPathConflict is returned when a variable's path runs through an existing token.
var ErrPathConflict = errors.New("token path conflicts with an existing token")

// Collision records a variable whose terminal path was already taken and
// that was stored under a suffixed key instead.
type Collision struct {
	VariableID string
	Name       string
	Wanted     []string
	Stored     []string
}

// Builder assembles a token tree from resolved variables.
type Builder struct {
	root       *Branch
	collisions []Collision
}

// NewBuilder returns a Builder with an empty tree.
func NewBuilder() *Builder {
	return &Builder{root: NewBranch()}
}

// Tree returns the tree built so far.
func (b *Builder) Tree() *Branch {
	return b.root
}

// Collisions returns every disambiguated path, in insertion order.
func (b *Builder) Collisions() []Collision {
	return b.collisions
}

// Path splits a slash-delimited variable name into sanitized segments.
// Blank segments are dropped.
func Path(name string) []string {
	var path []string
	for _, seg := range strings.Split(name, "/") {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		path = append(path, naming.Sanitize(seg, naming.W3C))
	}
	if len(path) == 0 {
		path = []string{naming.Sanitize("", naming.W3C)}
	}
	return path
}

// Add converts val (already resolved) into a token and attaches it under the
// variable's path. A terminal key that is already taken, by a token or by a
// namespace, is suffixed (-2, -3, ...) and reported through Collisions.
// A path that would descend through an existing token is rejected with ErrPathConflict.
func (b *Builder) Add(v *figma.Variable, val figma.Value) (*Leaf, error) {
	tok, err := NewToken(v, val)
	if err != nil {
		return nil, err
	}

	path := Path(v.Name)
	node := b.root
	for i, seg := range path[:len(path)-1] {
		child, ok := node.Child(seg)
		if !ok {
			next := NewBranch()
			node.set(seg, next)
			node = next
			continue
		}
		switch c := child.(type) {
		case *Branch:
			node = c
		case *Leaf:
			return nil, errors.Wrapf(ErrPathConflict, "%s: %q is already a token (%s)",
				v.Name, strings.Join(path[:i+1], "/"), c.Name)
		}
	}

	last := path[len(path)-1]
	key := last
	if _, taken := node.Child(key); taken {
		for n := 2; ; n++ {
			key = fmt.Sprintf("%s-%d", last, n)
			if _, taken := node.Child(key); !taken {
				break
			}
		}
	}

	stored := append(append([]string{}, path[:len(path)-1]...), key)
	if key != last {
		b.collisions = append(b.collisions, Collision{
			VariableID: v.ID,
			Name:       v.Name,
			Wanted:     path,
			Stored:     stored,
		})
	}

	leaf := &Leaf{
		Path:        stored,
		Name:        v.Name,
		VariableID:  v.ID,
		Description: v.Description,
		Scopes:      append([]string(nil), v.Scopes...),
		Token:       tok,
	}
	node.set(key, leaf)

	return leaf, nil
}
