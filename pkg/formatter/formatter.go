// Package formatter renders a token tree into source artifacts for each
// supported platform.
//
// Every renderer is a pure function of the tree: the same tree always yields
// byte-identical output, and no renderer mutates the tree it is given.
package formatter

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/naming"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

// Format names an output platform.
type Format string

const (
	CSS      Format = "css"
	Swift    Format = "swift"
	Android  Format = "android"
	Flutter  Format = "flutter"
	W3C      Format = "w3c"
	Tailwind Format = "tailwind"
)

// Formats lists every supported format in canonical order.
var Formats = []Format{CSS, Swift, Android, Flutter, W3C, Tailwind}

// ErrUnknownFormat is returned by ParseFormat and New for names outside Formats.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// File is one rendered artifact.
type File struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Renderer serializes a token tree for one platform.
type Renderer interface {
	Format() Format
	Filename() string
	Render(tree *tokens.Branch) (string, error)
}

// New returns the renderer of f.
func New(f Format) (Renderer, error) {
	switch f {
	case CSS:
		return cssRenderer{}, nil
	case Swift:
		return swiftRenderer{}, nil
	case Android:
		return androidRenderer{}, nil
	case Flutter:
		return flutterRenderer{}, nil
	case W3C:
		return w3cRenderer{}, nil
	case Tailwind:
		return tailwindRenderer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", string(f))
	}
}

// Visitor receives the nodes of a tree from Walk. Branch is called before the
// children of every branch below the root, Leaf for every token. Either may be nil.
type Visitor struct {
	Branch func(path []string, depth int) error
	Leaf   func(leaf *tokens.Leaf) error
}

// Walk visits tree depth-first in insertion order and stops at the first error.
func Walk(tree *tokens.Branch, v Visitor) error {
	return walk(tree, nil, v)
}

func walk(b *tokens.Branch, path []string, v Visitor) error {
	var err error
	b.Each(func(key string, n tokens.Node) bool {
		switch c := n.(type) {
		case *tokens.Branch:
			p := append(append([]string(nil), path...), key)
			if v.Branch != nil {
				if err = v.Branch(p, len(p)); err != nil {
					return false
				}
			}
			err = walk(c, p, v)
		case *tokens.Leaf:
			if v.Leaf != nil {
				err = v.Leaf(c)
			}
		}
		return err == nil
	})
	return err
}

// generatedNotice heads every artifact.
const generatedNotice = "Design tokens generated by figma-tokens. Do not edit."

// unsupported is returned by a renderer for a token type it cannot express.
func unsupported(f Format, leaf *tokens.Leaf) error {
	return errors.Newf("%s: unsupported token %T at %s", f, leaf.Token, strings.Join(leaf.Path, "/"))
}

// identifiers hands out names that are unique within one artifact. Distinct
// paths can flatten to the same identifier ("a-b" and "a/b"); later ones get
// a numeric suffix joined with sep.
type identifiers struct {
	used map[string]bool
	sep  string
}

func newIdentifiers(sep string) *identifiers {
	return &identifiers{used: make(map[string]bool), sep: sep}
}

func (ids *identifiers) claim(name string) string {
	got := name
	for n := 2; ids.used[got]; n++ {
		got = name + ids.sep + strconv.Itoa(n)
	}
	ids.used[got] = true
	return got
}

func keywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// variants returns the platform casings of a leaf.
func variants(leaf *tokens.Leaf) naming.Variants {
	return naming.NamingVariants(leaf.Path)
}
