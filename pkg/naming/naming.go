// Package naming turns designer-facing variable names into identifiers that
// are legal and conventional on each target platform.
package naming

import (
	"regexp"
	"strings"
	"unicode"
)

// Platform selects the identifier rules applied by Sanitize.
type Platform string

const (
	CSS      Platform = "css"
	Tailwind Platform = "tailwind"
	W3C      Platform = "w3c"
	Swift    Platform = "swift"
	Flutter  Platform = "flutter"
	Android  Platform = "android"
)

// Fallback is returned (in the platform's casing) when nothing usable is left of a name.
const Fallback = "unnamed-token"

// Casing is the word-joining convention of a platform.
type Casing int

const (
	Kebab Casing = iota
	Camel
	Snake
)

// Casing returns the casing convention of the platform.
func (p Platform) Casing() Casing {
	switch p {
	case Swift, Flutter:
		return Camel
	case Android:
		return Snake
	default:
		return Kebab
	}
}

// allowsLeadingDigit reports whether identifiers may start with a digit.
// Swift and Dart identifiers and Android resource names may not.
func (p Platform) allowsLeadingDigit() bool {
	return p != Swift && p != Flutter && p != Android
}

var parenthetical = regexp.MustCompile(`\([^()]*\)`)

// Sanitize converts a raw display name (optionally slash-delimited) into an
// identifier for the platform. The result is stable under re-sanitization.
func Sanitize(name string, platform Platform) string {
	ws := Words(name)
	if len(ws) == 0 {
		ws = Words(Fallback)
	}

	id := join(ws, platform.Casing())
	if platform.Casing() == Camel {
		// Adjacent one-letter words join into a run of capitals that reads
		// back as a single acronym ("aBC" -> a, bc). Rejoin until stable;
		// each changing pass merges words, so this terminates.
		for next := join(Words(id), Camel); next != id; next = join(Words(id), Camel) {
			id = next
		}
	}
	if !platform.allowsLeadingDigit() && startsWithDigit(id) {
		id = "_" + id
	}
	return id
}

// Words splits a name into lowercase words. Parenthetical annotations are
// dropped; any character that is not an ASCII letter or digit separates words,
// as do camelCase and acronym boundaries ("fontSize", "URLPath").
func Words(name string) []string {
	name = parenthetical.ReplaceAllString(name, " ")

	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		if !isAlnum(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1]) && runes[i+1] < unicode.MaxASCII
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return words
}

func isAlnum(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func join(words []string, c Casing) string {
	switch c {
	case Camel:
		var sb strings.Builder
		for i, w := range words {
			if i == 0 {
				sb.WriteString(w)
				continue
			}
			sb.WriteString(strings.ToUpper(w[:1]))
			sb.WriteString(w[1:])
		}
		return sb.String()
	case Snake:
		return strings.Join(words, "_")
	default:
		return strings.Join(words, "-")
	}
}

// Variants holds every casing of one token path.
// Snake and Camel carry the leading-digit guard of their platforms.
type Variants struct {
	Snake string
	Kebab string
	Camel string
}

// NamingVariants derives all casings of a path at once so that serializers
// needing several of them stay consistent.
func NamingVariants(path []string) Variants {
	joined := strings.Join(path, "/")
	return Variants{
		Snake: Sanitize(joined, Android),
		Kebab: Sanitize(joined, CSS),
		Camel: Sanitize(joined, Swift),
	}
}
