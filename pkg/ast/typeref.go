package ast

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeRef is a type reference normalized to name plus type arguments, so
// that `Observable<UiChange>` and `Observable< UiChange >` compare equal.
type TypeRef struct {
	// Name is the dotted name as written, e.g. "io.reactivex.Observable".
	// Star projections use "*". Types the tree does not model structurally
	// (function types) keep their source text with whitespace removed.
	Name     string
	Args     []*TypeRef
	Nullable bool
}

func (*TypeRef) Kind() NodeKind { return KindTypeRef }

// String renders the canonical spelling, e.g. "Interface<A, B>?".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeRef) write(sb *strings.Builder) {
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			arg.write(sb)
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
}

// Equal reports whether two references are structurally identical.
func (t *TypeRef) Equal(other *TypeRef) bool {
	return t.equal(other, func(a, b string) bool { return a == b })
}

// EqualFold is Equal with names compared case-insensitively.
func (t *TypeRef) EqualFold(other *TypeRef) bool {
	return t.equal(other, strings.EqualFold)
}

func (t *TypeRef) equal(other *TypeRef, eq func(a, b string) bool) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Nullable != other.Nullable || len(t.Args) != len(other.Args) {
		return false
	}
	if !eq(t.Name, other.Name) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].equal(other.Args[i], eq) {
			return false
		}
	}
	return true
}

// ParseTypeRef parses a written type such as "ObservableTransformer<UiEvent, UiChange>".
// Variance modifiers on arguments (in/out) are dropped.
func ParseTypeRef(s string) (*TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseTypeRef is ParseTypeRef that panics on error.
func MustParseTypeRef(s string) *TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) parseType() (*TypeRef, error) {
	p.skipSpace()
	if p.peek() == '*' {
		p.pos++
		return &TypeRef{Name: "*"}, nil
	}

	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	t := &TypeRef{Name: name}

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			p.skipVariance()
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, fmt.Errorf("type %q: expected ',' or '>' at offset %d", p.src, p.pos)
			}
			break
		}
	}

	p.skipSpace()
	for p.peek() == '?' {
		t.Nullable = true
		p.pos++
		p.skipSpace()
	}
	return t, nil
}

func (p *typeParser) parseName() (string, error) {
	var parts []string
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return "", fmt.Errorf("type %q: expected identifier at offset %d", p.src, p.pos)
		}
		parts = append(parts, p.src[start:p.pos])
		p.skipSpace()
		if p.peek() != '.' {
			return strings.Join(parts, "."), nil
		}
		p.pos++
	}
}

func (p *typeParser) skipVariance() {
	p.skipSpace()
	for _, kw := range []string{"in", "out"} {
		rest := p.src[p.pos:]
		if strings.HasPrefix(rest, kw) && len(rest) > len(kw) && unicode.IsSpace(rune(rest[len(kw)])) {
			p.pos += len(kw)
			p.skipSpace()
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '`' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
