package directive

import (
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"github.com/refaktor/pyglue/diag"
)

type MetaKind int

const (
	// MetaPath is a bare path, e.g. `pass_module`.
	MetaPath MetaKind = iota
	// MetaList is a path followed by a parenthesized list, e.g. `pyfn(m, "add")`.
	MetaList
	// MetaNameValue is a path assigned a literal, e.g. `kwargs = "**"`.
	MetaNameValue
)

// Path is a dot separated list of identifiers.
type Path struct {
	Segments []string
	Pos      token.Pos
}

func (p Path) String() string {
	return strings.Join(p.Segments, ".")
}

// IsIdent reports whether p is the single identifier name.
func (p Path) IsIdent(name string) bool {
	return len(p.Segments) == 1 && p.Segments[0] == name
}

// Lit is a literal as written in the directive.
type Lit struct {
	Kind  token.Token // STRING, INT, FLOAT, CHAR
	Value string      // raw source text
	Pos   token.Pos
}

// Str returns the unquoted value of a string literal.
func (l *Lit) Str() (string, bool) {
	if l.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(l.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

type Meta struct {
	Kind  MetaKind
	Path  Path
	List  []NestedMeta // MetaList
	Value *Lit         // MetaNameValue
	Pos   token.Pos
	End   token.Pos
}

// NestedMeta is an entry of a [MetaList]. Exactly one of Meta and Lit
// is set.
type NestedMeta struct {
	Meta *Meta
	Lit  *Lit
}

func (n NestedMeta) Pos() token.Pos {
	if n.Meta != nil {
		return n.Meta.Pos
	}
	return n.Lit.Pos
}

// PathOnly returns the path if n is a bare [MetaPath].
func (n NestedMeta) PathOnly() (Path, bool) {
	if n.Meta != nil && n.Meta.Kind == MetaPath {
		return n.Meta.Path, true
	}
	return Path{}, false
}

func (n NestedMeta) String() string {
	if n.Lit != nil {
		return n.Lit.Value
	}
	return n.Meta.String()
}

func (m *Meta) String() string {
	switch m.Kind {
	case MetaList:
		items := make([]string, len(m.List))
		for i, it := range m.List {
			items[i] = it.String()
		}
		return m.Path.String() + "(" + strings.Join(items, ", ") + ")"
	case MetaNameValue:
		return m.Path.String() + " = " + m.Value.Value
	default:
		return m.Path.String()
	}
}

type metaToken struct {
	tok token.Token
	lit string
	pos token.Pos // position in the caller's file set
}

// ParseMeta parses src as a single [Meta]. base is the position of
// src[0] in the caller's file set; every returned position is relative
// to it.
func ParseMeta(src string, base token.Pos) (*Meta, error) {
	toks, err := tokenize(src, base)
	if err != nil {
		return nil, err
	}
	p := &metaParser{toks: toks}
	m, err := p.parseMeta()
	if err != nil {
		return nil, err
	}
	if p.peek().tok != token.EOF {
		return nil, diag.ErrorAt(p.peek().pos, "unexpected %v after %v", p.peek().describe(), m.Path)
	}
	return m, nil
}

func tokenize(src string, base token.Pos) ([]metaToken, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var firstErr error
	var sc scanner.Scanner
	sc.Init(file, []byte(src), func(pos token.Position, msg string) {
		if firstErr == nil {
			firstErr = diag.ErrorAt(base+token.Pos(pos.Offset), "%v", msg)
		}
	}, 0)

	var toks []metaToken
	for {
		pos, tok, lit := sc.Scan()
		if firstErr != nil {
			return nil, firstErr
		}
		// The scanner inserts a semicolon at the end of the line.
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		toks = append(toks, metaToken{
			tok: tok,
			lit: lit,
			pos: base + token.Pos(file.Offset(pos)),
		})
		if tok == token.EOF {
			return toks, nil
		}
	}
}

func (t metaToken) describe() string {
	switch t.tok {
	case token.EOF:
		return "end of directive"
	case token.IDENT, token.STRING, token.INT, token.FLOAT, token.CHAR:
		return strconv.Quote(t.lit)
	default:
		return strconv.Quote(t.tok.String())
	}
}

type metaParser struct {
	toks []metaToken
	i    int
}

func (p *metaParser) peek() metaToken {
	return p.toks[p.i]
}

func (p *metaParser) next() metaToken {
	t := p.toks[p.i]
	if t.tok != token.EOF {
		p.i++
	}
	return t
}

func (p *metaParser) prevEnd() token.Pos {
	if p.i == 0 {
		return p.toks[0].pos
	}
	prev := p.toks[p.i-1]
	n := len(prev.lit)
	if n == 0 {
		n = len(prev.tok.String())
	}
	return prev.pos + token.Pos(n)
}

func (p *metaParser) parsePath() (Path, error) {
	t := p.next()
	if t.tok != token.IDENT {
		return Path{}, diag.ErrorAt(t.pos, "expected identifier, found %v", t.describe())
	}
	path := Path{Segments: []string{t.lit}, Pos: t.pos}
	for p.peek().tok == token.PERIOD {
		p.next()
		t := p.next()
		if t.tok != token.IDENT {
			return Path{}, diag.ErrorAt(t.pos, "expected identifier after \".\", found %v", t.describe())
		}
		path.Segments = append(path.Segments, t.lit)
	}
	return path, nil
}

func (p *metaParser) parseLit() (*Lit, error) {
	t := p.next()
	switch t.tok {
	case token.STRING, token.INT, token.FLOAT, token.CHAR:
		return &Lit{Kind: t.tok, Value: t.lit, Pos: t.pos}, nil
	default:
		return nil, diag.ErrorAt(t.pos, "expected literal, found %v", t.describe())
	}
}

func (p *metaParser) parseMeta() (*Meta, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	m := &Meta{Kind: MetaPath, Path: path, Pos: path.Pos}
	switch p.peek().tok {
	case token.LPAREN:
		p.next()
		m.Kind = MetaList
		for p.peek().tok != token.RPAREN {
			item, err := p.parseNested()
			if err != nil {
				return nil, err
			}
			m.List = append(m.List, item)
			if p.peek().tok == token.COMMA {
				p.next()
				continue
			}
			if p.peek().tok != token.RPAREN {
				return nil, diag.ErrorAt(p.peek().pos, "expected \",\" or \")\" in %v list, found %v", path, p.peek().describe())
			}
		}
		p.next()
	case token.ASSIGN:
		p.next()
		m.Kind = MetaNameValue
		m.Value, err = p.parseLit()
		if err != nil {
			return nil, err
		}
	}
	m.End = p.prevEnd()
	return m, nil
}

func (p *metaParser) parseNested() (NestedMeta, error) {
	if p.peek().tok == token.IDENT {
		m, err := p.parseMeta()
		if err != nil {
			return NestedMeta{}, err
		}
		return NestedMeta{Meta: m}, nil
	}
	lit, err := p.parseLit()
	if err != nil {
		return NestedMeta{}, err
	}
	return NestedMeta{Lit: lit}, nil
}
