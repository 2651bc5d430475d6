package schema

import (
	"bytes"
	"strings"
	"text/scanner"
)

// Declaration grammar:
//
//	File    := [ "construct_runtime" "!" "(" ] Header "{" [ Entry { "," Entry } [ "," ] ] "}" [ ")" [ ";" ] ]
//	Header  := "pub" "enum" IDENT "where"
//	           "Block" "=" IDENT ","
//	           "NodeBlock" "=" TypePath ","
//	           "UncheckedExtrinsic" "=" IDENT [ "," ]
//	Entry   := IDENT ":" IDENT [ "::" [ "<" IDENT ">" "::" ] "{" [ Cap { "," Cap } [ "," ] ] "}" ]
//	Cap     := IDENT [ "<" IDENT { "," IDENT } ">" ] [ "(" [ IDENT { "," IDENT } ] ")" ]
//	TypePath:= IDENT { "::" IDENT } [ "<" TypePath { "," TypePath } ">" ]

const (
	wrapperMacro   = "construct_runtime"
	defaultKeyword = "default"
)

type parser struct {
	scanner  scanner.Scanner
	tok      rune
	lit      string
	pos      Position
	filename string
	scanErr  *GrammarError
}

func newParser(src []byte, filename string) *parser {
	p := &parser{filename: filename}
	p.scanner.Init(bytes.NewReader(src))
	p.scanner.Filename = filename
	p.scanner.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanComments | scanner.SkipComments
	p.scanner.Error = func(s *scanner.Scanner, msg string) {
		if p.scanErr == nil {
			p.scanErr = Errorf(p.convert(s.Pos()), "%s", msg)
		}
	}
	p.next()
	return p
}

func (p *parser) convert(pos scanner.Position) Position {
	return Position{
		Filename: p.filename,
		Offset:   pos.Offset,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}

func (p *parser) next() {
	p.tok = p.scanner.Scan()
	p.lit = p.scanner.TokenText()
	p.pos = p.convert(p.scanner.Position)
}

// describe names the current token for error messages.
func (p *parser) describe() string {
	switch p.tok {
	case scanner.EOF:
		return "end of input"
	case scanner.Ident:
		return "identifier " + quote(p.lit)
	default:
		return quote(p.lit)
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

func (p *parser) errorf(format string, args ...any) error {
	if p.scanErr != nil {
		return p.scanErr
	}
	return Errorf(p.pos, format, args...)
}

func (p *parser) expect(tok rune) error {
	if p.tok != tok {
		return p.errorf("expected %s, found %s", quote(string(tok)), p.describe())
	}
	p.next()
	return nil
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok != scanner.Ident || p.lit != kw {
		return p.errorf("expected %s, found %s", quote(kw), p.describe())
	}
	p.next()
	return nil
}

func (p *parser) ident(what string) (string, error) {
	if p.tok != scanner.Ident {
		return "", p.errorf("expected %s, found %s", what, p.describe())
	}
	lit := p.lit
	p.next()
	return lit, nil
}

// pathSep consumes "::". The scanner yields two ':' tokens which must be adjacent.
func (p *parser) pathSep() error {
	if p.tok != ':' {
		return p.errorf("expected \"::\", found %s", p.describe())
	}
	first := p.pos.Offset
	p.next()
	if p.tok != ':' || p.pos.Offset != first+1 {
		return p.errorf("expected \"::\", found %s", p.describe())
	}
	p.next()
	return nil
}

// atPathSep reports whether the next two tokens form "::" without consuming them.
func (p *parser) atPathSep() bool {
	return p.tok == ':' && p.scanner.Peek() == ':'
}

func (p *parser) parseFile() (*File, error) {
	file := &File{Filename: p.filename}

	wrapped := false
	if p.tok == scanner.Ident && p.lit == wrapperMacro {
		p.next()
		if err := p.expect('!'); err != nil {
			return nil, err
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		wrapped = true
	}

	header, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	file.Header = header

	if err := p.expect('{'); err != nil {
		return nil, err
	}
	for p.tok != '}' {
		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		file.Entries = append(file.Entries, entry)

		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != '}' {
			return nil, p.errorf("expected \",\" or \"}\" after module entry, found %s", p.describe())
		}
	}
	p.next()

	if wrapped {
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		if p.tok == ';' {
			p.next()
		}
	}
	if p.tok != scanner.EOF {
		return nil, p.errorf("unexpected %s after runtime declaration", p.describe())
	}
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	return file, nil
}

func (p *parser) parseHeader() (Header, error) {
	var h Header
	var err error

	if err = p.expectKeyword("pub"); err != nil {
		return h, err
	}
	if err = p.expectKeyword("enum"); err != nil {
		return h, err
	}
	if h.Runtime, err = p.ident("runtime name"); err != nil {
		return h, err
	}
	if err = p.expectKeyword("where"); err != nil {
		return h, err
	}

	if err = p.binding("Block"); err != nil {
		return h, err
	}
	if h.Block, err = p.ident("block type"); err != nil {
		return h, err
	}
	if err = p.expect(','); err != nil {
		return h, err
	}

	if err = p.binding("NodeBlock"); err != nil {
		return h, err
	}
	if h.NodeBlock, err = p.parseTypePath(); err != nil {
		return h, err
	}
	if err = p.expect(','); err != nil {
		return h, err
	}

	if err = p.binding("UncheckedExtrinsic"); err != nil {
		return h, err
	}
	if h.UncheckedExtrinsic, err = p.ident("extrinsic type"); err != nil {
		return h, err
	}
	if p.tok == ',' {
		p.next()
	}
	return h, nil
}

// binding consumes `name =`.
func (p *parser) binding(name string) error {
	if err := p.expectKeyword(name); err != nil {
		return err
	}
	return p.expect('=')
}

// parseTypePath parses a possibly generic type path and returns it in
// canonical spelling (e.g. "generic::Block<Header, Extrinsic>").
func (p *parser) parseTypePath() (string, error) {
	var b strings.Builder

	seg, err := p.ident("type path")
	if err != nil {
		return "", err
	}
	b.WriteString(seg)
	for p.atPathSep() {
		if err := p.pathSep(); err != nil {
			return "", err
		}
		if seg, err = p.ident("type path segment"); err != nil {
			return "", err
		}
		b.WriteString("::")
		b.WriteString(seg)
	}

	if p.tok == '<' {
		p.next()
		b.WriteByte('<')
		for i := 0; ; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			arg, err := p.parseTypePath()
			if err != nil {
				return "", err
			}
			b.WriteString(arg)
			if p.tok != ',' {
				break
			}
			p.next()
		}
		if err := p.expect('>'); err != nil {
			return "", err
		}
		b.WriteByte('>')
	}
	return b.String(), nil
}

func (p *parser) parseEntry() (Entry, error) {
	entry := Entry{Pos: p.pos, Form: FormBare}
	var err error

	if entry.Name, err = p.ident("module name"); err != nil {
		return entry, err
	}
	if err = p.expect(':'); err != nil {
		return entry, err
	}
	if entry.Path, err = p.ident("module path"); err != nil {
		return entry, err
	}

	if p.tok == ',' || p.tok == '}' {
		return entry, nil
	}
	if err = p.pathSep(); err != nil {
		return entry, err
	}

	if p.tok == '<' {
		instPos := p.pos
		p.next()
		if entry.Instance, err = p.ident("instance name"); err != nil {
			return entry, err
		}
		if err = p.expect('>'); err != nil {
			return entry, err
		}
		if err = p.pathSep(); err != nil {
			return entry, err
		}
		if p.tok != '{' {
			return entry, Errorf(instPos, "instance %q of module %q requires an explicit capability list", entry.Instance, entry.Name)
		}
	}

	tokens, err := p.parseCapList()
	if err != nil {
		return entry, err
	}

	entry.Form = FormExplicit
	for i, tok := range tokens {
		if tok.Name != defaultKeyword {
			continue
		}
		if i != 0 {
			return entry, Errorf(tok.Pos, "%q must be the first capability of module %q", defaultKeyword, entry.Name)
		}
		if entry.Instance != "" {
			return entry, Errorf(tok.Pos, "instance %q of module %q cannot use %q; list capabilities explicitly", entry.Instance, entry.Name, defaultKeyword)
		}
		if len(tok.Generics) > 0 || tok.HasArgs {
			return entry, Errorf(tok.Pos, "%q takes no parameters", defaultKeyword)
		}
		entry.Form = FormDefault
	}
	if entry.Form == FormDefault {
		tokens = tokens[1:]
	}
	entry.Tokens = tokens
	return entry, nil
}

func (p *parser) parseCapList() ([]CapToken, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	var tokens []CapToken
	for p.tok != '}' {
		tok, err := p.parseCap()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)

		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != '}' {
			return nil, p.errorf("expected \",\" or \"}\" in capability list, found %s", p.describe())
		}
	}
	p.next()
	return tokens, nil
}

func (p *parser) parseCap() (CapToken, error) {
	tok := CapToken{Pos: p.pos}
	var err error

	if tok.Name, err = p.ident("capability"); err != nil {
		return tok, err
	}

	if p.tok == '<' {
		p.next()
		if tok.Generics, err = p.identList("generic parameter"); err != nil {
			return tok, err
		}
		if err = p.expect('>'); err != nil {
			return tok, err
		}
	}

	if p.tok == '(' {
		p.next()
		tok.HasArgs = true
		if p.tok != ')' {
			if tok.Args, err = p.identList("argument"); err != nil {
				return tok, err
			}
		}
		if err = p.expect(')'); err != nil {
			return tok, err
		}
	}
	return tok, nil
}

func (p *parser) identList(what string) ([]string, error) {
	var list []string
	for {
		id, err := p.ident(what)
		if err != nil {
			return nil, err
		}
		list = append(list, id)
		if p.tok != ',' {
			return list, nil
		}
		p.next()
	}
}
