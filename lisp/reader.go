package lisp

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokOpen tokenKind = iota
	tokClose
	tokVectorOpen
	tokQuote
	tokDot
	tokString
	tokAtom
)

type token struct {
	kind tokenKind
	text string
	pos  Position
}

var charNames = map[string]rune{
	"space":   ' ',
	"newline": '\n',
	"tab":     '\t',
	"nul":     0,
}

// lexer splits source text into tokens, tracking line and column
type lexer struct {
	src  []rune
	i    int
	line int
	col  int
}

func (l *lexer) peek() (rune, bool) {
	if l.i >= len(l.src) {
		return 0, false
	}
	return l.src[l.i], true
}

func (l *lexer) advance() rune {
	r := l.src[l.i]
	l.i++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) pos() Position {
	return Position{Line: l.line, Col: l.col}
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '\'' || r == '"' || r == ';'
}

func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		r, ok := l.peek()
		if !ok {
			return out, nil
		}

		pos := l.pos()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == ';':
			for r, ok := l.peek(); ok && r != '\n'; r, ok = l.peek() {
				l.advance()
			}
		case r == '(':
			l.advance()
			out = append(out, token{kind: tokOpen, pos: pos})
		case r == ')':
			l.advance()
			out = append(out, token{kind: tokClose, pos: pos})
		case r == '\'':
			l.advance()
			out = append(out, token{kind: tokQuote, pos: pos})
		case r == '"':
			text, err := l.readString()
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: text, pos: pos})
		case r == '#' && l.i+1 < len(l.src) && l.src[l.i+1] == '(':
			l.advance()
			l.advance()
			out = append(out, token{kind: tokVectorOpen, pos: pos})
		case r == '#' && l.i+1 < len(l.src) && l.src[l.i+1] == '\\':
			text, err := l.readChar()
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokAtom, text: text, pos: pos})
		default:
			var sb strings.Builder
			for r, ok := l.peek(); ok && !isDelimiter(r); r, ok = l.peek() {
				sb.WriteRune(l.advance())
			}
			text := sb.String()
			kind := tokAtom
			if text == "." {
				kind = tokDot
			}
			out = append(out, token{kind: kind, text: text, pos: pos})
		}
	}
}

func (l *lexer) readString() (string, error) {
	start := l.pos()
	l.advance()

	var sb strings.Builder
	for {
		r, ok := l.peek()
		if !ok {
			return "", &Error{Kind: ErrSyntax, Pos: start, Msg: "unterminated string", eof: true}
		}
		l.advance()
		switch r {
		case '"':
			return sb.String(), nil
		case '\\':
			esc, ok := l.peek()
			if !ok {
				return "", &Error{Kind: ErrSyntax, Pos: start, Msg: "unterminated string", eof: true}
			}
			l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"', '\\':
				sb.WriteRune(esc)
			default:
				return "", &Error{Kind: ErrSyntax, Pos: l.pos(), Msg: "unknown escape \\" + string(esc)}
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// readChar consumes #\x, #\space and friends. The character right after the
// backslash is always taken, even if it is a delimiter.
func (l *lexer) readChar() (string, error) {
	start := l.pos()
	l.advance()
	l.advance()

	r, ok := l.peek()
	if !ok {
		return "", &Error{Kind: ErrSyntax, Pos: start, Msg: "unterminated character literal"}
	}

	var sb strings.Builder
	sb.WriteString(`#\`)
	sb.WriteRune(l.advance())
	if unicode.IsLetter(r) {
		for r, ok := l.peek(); ok && !isDelimiter(r); r, ok = l.peek() {
			sb.WriteRune(l.advance())
		}
	}
	return sb.String(), nil
}

// parser builds values from tokens
type parser struct {
	toks []token
	i    int
	end  Position
}

// Parse reads every top-level form in text
func Parse(text string) ([]Value, error) {
	lx := &lexer{src: []rune(text), line: 1, col: 1}
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, end: lx.pos()}
	var forms []Value
	for p.i < len(p.toks) {
		v, err := p.form()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
	return forms, nil
}

// ParseOne reads exactly one form
func ParseOne(text string) (Value, error) {
	forms, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, newError(ErrSyntax, "expected one form, got %d", len(forms))
	}
	return forms[0], nil
}

func (p *parser) next() (token, bool) {
	if p.i >= len(p.toks) {
		return token{}, false
	}
	t := p.toks[p.i]
	p.i++
	return t, true
}

func (p *parser) form() (Value, error) {
	t, ok := p.next()
	if !ok {
		return nil, &Error{Kind: ErrSyntax, Pos: p.end, Msg: "unexpected end of input", eof: true}
	}

	switch t.kind {
	case tokOpen:
		return p.list(t.pos)
	case tokVectorOpen:
		return p.vector(t.pos)
	case tokClose:
		return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "unexpected ')'"}
	case tokDot:
		return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "unexpected '.'"}
	case tokQuote:
		quoted, err := p.form()
		if err != nil {
			return nil, err
		}
		return &Pair{Car: Symbol("quote"), Cdr: &Pair{Car: quoted, Cdr: Nil, Pos: t.pos}, Pos: t.pos}, nil
	case tokString:
		return String(t.text), nil
	default:
		return parseAtom(t)
	}
}

func (p *parser) list(open Position) (Value, error) {
	var items []Value
	var positions []Position
	tail := Nil

	for {
		if p.i >= len(p.toks) {
			return nil, &Error{Kind: ErrSyntax, Pos: open, Msg: "unterminated list", eof: true}
		}

		t := p.toks[p.i]
		if t.kind == tokClose {
			p.i++
			break
		}
		if t.kind == tokDot {
			p.i++
			if len(items) == 0 {
				return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "dotted pair without car"}
			}
			v, err := p.form()
			if err != nil {
				return nil, err
			}
			tail = v
			closing, ok := p.next()
			if !ok {
				return nil, &Error{Kind: ErrSyntax, Pos: open, Msg: "unterminated list", eof: true}
			}
			if closing.kind != tokClose {
				return nil, &Error{Kind: ErrSyntax, Pos: closing.pos, Msg: "expected ')' after dotted tail"}
			}
			break
		}

		v, err := p.form()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		positions = append(positions, t.pos)
	}

	out := tail
	for i := len(items) - 1; i >= 0; i-- {
		pos := positions[i]
		if i == 0 {
			pos = open
		}
		out = &Pair{Car: items[i], Cdr: out, Pos: pos}
	}
	return out, nil
}

func (p *parser) vector(open Position) (Value, error) {
	var items []Value
	for {
		t, ok := p.next()
		if !ok {
			return nil, &Error{Kind: ErrSyntax, Pos: open, Msg: "unterminated vector", eof: true}
		}
		if t.kind == tokClose {
			return &Vector{Items: items}, nil
		}
		p.i--
		v, err := p.form()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func parseAtom(t token) (Value, error) {
	text := t.text

	if strings.HasPrefix(text, `#\`) {
		name := text[2:]
		rs := []rune(name)
		if len(rs) == 1 {
			return Char(rs[0]), nil
		}
		if r, ok := charNames[name]; ok {
			return Char(r), nil
		}
		return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "invalid character literal " + text}
	}

	if strings.HasPrefix(text, "#") {
		switch text {
		case "#t", "#true":
			return True, nil
		case "#f", "#false":
			return False, nil
		}
		return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "invalid token " + text}
	}

	if looksNumeric(text) {
		if strings.ContainsAny(text, ".eE") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "invalid number " + text}
			}
			return Float(f), nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &Error{Kind: ErrSyntax, Pos: t.pos, Msg: "invalid number " + text}
		}
		return Integer(n), nil
	}

	return Symbol(text), nil
}

// looksNumeric accepts 12, -3, +4, 1.5, -.5 but not -, +, ... or ->x
func looksNumeric(s string) bool {
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" {
		return false
	}
	if body[0] == '.' {
		return len(body) > 1 && body[1] >= '0' && body[1] <= '9'
	}
	return body[0] >= '0' && body[0] <= '9'
}
