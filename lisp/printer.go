package lisp

import (
	"fmt"
	"strconv"
	"strings"
)

// Write renders v as re-readable source text
func Write(v Value) string {
	p := printer{quote: true}
	p.write(v)
	return p.String()
}

// Display renders v the way the display primitive prints it: strings and
// characters appear raw.
func Display(v Value) string {
	var p printer
	p.write(v)
	return p.String()
}

// maxPrintDepth bounds how deeply nested containers are printed
const maxPrintDepth = 1000

// printer writes values. Containers that are already being printed further
// up are written as #<cycle>, nesting beyond maxPrintDepth as "...".
type printer struct {
	strings.Builder
	quote bool
	depth int
	open  map[Value]bool
}

// enter marks a container as being printed and reports whether to descend
func (p *printer) enter(v Value) bool {
	if p.open[v] {
		p.WriteString("#<cycle>")
		return false
	}
	if p.depth >= maxPrintDepth {
		p.WriteString("...")
		return false
	}
	if p.open == nil {
		p.open = make(map[Value]bool)
	}
	p.open[v] = true
	p.depth++
	return true
}

func (p *printer) leave(vs ...Value) {
	for _, v := range vs {
		delete(p.open, v)
	}
	p.depth--
}

var charLiterals = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	0:    "nul",
}

func (p *printer) write(v Value) {
	sb, quote := &p.Builder, p.quote
	switch x := v.(type) {
	case nil:
		sb.WriteString("#<nil>")
	case EmptyList:
		sb.WriteString("()")
	case Integer:
		sb.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		s := strconv.FormatFloat(float64(x), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		sb.WriteString(s)
	case Symbol:
		sb.WriteString(string(x))
	case Boolean:
		if x {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case Char:
		if !quote {
			sb.WriteRune(rune(x))
			return
		}
		sb.WriteString(`#\`)
		if name, ok := charLiterals[rune(x)]; ok {
			sb.WriteString(name)
		} else {
			sb.WriteRune(rune(x))
		}
	case *Pair:
		p.writeList(x)
	case *Vector:
		if s, ok := GoString(x); ok && len(x.Items) > 0 {
			if quote {
				writeQuoted(sb, s)
			} else {
				sb.WriteString(s)
			}
			return
		}
		if !p.enter(x) {
			return
		}
		defer p.leave(x)

		sb.WriteString("#(")
		for i, item := range x.Items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			p.write(item)
		}
		sb.WriteByte(')')
	case *Closure:
		if x.Name != "" {
			fmt.Fprintf(sb, "#<procedure %s>", x.Name)
		} else {
			sb.WriteString("#<procedure>")
		}
	case *Native:
		fmt.Fprintf(sb, "#<primitive %s>", x.Name)
	case fmt.Stringer:
		sb.WriteString(x.String())
	default:
		fmt.Fprintf(sb, "#<%s>", v.Kind())
	}
}

func (p *printer) writeList(head *Pair) {
	if !p.enter(head) {
		return
	}
	spine := []Value{head}
	defer func() { p.leave(spine...) }()

	if sym, ok := head.Car.(Symbol); ok && sym == "quote" {
		if rest, ok := head.Cdr.(*Pair); ok && rest != head {
			if _, ok := rest.Cdr.(EmptyList); ok {
				p.WriteByte('\'')
				p.write(rest.Car)
				return
			}
		}
	}

	p.WriteByte('(')
	p.write(head.Car)
	v := head.Cdr
	for {
		switch x := v.(type) {
		case *Pair:
			if p.open[x] {
				p.WriteString(" . #<cycle>")
				break
			}
			p.open[x] = true
			spine = append(spine, x)
			p.WriteByte(' ')
			p.write(x.Car)
			v = x.Cdr
			continue
		case EmptyList:
		default:
			p.WriteString(" . ")
			p.write(x)
		}
		break
	}
	p.WriteByte(')')
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
