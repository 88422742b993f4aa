// Package keyvalues parses the text KeyValues format used by Steam manifests
// such as libraryfolders.vdf and appmanifest_*.acf.
package keyvalues

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrSyntax = errors.New("keyvalues: syntax error")

// Node is a key with either a string value or a list of children.
type Node struct {
	Key      string
	Value    string
	Children []*Node
}

// IsSection reports whether the node holds children rather than a value.
func (n *Node) IsSection() bool {
	return n.Children != nil
}

// Child returns the first child with the given key (case-insensitive).
func (n *Node) Child(key string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if strings.EqualFold(c.Key, key) {
			return c
		}
	}
	return nil
}

// String returns the value of a child key, or "" if missing.
func (n *Node) String(key string) string {
	if c := n.Child(key); c != nil {
		return c.Value
	}
	return ""
}

// ParseFile parses a file containing a single root node.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse parses text containing a single root node.
func Parse(text string) (*Node, error) {
	p := &parser{lex: lexer{src: text, line: 1}}
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrSyntax)
	}
	return root, nil
}

type tokenKind int

const (
	tokString tokenKind = iota
	tokOpen
	tokClose
	tokCondition
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

type parser struct {
	lex  lexer
	peek *token
}

func (p *parser) next() (token, error) {
	if p.peek != nil {
		t := *p.peek
		p.peek = nil
		return t, nil
	}
	return p.lex.next()
}

// node parses "key value" or "key { ... }". It returns nil at end of input or
// before a closing brace.
func (p *parser) node() (*Node, error) {
	key, err := p.next()
	if err != nil {
		return nil, err
	}
	switch key.kind {
	case tokEOF:
		return nil, nil
	case tokClose:
		p.peek = &key
		return nil, nil
	case tokString:
	default:
		return nil, fmt.Errorf("%w: line %d: expected key", ErrSyntax, key.line)
	}

	val, err := p.next()
	if err != nil {
		return nil, err
	}
	n := &Node{Key: key.text}
	switch val.kind {
	case tokString:
		n.Value = val.text
	case tokOpen:
		n.Children = []*Node{}
		for {
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			if child == nil {
				break
			}
			n.Children = append(n.Children, child)
		}
		end, err := p.next()
		if err != nil {
			return nil, err
		}
		if end.kind != tokClose {
			return nil, fmt.Errorf("%w: line %d: unclosed section %q", ErrSyntax, key.line, key.text)
		}
	default:
		return nil, fmt.Errorf("%w: line %d: expected value for %q", ErrSyntax, val.line, key.text)
	}

	// Platform conditionals such as [$WIN32] are accepted and ignored.
	if t, err := p.next(); err != nil {
		return nil, err
	} else if t.kind != tokCondition {
		p.peek = &t
	}
	return n, nil
}

type lexer struct {
	src  string
	pos  int
	line int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	line := l.line
	switch c := l.src[l.pos]; c {
	case '{':
		l.pos++
		return token{kind: tokOpen, line: line}, nil
	case '}':
		l.pos++
		return token{kind: tokClose, line: line}, nil
	case '[':
		end := strings.IndexByte(l.src[l.pos:], ']')
		if end < 0 {
			return token{}, fmt.Errorf("%w: line %d: unterminated conditional", ErrSyntax, line)
		}
		text := l.src[l.pos+1 : l.pos+end]
		l.pos += end + 1
		return token{kind: tokCondition, text: text, line: line}, nil
	case '"':
		return l.quoted()
	default:
		start := l.pos
		for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokString, text: l.src[start:l.pos], line: line}, nil
	}
}

func (l *lexer) quoted() (token, error) {
	line := l.line
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: sb.String(), line: line}, nil
		case '\\':
			if l.pos+1 < len(l.src) {
				l.pos++
				switch e := l.src[l.pos]; e {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				default:
					sb.WriteByte(e)
				}
				l.pos++
				continue
			}
		case '\n':
			l.line++
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, fmt.Errorf("%w: line %d: %w", ErrSyntax, line, io.ErrUnexpectedEOF)
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '"', '{', '}', '[':
		return true
	}
	return false
}
