// Package asm parses MIPS assembly source into instructions with unresolved
// label operands and data-segment directives.
package asm

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tokIdent tokenKind = iota
	tokDirective
	tokRegister
	tokInteger
	tokComma
	tokLParen
	tokRParen
	tokColon
)

func (k tokenKind) String() string {
	switch k {
	case tokIdent:
		return "identifier"
	case tokDirective:
		return "directive"
	case tokRegister:
		return "register"
	case tokInteger:
		return "integer"
	case tokComma:
		return "','"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "':'"
	}
}

type token struct {
	kind  tokenKind
	text  string
	value int64
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lexLine splits one source line into tokens. Everything from '#' to the
// end of the line is a comment.
func lexLine(line string) ([]token, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	var toks []token
	for i := 0; i < len(line); {
		c := line[i]

		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ","})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon, text: ":"})
			i++
		case c == '$':
			j := i + 1
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("expected a register name after '$'")
			}
			toks = append(toks, token{kind: tokRegister, text: line[i:j]})
			i = j
		case isDigit(c) || c == '-' || c == '+':
			j := i + 1
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			text := line[i:j]
			v, err := strconv.ParseInt(text, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a valid integer", text)
			}
			toks = append(toks, token{kind: tokInteger, text: text, value: v})
			i = j
		case isIdentByte(c):
			j := i + 1
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			kind := tokIdent
			if c == '.' {
				kind = tokDirective
			}
			toks = append(toks, token{kind: kind, text: line[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}

	return toks, nil
}
