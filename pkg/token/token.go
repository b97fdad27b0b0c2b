package token

import "fmt"

// Kind classifies a lexeme
type Kind int

const (
	Reserved Kind = iota
	String
	Number
	Identifier
	Symbol
)

var kindNames = [...]string{
	Reserved:   "reserved",
	String:     "string",
	Number:     "number",
	Identifier: "identifier",
	Symbol:     "symbol",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ReservedWords is checked when an identifier has been scanned
var ReservedWords = map[string]bool{
	"var":      true,
	"while":    true,
	"if":       true,
	"else":     true,
	"break":    true,
	"continue": true,
	"return":   true,
	"fn":       true,
	"typeof":   true,
	"keys":     true,
	"empty":    true,
}

// MultiCharSymbols are matched before any single character symbol, in this order
var MultiCharSymbols = []string{
	"&&=", "||=", "**=",
	"==", "!=", "<=", ">=",
	"&&", "||", "**",
	"+=", "-=", "*=", "/=", "%=",
}

// SingleCharSymbols holds every one-character symbol
const SingleCharSymbols = "+-*/%(){}[].<>=!?,:;"

// Token is a classified, positioned lexeme. Line and Column are 1-based
type Token struct {
	Kind   Kind
	Value  string
	File   string
	Line   int
	Column int
	Len    int
}

// Is reports whether the token is the symbol or reserved word s
func (t Token) Is(s string) bool {
	return (t.Kind == Symbol || t.Kind == Reserved) && t.Value == s
}

func (t Token) Pos() string {
	return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
}

func (t Token) String() string {
	if t.Kind == String {
		return fmt.Sprintf("%q", t.Value)
	}
	return t.Value
}
