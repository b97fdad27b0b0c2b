package lexer

import (
	"io"
	"strings"
	"unicode"

	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
	"github.com/xplshn/kite/pkg/util"
)

var compoundSymbols = map[string]bool{
	"&&=": true, "||=": true, "**=": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

var escapes = map[rune]rune{
	'n': '\n', 'r': '\r', 'b': '\b', 't': '\t', '\\': '\\', '"': '"',
}

type Lexer struct {
	source []rune
	file   string
	pos    int
	line   int
	column int
	cfg    *config.Config
}

func NewLexer(source []rune, file string, cfg *config.Config) *Lexer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Lexer{source: source, file: file, line: 1, column: 1, cfg: cfg}
}

// Tokenize scans the whole source. It returns either every token or the first error.
func Tokenize(source, filename string, cfg *config.Config) ([]token.Token, error) {
	l := NewLexer([]rune(source), filename, cfg)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

// Next returns the next token, or io.EOF once the source is exhausted
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}
	if l.isAtEnd() {
		return token.Token{}, io.EOF
	}

	startPos, startCol, startLine := l.pos, l.column, l.line
	ch := l.peek()
	switch {
	case isDigit(ch) || (ch == '.' && isDigit(l.peekNext())):
		return l.numberLiteral(startPos, startCol, startLine)
	case ch == '"':
		return l.stringLiteral(startPos, startCol, startLine)
	case unicode.IsLetter(ch) || ch == '_':
		return l.identifierOrReserved(startPos, startCol, startLine), nil
	}
	return l.symbol(startPos, startCol, startLine)
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes one rune. "\r\n" counts as a single line break.
func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	switch {
	case ch == '\n':
		l.line++
		l.column = 1
	case ch == '\r' && l.peekNext() == '\n':
	default:
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) hasPrefix(s string) bool {
	n := len(s)
	return l.pos+n <= len(l.source) && string(l.source[l.pos:l.pos+n]) == s
}

func (l *Lexer) makeToken(kind token.Kind, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Kind: kind, Value: value, File: l.file,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.isAtEnd() {
		switch {
		case l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\n':
			l.advance()
		case l.peek() == '\r' && l.peekNext() == '\n':
			l.advance()
		case l.cfg.IsFeatureEnabled(config.FeatLineComments) && l.hasPrefix("//"):
			for !l.isAtEnd() && l.peek() != '\n' && !l.hasPrefix("\r\n") {
				l.advance()
			}
		case l.cfg.IsFeatureEnabled(config.FeatBlockComments) && l.hasPrefix("/*"):
			if err := l.blockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) blockComment() error {
	startCol, startLine := l.column, l.line
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.hasPrefix("*/") {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	tok := token.Token{Kind: token.Symbol, Value: "/*", File: l.file, Line: startLine, Column: startCol, Len: 2}
	return util.Errorf(util.UnterminatedComment, tok, "Unterminated block comment")
}

func (l *Lexer) identifierOrReserved(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	kind := token.Identifier
	if token.ReservedWords[value] {
		kind = token.Reserved
	}
	return l.makeToken(kind, value, startPos, startCol, startLine)
}

// numberLiteral scans digits with at most one '.' and at most one 'e'. The '.' is only
// accepted before the exponent. An 'e' must be followed by at least one digit.
func (l *Lexer) numberLiteral(startPos, startCol, startLine int) (token.Token, error) {
	includesPoint := l.advance() == '.'
	includesExp := false
	for {
		switch ch := l.peek(); {
		case isDigit(ch):
			l.advance()
		case ch == 'e' && !includesExp:
			includesExp = true
			l.advance()
		case ch == '.' && !includesExp && !includesPoint:
			includesPoint = true
			l.advance()
		default:
			tok := l.makeToken(token.Number, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
			if strings.HasSuffix(tok.Value, "e") {
				return tok, util.Errorf(util.MalformedNumber, tok, "Malformed number literal '%s': exponent has no digits", tok.Value)
			}
			return tok, nil
		}
	}
}

// stringLiteral decodes escapes as it scans. Errors report the opening quote.
func (l *Lexer) stringLiteral(startPos, startCol, startLine int) (token.Token, error) {
	var sb strings.Builder
	l.advance()
	for {
		c := l.peek()
		switch {
		case l.isAtEnd() || c == '\n' || c == '\r':
			tok := l.makeToken(token.String, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
			return tok, util.Errorf(util.UnterminatedString, tok, "Unterminated string literal")
		case c == '"':
			l.advance()
			return l.makeToken(token.String, sb.String(), startPos, startCol, startLine), nil
		case c == '\\':
			l.advance()
			if l.isAtEnd() {
				tok := l.makeToken(token.String, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
				return tok, util.Errorf(util.UnterminatedString, tok, "Unterminated string literal")
			}
			esc := l.peek()
			decoded, ok := escapes[esc]
			if !ok {
				tok := l.makeToken(token.String, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
				return tok, util.Errorf(util.InvalidEscapeSequence, tok, "Invalid escape sequence '\\%c'", esc)
			}
			l.advance()
			sb.WriteRune(decoded)
		default:
			l.advance()
			sb.WriteRune(c)
		}
	}
}

func (l *Lexer) symbol(startPos, startCol, startLine int) (token.Token, error) {
	allowCompound := l.cfg.IsFeatureEnabled(config.FeatCompoundAssign)
	for _, sym := range token.MultiCharSymbols {
		if compoundSymbols[sym] && !allowCompound {
			continue
		}
		if l.hasPrefix(sym) {
			for range sym {
				l.advance()
			}
			return l.makeToken(token.Symbol, sym, startPos, startCol, startLine), nil
		}
	}

	ch := l.peek()
	if strings.ContainsRune(token.SingleCharSymbols, ch) {
		l.advance()
		return l.makeToken(token.Symbol, string(ch), startPos, startCol, startLine), nil
	}

	tok := token.Token{Kind: token.Symbol, Value: string(ch), File: l.file, Line: startLine, Column: startCol, Len: 1}
	return tok, util.Errorf(util.UnexpectedCharacter, tok, "Unexpected character: %q", ch)
}
