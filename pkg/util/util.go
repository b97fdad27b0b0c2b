package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
	"golang.org/x/term"
)

// Kind identifies the class of a lexical or syntactic error
type Kind int

const (
	UnexpectedCharacter Kind = iota
	UnterminatedComment
	UnterminatedString
	InvalidEscapeSequence
	MalformedNumber
	UnexpectedToken
	UnexpectedEndOfInput
	ExpectedIdentifier
)

var kindNames = [...]string{
	UnexpectedCharacter:   "unexpected character",
	UnterminatedComment:   "unterminated comment",
	UnterminatedString:    "unterminated string",
	InvalidEscapeSequence: "invalid escape sequence",
	MalformedNumber:       "malformed number",
	UnexpectedToken:       "unexpected token",
	UnexpectedEndOfInput:  "unexpected end of input",
	ExpectedIdentifier:    "expected identifier",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single failure type produced by the lexer and the parser.
// Tok carries the position and the offending text.
type Error struct {
	Kind Kind
	Tok  token.Token
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Tok.Pos(), e.Msg)
}

// Errorf builds an *Error positioned at tok
func Errorf(kind Kind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// SourceFileRecord tracks the name and content of a single source file
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var (
	sourceMu    sync.RWMutex
	sourceFiles = make(map[string][]rune)
)

// SetSourceFiles stores source text so diagnostics can echo the offending line
func SetSourceFiles(files []SourceFileRecord) {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	for _, f := range files {
		sourceFiles[f.Name] = f.Content
	}
}

func sourceOf(name string) ([]rune, bool) {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	content, ok := sourceFiles[name]
	return content, ok
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(color bool, code, s string) string {
	if !color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// printErrorLine prints the source line and a caret indicating the token span
func printErrorLine(w io.Writer, tok token.Token, color bool) {
	content, ok := sourceOf(tok.File)
	if !ok || tok.Line == 0 {
		return
	}

	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' || content[i] == '\r' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))
	marker := "^"
	if tok.Len > 1 {
		marker += strings.Repeat("~", tok.Len-1)
	}
	col := tok.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", col-1), paint(color, "32", marker))
}

// Report writes err to w in file:line:col form, echoing the source line when known
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	color := useColor(w)
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "kite: %s %v\n", paint(color, "31", "error:"), err)
		return
	}
	fmt.Fprintf(w, "%s: %s %s\n", e.Tok.Pos(), paint(color, "31", "error:"), e.Msg)
	printErrorLine(w, e.Tok, color)
}

// Warn prints a formatted warning to cfg.Output if the warning is enabled.
// It reports whether anything was printed.
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) bool {
	if !cfg.IsWarningEnabled(wt) {
		return false
	}
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	color := useColor(w)
	fmt.Fprintf(w, "%s: %s ", tok.Pos(), paint(color, "33", "warning:"))
	fmt.Fprintf(w, format, args...)
	fmt.Fprintf(w, " [-W%s]\n", cfg.Warnings[wt].Name)
	printErrorLine(w, tok, color)
	return true
}
