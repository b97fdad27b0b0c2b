package util

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
)

func TestErrorFormatting(t *testing.T) {
	tok := token.Token{Kind: token.Symbol, Value: ")", File: "a.kite", Line: 3, Column: 7, Len: 1}
	err := Errorf(UnexpectedToken, tok, "Unexpected token: '%s'", tok)
	if got, want := err.Error(), "a.kite:3:7: Unexpected token: ')'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("parsing a.kite: %w", err)
	if !IsKind(wrapped, UnexpectedToken) {
		t.Error("IsKind did not see through wrapping")
	}
	if IsKind(wrapped, ExpectedIdentifier) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(errors.New("plain"), UnexpectedToken) {
		t.Error("IsKind matched a plain error")
	}
	if got := ExpectedIdentifier.String(); got != "expected identifier" {
		t.Errorf("Kind.String() = %q", got)
	}
}

func TestReportEchoesSource(t *testing.T) {
	SetSourceFiles([]SourceFileRecord{{Name: "report.kite", Content: []rune("var x = 1;\nx = @;\n")}})
	tok := token.Token{Kind: token.Symbol, Value: "@", File: "report.kite", Line: 2, Column: 5, Len: 1}

	var buf bytes.Buffer
	Report(&buf, Errorf(UnexpectedCharacter, tok, "Unexpected character: '@'"))
	want := "report.kite:2:5: error: Unexpected character: '@'\n" +
		"  x = @;\n" +
		"      ^\n"
	if buf.String() != want {
		t.Errorf("Report output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestReportPlainError(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, errors.New("could not read file"))
	if got := buf.String(); got != "kite: error: could not read file\n" {
		t.Errorf("Report output = %q", got)
	}
	buf.Reset()
	Report(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("Report(nil) wrote %q", buf.String())
	}
}

func TestWarn(t *testing.T) {
	SetSourceFiles([]SourceFileRecord{{Name: "warn.kite", Content: []rune("break;")}})
	var buf bytes.Buffer
	cfg := config.NewConfig()
	cfg.Output = &buf
	tok := token.Token{Kind: token.Reserved, Value: "break", File: "warn.kite", Line: 1, Column: 1, Len: 5}

	if !Warn(cfg, config.WarnLoopControl, tok, "'%s' outside of a loop", "break") {
		t.Fatal("Warn reported nothing printed for an enabled warning")
	}
	want := "warn.kite:1:1: warning: 'break' outside of a loop [-Wloop-control]\n  break;\n  ^~~~~\n"
	if buf.String() != want {
		t.Errorf("Warn output = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	cfg.SetWarning(config.WarnLoopControl, false)
	if Warn(cfg, config.WarnLoopControl, tok, "ignored") || buf.Len() != 0 {
		t.Error("disabled warning was printed")
	}
}

func TestCaretOnUnknownFile(t *testing.T) {
	var buf bytes.Buffer
	printErrorLine(&buf, token.Token{File: "missing.kite", Line: 1, Column: 1, Len: 1}, false)
	if buf.Len() != 0 {
		t.Errorf("printErrorLine wrote %q for an unregistered file", buf.String())
	}
	if strings.Contains(paint(false, "31", "x"), "\033") {
		t.Error("paint added escapes with colour disabled")
	}
}
