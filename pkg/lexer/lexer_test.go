package lexer

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
	"github.com/xplshn/kite/pkg/util"
)

const testFile = "test.kite"

func tok(kind token.Kind, value string, line, col, length int) token.Token {
	return token.Token{Kind: kind, Value: value, File: testFile, Line: line, Column: col, Len: length}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Token
	}{
		{
			name:  "variable declaration",
			input: "var x = 1;",
			want: []token.Token{
				tok(token.Reserved, "var", 1, 1, 3),
				tok(token.Identifier, "x", 1, 5, 1),
				tok(token.Symbol, "=", 1, 7, 1),
				tok(token.Number, "1", 1, 9, 1),
				tok(token.Symbol, ";", 1, 10, 1),
			},
		},
		{
			name:  "longest symbol wins",
			input: "a&&=b**c<=d",
			want: []token.Token{
				tok(token.Identifier, "a", 1, 1, 1),
				tok(token.Symbol, "&&=", 1, 2, 3),
				tok(token.Identifier, "b", 1, 5, 1),
				tok(token.Symbol, "**", 1, 6, 2),
				tok(token.Identifier, "c", 1, 8, 1),
				tok(token.Symbol, "<=", 1, 9, 2),
				tok(token.Identifier, "d", 1, 11, 1),
			},
		},
		{
			name:  "power assign is lexed as one symbol",
			input: "x **= 2",
			want: []token.Token{
				tok(token.Identifier, "x", 1, 1, 1),
				tok(token.Symbol, "**=", 1, 3, 3),
				tok(token.Number, "2", 1, 7, 1),
			},
		},
		{
			name:  "string escapes are decoded",
			input: `"a\n\"b"`,
			want: []token.Token{
				tok(token.String, "a\n\"b", 1, 1, 8),
			},
		},
		{
			name:  "all escapes",
			input: `"\r\b\t\\"`,
			want: []token.Token{
				tok(token.String, "\r\b\t\\", 1, 1, 10),
			},
		},
		{
			name:  "comments are skipped",
			input: "// hi\nx /* multi\nline */ y",
			want: []token.Token{
				tok(token.Identifier, "x", 2, 1, 1),
				tok(token.Identifier, "y", 3, 9, 1),
			},
		},
		{
			name:  "crlf is a single line break",
			input: "a\r\nb // c\r\nd",
			want: []token.Token{
				tok(token.Identifier, "a", 1, 1, 1),
				tok(token.Identifier, "b", 2, 1, 1),
				tok(token.Identifier, "d", 3, 1, 1),
			},
		},
		{
			name:  "numbers",
			input: "1.5e3 .5 42 7.",
			want: []token.Token{
				tok(token.Number, "1.5e3", 1, 1, 5),
				tok(token.Number, ".5", 1, 7, 2),
				tok(token.Number, "42", 1, 10, 2),
				tok(token.Number, "7.", 1, 13, 2),
			},
		},
		{
			name:  "second point starts a new token",
			input: "1.2.3",
			want: []token.Token{
				tok(token.Number, "1.2", 1, 1, 3),
				tok(token.Number, ".3", 1, 4, 2),
			},
		},
		{
			name:  "reserved words and identifiers",
			input: "typeof keys empty foo_1 _",
			want: []token.Token{
				tok(token.Reserved, "typeof", 1, 1, 6),
				tok(token.Reserved, "keys", 1, 8, 4),
				tok(token.Reserved, "empty", 1, 13, 5),
				tok(token.Identifier, "foo_1", 1, 19, 5),
				tok(token.Identifier, "_", 1, 25, 1),
			},
		},
		{
			name:  "unicode identifier",
			input: "héllo = 1",
			want: []token.Token{
				tok(token.Identifier, "héllo", 1, 1, 5),
				tok(token.Symbol, "=", 1, 7, 1),
				tok(token.Number, "1", 1, 9, 1),
			},
		},
		{
			name:  "member access",
			input: "o.k[0]",
			want: []token.Token{
				tok(token.Identifier, "o", 1, 1, 1),
				tok(token.Symbol, ".", 1, 2, 1),
				tok(token.Identifier, "k", 1, 3, 1),
				tok(token.Symbol, "[", 1, 4, 1),
				tok(token.Number, "0", 1, 5, 1),
				tok(token.Symbol, "]", 1, 6, 1),
			},
		},
		{
			name:  "empty input",
			input: "  \n\t// only a comment",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input, testFile, nil)
			if err != nil {
				t.Fatalf("Tokenize(%q) returned error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  util.Kind
		line  int
		col   int
	}{
		{"unexpected character", "@", util.UnexpectedCharacter, 1, 1},
		{"single ampersand", "a & b", util.UnexpectedCharacter, 1, 3},
		{"lone carriage return", "a\rb", util.UnexpectedCharacter, 1, 2},
		{"unterminated block comment", "x = 1;\n  /* open", util.UnterminatedComment, 2, 3},
		{"unterminated string at eof", `"abc`, util.UnterminatedString, 1, 1},
		{"string across newline", "x = \"ab\ncd\"", util.UnterminatedString, 1, 5},
		{"backslash at eof", `"ab\`, util.UnterminatedString, 1, 1},
		{"invalid escape", `"a\q"`, util.InvalidEscapeSequence, 1, 1},
		{"exponent without digits", "2e", util.MalformedNumber, 1, 1},
		{"signed exponent", "1e-3", util.MalformedNumber, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, testFile, nil)
			if err == nil {
				t.Fatalf("Tokenize(%q) = %v, want error", tt.input, tokens)
			}
			if tokens != nil {
				t.Errorf("Tokenize(%q) returned tokens alongside an error", tt.input)
			}
			var lexErr *util.Error
			if !errors.As(err, &lexErr) {
				t.Fatalf("error %v is not a *util.Error", err)
			}
			if lexErr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", lexErr.Kind, tt.kind)
			}
			if lexErr.Tok.Line != tt.line || lexErr.Tok.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", lexErr.Tok.Line, lexErr.Tok.Column, tt.line, tt.col)
			}
			if lexErr.Tok.File != testFile {
				t.Errorf("file = %q, want %q", lexErr.Tok.File, testFile)
			}
		})
	}
}

func TestUnexpectedCharacterMessage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@", `Unexpected character: '@'`},
		{"a\rb", `Unexpected character: '\r'`},
		{"\x01", `Unexpected character: '\x01'`},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.input, testFile, nil)
		var lexErr *util.Error
		if !errors.As(err, &lexErr) {
			t.Fatalf("Tokenize(%q) error %v is not a *util.Error", tt.input, err)
		}
		if lexErr.Msg != tt.want {
			t.Errorf("Tokenize(%q) message = %q, want %q", tt.input, lexErr.Msg, tt.want)
		}
	}
}

func TestFeatureGating(t *testing.T) {
	values := func(tokens []token.Token) []string {
		var out []string
		for _, tk := range tokens {
			out = append(out, tk.Value)
		}
		return out
	}

	tests := []struct {
		name    string
		feature config.Feature
		input   string
		want    []string
	}{
		{"line comments off", config.FeatLineComments, "a // b", []string{"a", "/", "/", "b"}},
		{"block comments off", config.FeatBlockComments, "a /* b", []string{"a", "/", "*", "b"}},
		{"compound assign off", config.FeatCompoundAssign, "a += 1", []string{"a", "+", "=", "1"}},
		{"logical assign off", config.FeatCompoundAssign, "a &&= b", []string{"a", "&&", "=", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.SetFeature(tt.feature, false)
			tokens, err := Tokenize(tt.input, testFile, cfg)
			if err != nil {
				t.Fatalf("Tokenize(%q) returned error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, values(tokens)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestNextAfterEnd(t *testing.T) {
	l := NewLexer([]rune("x"), testFile, nil)
	if _, err := l.Next(); err != nil {
		t.Fatalf("first Next returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := l.Next(); err != io.EOF {
			t.Fatalf("Next after end = %v, want io.EOF", err)
		}
	}
}
