package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/util"
)

const testsDir = "../../tests"

func sample(name string) string { return filepath.Join(testsDir, name) }

// warningRe captures "file:line:col: warning: ... [-Wname]" as "line:col name"
var warningRe = regexp.MustCompile(`(?m)^\S+:(\d+):(\d+): warning: .* \[-W([a-z-]+)\]$`)

func warningsIn(s string) []string {
	var out []string
	for _, m := range warningRe.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1]+":"+m[2]+" "+m[3])
	}
	return out
}

func newTestConfig(stderr *bytes.Buffer) *config.Config {
	cfg := config.NewConfig()
	cfg.Output = stderr
	return cfg
}

func TestRunDump(t *testing.T) {
	arith := "(Var a (Addition 1 (Multiplication 2 3)))\n" +
		"(Var b (Power 2 (Power 3 2)))\n" +
		"(Var c (UnaryMinus (Power 2 2)))\n" +
		"(Var d (Division (Remainder (Multiplication (Addition 1 2) 3) 4) 2))\n" +
		"(Var e (Subtraction 1500 0.5))\n" +
		"(Expr (Assignment a (Addition a b)))\n" +
		"(Expr (Assignment a (Assignment b c)))\n"
	arithFolded := "(Var a 7)\n" +
		"(Var b 512)\n" +
		"(Var c -4)\n" +
		"(Var d 0.5)\n" +
		"(Var e 1499.5)\n" +
		"(Expr (Assignment a (Addition a b)))\n" +
		"(Expr (Assignment a (Assignment b c)))\n"

	tests := []struct {
		name string
		file string
		opts options
		want string
	}{
		{"arith", "arith.kite", options{}, arith},
		{"arith folded", "arith.kite", options{fold: true}, arithFolded},
		{"arith unchecked", "arith.kite", options{noCheck: true}, arith},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, stderr bytes.Buffer
			if err := run(&out, []string{sample(tt.file)}, newTestConfig(&stderr), tt.opts); err != nil {
				t.Fatalf("run returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if stderr.Len() != 0 {
				t.Errorf("unexpected diagnostics: %q", stderr.String())
			}
		})
	}
}

func TestRunObjects(t *testing.T) {
	var out, stderr bytes.Buffer
	if err := run(&out, []string{sample("objects.kite")}, newTestConfig(&stderr), options{}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "(Var dup (Object (\"k\" 2)))\n") {
		t.Errorf("duplicate key should keep the last value, got:\n%s", out.String())
	}
	if diff := cmp.Diff([]string{"7:19 duplicate-key"}, warningsIn(stderr.String())); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWarnings(t *testing.T) {
	want := []string{
		"1:1 loop-control",
		"2:1 unreachable-code",
		"2:1 return-outside-fn",
		"3:1 duplicate-param",
		"5:5 unreachable-code",
		"7:1 redeclared",
		"8:3 assign-target",
	}

	var out, stderr bytes.Buffer
	if err := run(&out, []string{sample("warnings.kite")}, newTestConfig(&stderr), options{}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if diff := cmp.Diff(want, warningsIn(stderr.String())); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	stderr.Reset()
	out.Reset()
	if err := run(&out, []string{sample("warnings.kite")}, newTestConfig(&stderr), options{noCheck: true}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("--no-check still printed %q", stderr.String())
	}
}

func TestRunJSON(t *testing.T) {
	var out, stderr bytes.Buffer
	paths := []string{sample("arith.kite"), sample("warnings.kite")}
	if err := run(&out, paths, newTestConfig(&stderr), options{jsonOut: true}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	var got []struct {
		File       string                   `json:"file"`
		Statements []map[string]interface{} `json:"statements"`
		Warnings   int                      `json:"warnings"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
	}

	type summary struct {
		File       string
		Statements int
		Warnings   int
		FirstType  string
	}
	var sums []summary
	for _, r := range got {
		s := summary{File: r.File, Statements: len(r.Statements), Warnings: r.Warnings}
		if len(r.Statements) > 0 {
			s.FirstType, _ = r.Statements[0]["type"].(string)
		}
		sums = append(sums, s)
	}
	want := []summary{
		{File: paths[0], Statements: 7, Warnings: 0, FirstType: "Var"},
		{File: paths[1], Statements: 5, Warnings: 7, FirstType: "Break"},
	}
	if diff := cmp.Diff(want, sums); diff != "" {
		t.Errorf("JSON summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.kite")
	if err := os.WriteFile(path, []byte("var s = \"a\\n\"; // trailing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, stderr bytes.Buffer
	if err := run(&out, []string{path}, newTestConfig(&stderr), options{tokens: true}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	want := path + ":1:1\treserved\tvar\n" +
		path + ":1:5\tidentifier\ts\n" +
		path + ":1:7\tsymbol\t=\n" +
		path + ":1:9\tstring\t\"a\\n\"\n" +
		path + ":1:14\tsymbol\t;\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("token listing mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMultipleFiles(t *testing.T) {
	var out, stderr bytes.Buffer
	paths := []string{sample("arith.kite"), sample("control.kite")}
	if err := run(&out, paths, newTestConfig(&stderr), options{}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	var headers []string
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "; ") {
			headers = append(headers, line)
		}
	}
	if diff := cmp.Diff([]string{"; " + paths[0], "; " + paths[1]}, headers); diff != "" {
		t.Errorf("file headers mismatch (-want +got):\n%s", diff)
	}
	// 7 statements in arith.kite, 3 in control.kite, one header each
	if len(lines) != 12 {
		t.Errorf("got %d lines, want 12:\n%s", len(lines), out.String())
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		kind util.Kind
		line int
		col  int
	}{
		{"unterminated string", "unterminated_string.kite", util.UnterminatedString, 1, 9},
		{"missing variable name", "missing_name.kite", util.ExpectedIdentifier, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, stderr bytes.Buffer
			err := run(&out, []string{sample(tt.file)}, newTestConfig(&stderr), options{})
			var kiteErr *util.Error
			if !errors.As(err, &kiteErr) {
				t.Fatalf("run error = %v, want a *util.Error", err)
			}
			if kiteErr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", kiteErr.Kind, tt.kind)
			}
			if kiteErr.Tok.Line != tt.line || kiteErr.Tok.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", kiteErr.Tok.Line, kiteErr.Tok.Column, tt.line, tt.col)
			}
			if out.Len() != 0 {
				t.Errorf("failed run still printed %q", out.String())
			}
		})
	}

	if err := run(&bytes.Buffer{}, []string{sample("does_not_exist.kite")}, config.NewConfig(), options{}); err == nil {
		t.Error("run on a missing file should fail")
	}
}

func TestAppExitStatus(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    bool
		wantStdout string
		wantStderr string
	}{
		{"dump", []string{"--fold", sample("arith.kite")}, false, "(Var a 7)\n", ""},
		{"syntax error", []string{sample("missing_name.kite")}, true, "", "error: Expected identifier after 'var', got '2'"},
		{"no input", []string{}, true, "", "no input files specified"},
		{"bad standard", []string{"--std=c99", sample("arith.kite")}, true, "", "unsupported standard 'c99'"},
		{"warning disabled", []string{"-Wno-redeclared", sample("warnings.kite")}, false, "(Break)\n", "[-Wassign-target]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := newApp(&stdout, &stderr).Run(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !strings.HasPrefix(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want prefix %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}

	var stdout, stderr bytes.Buffer
	if err := newApp(&stdout, &stderr).Run([]string{"-Wno-redeclared", sample("warnings.kite")}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.Contains(stderr.String(), "[-Wredeclared]") {
		t.Errorf("-Wno-redeclared did not silence the warning:\n%s", stderr.String())
	}
}
