package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xplshn/kite/pkg/ast"
	"github.com/xplshn/kite/pkg/checker"
	"github.com/xplshn/kite/pkg/cli"
	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/lexer"
	"github.com/xplshn/kite/pkg/parser"
	"github.com/xplshn/kite/pkg/token"
	"github.com/xplshn/kite/pkg/util"
)

type options struct {
	std        string
	tokens     bool
	jsonOut    bool
	fold       bool
	noCheck    bool
	wall       bool
	verbose    bool
	predeclare []string
}

// fileResult is the --json document for one source file
type fileResult struct {
	File       string      `json:"file"`
	Statements []*ast.Node `json:"statements"`
	Warnings   int         `json:"warnings"`
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// newApp wires the command line. Output goes to stdout, diagnostics to stderr.
func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp("kite")
	app.Synopsis = "[options] <file.kite> ..."
	app.Description = "Tokenize, parse and check kite scripts, printing the token stream or the syntax tree."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/kite>"

	var opts options
	fs := app.FlagSet
	fs.String(&opts.std, "std", "", "kite", "Specify language level (kite, core, strict)", "std")
	fs.Bool(&opts.tokens, "tokens", "t", false, "Print the token stream instead of the syntax tree.")
	fs.Bool(&opts.jsonOut, "json", "j", false, "Print the syntax tree as JSON.")
	fs.Bool(&opts.fold, "fold", "O", false, "Fold constant arithmetic before printing.")
	fs.Bool(&opts.noCheck, "no-check", "", false, "Skip the checker pass.")
	fs.Bool(&opts.wall, "Wall", "", false, "Enable every warning.")
	fs.Bool(&opts.verbose, "verbose", "v", false, "Report each stage on stderr.")
	fs.List(&opts.predeclare, "predeclare", "D", []string{}, "Treat <name> as declared by the host.", "name")

	cfg := config.NewConfig()
	cfg.Output = stderr
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		// Apply language standard first, explicit flags override it
		if err := cfg.ApplyStd(opts.std); err != nil {
			util.Report(stderr, err)
			return err
		}
		if opts.wall {
			cfg.SetAllWarnings(true)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		if len(inputFiles) == 0 {
			err := fmt.Errorf("no input files specified")
			util.Report(stderr, err)
			return err
		}
		if err := run(stdout, inputFiles, cfg, opts); err != nil {
			util.Report(stderr, err)
			return err
		}
		return nil
	}
	return app
}

func run(w io.Writer, paths []string, cfg *config.Config, opts options) error {
	records := make([]util.SourceFileRecord, 0, len(paths))
	sources := make([][]rune, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read file '%s': %w", path, err)
		}
		runes := []rune(string(content))
		records = append(records, util.SourceFileRecord{Name: path, Content: runes})
		sources = append(sources, runes)
	}
	util.SetSourceFiles(records)

	var results []fileResult
	for i, path := range paths {
		progress(cfg, opts, "Tokenizing '%s'...", path)
		tokens, err := lexer.Tokenize(string(sources[i]), path, cfg)
		if err != nil {
			return err
		}
		if opts.tokens {
			printTokens(w, tokens)
			continue
		}

		progress(cfg, opts, "Parsing %d tokens into AST...", len(tokens))
		stmts, err := parser.NewParser(tokens, cfg).Parse()
		if err != nil {
			return err
		}

		warnings := 0
		if !opts.noCheck {
			progress(cfg, opts, "Checking...")
			c := checker.NewChecker(cfg)
			c.Predeclare(opts.predeclare...)
			warnings = c.Check(stmts)
		}

		if opts.fold {
			progress(cfg, opts, "Folding constants...")
			for j, stmt := range stmts {
				stmts[j] = ast.FoldConstants(stmt)
			}
		}

		if opts.jsonOut {
			if stmts == nil {
				stmts = []*ast.Node{}
			}
			results = append(results, fileResult{File: path, Statements: stmts, Warnings: warnings})
			continue
		}
		if len(paths) > 1 {
			fmt.Fprintf(w, "; %s\n", path)
		}
		fmt.Fprint(w, ast.DumpProgram(stmts))
	}

	if opts.jsonOut && !opts.tokens {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("could not encode syntax tree: %w", err)
		}
	}
	return nil
}

func printTokens(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%s\t%s\t%s\n", tok.Pos(), tok.Kind, tok)
	}
}

func progress(cfg *config.Config, opts options, format string, args ...interface{}) {
	if opts.verbose {
		fmt.Fprintf(cfg.Output, format+"\n", args...)
	}
}
