package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stdout         string        `json:"stdout"`
	Stderr         string        `json:"stderr"`
	ExitCode       int           `json:"exitCode"`
	Duration       time.Duration `json:"duration"`
	TimedOut       bool          `json:"timed_out"`
	UnstableOutput bool          `json:"unstable_output,omitempty"`
}

type TestRun struct {
	Name   string    `json:"name"`
	Args   []string  `json:"args,omitempty"`
	Result Execution `json:"result"`
}

// GoldenResult is what a golden file holds for one source file
type GoldenResult struct {
	Hash string    `json:"hash"`
	Runs []TestRun `json:"runs"`
}

type FileTestResult struct {
	File     string        `json:"file"`
	Status   string        `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string        `json:"message,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Expected *GoldenResult `json:"expected,omitempty"`
	Actual   *GoldenResult `json:"actual,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	kiteBinary     = flag.String("kite", "./kite", "Path to the kite binary to test.")
	kiteArgs       = flag.String("args", "", "Extra arguments passed to every kite invocation (space-separated).")
	generateGolden = flag.Bool("generate-golden", false, "Write golden .json files for the matched sources instead of testing.")
	testFiles      = flag.String("test-files", "tests/*.kite", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each command execution.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	runs           = flag.Int("runs", 3, "Number of times to run each mode to detect unstable output.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	ignoreLines    = flag.String("ignore-lines", "", "Comma-separated substrings to ignore during output comparison.")
	allowMissing   = flag.Bool("allow-missing", false, "Skip sources without a golden file instead of failing.")
)

// modes are the kite invocations recorded for every source file
var modes = map[string][]string{
	"dump":   {},
	"json":   {"--json"},
	"tokens": {"--tokens"},
	"fold":   {"--fold"},
	"strict": {"--std=strict"},
}

const sourcePlaceholder = "__SOURCE__"

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *runs < 1 {
		*runs = 1
	}

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	if *generateGolden {
		for _, file := range files {
			handleGenerateGolden(file)
		}
		return
	}
	handleRunTestSuite(files)
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func handleGenerateGolden(sourceFile string) {
	log.Printf("Generating golden file for %s...\n", sourceFile)

	fileHash, err := hashFile(sourceFile)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Could not hash source file %s: %v\n", cRed, cNone, sourceFile, err)
	}

	result := runModes(sourceFile, fileHash)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
	}

	goldenFileName := getJSONPath(sourceFile)
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}
	if err := os.WriteFile(goldenFileName, jsonData, 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
	}
	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
}

func handleRunTestSuite(files []string) {
	if _, err := exec.LookPath(*kiteBinary); err != nil {
		log.Fatalf("%s[ERROR]%s kite binary '%s' not found: %v\n", cRed, cNone, *kiteBinary, err)
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	type task struct{ file, hash string }
	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- testFile(t.file, t.hash)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- task{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	resultsMap := writeJSONReport(allResults)
	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func testFile(file, fileHash string) *FileTestResult {
	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		if *allowMissing {
			return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
		}
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Missing golden file %s (run with -generate-golden)", goldenFile)}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	var golden GoldenResult
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	actual := runModes(file, fileHash)
	result := compareResults(file, &golden, actual)
	if result.Status == "PASS" && golden.Hash != "" && golden.Hash != fileHash {
		result.Message += " (source changed since the golden file was generated)"
	}
	return result
}

// runModes invokes kite once per mode, repeating each run to catch nondeterminism
func runModes(sourceFile, fileHash string) *GoldenResult {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)

	ignoredSubstrings := ignoredLines()
	result := &GoldenResult{Hash: fileHash, Runs: make([]TestRun, 0, len(names))}
	for _, name := range names {
		args := append(append([]string{}, modes[name]...), strings.Fields(*kiteArgs)...)
		args = append(args, sourceFile)

		var first Execution
		var durations []time.Duration
		unstable := false
		for i := 0; i < *runs; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), *timeout)
			run := executeCommand(ctx, *kiteBinary, args...)
			cancel()
			run.Stdout = strings.ReplaceAll(run.Stdout, sourceFile, sourcePlaceholder)
			run.Stderr = strings.ReplaceAll(run.Stderr, sourceFile, sourcePlaceholder)

			if i == 0 {
				first = run
			} else if first.ExitCode != run.ExitCode ||
				filterOutput(first.Stdout, ignoredSubstrings) != filterOutput(run.Stdout, ignoredSubstrings) ||
				filterOutput(first.Stderr, ignoredSubstrings) != filterOutput(run.Stderr, ignoredSubstrings) {
				unstable = true
				break
			}
			durations = append(durations, run.Duration)
			if run.TimedOut {
				break
			}
		}
		if len(durations) > 0 {
			sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
			first.Duration = durations[0]
		}
		first.UnstableOutput = unstable
		result.Runs = append(result.Runs, TestRun{Name: name, Args: modes[name], Result: first})
	}
	return result
}

func compareResults(file string, expected, actual *GoldenResult) *FileTestResult {
	var diffs strings.Builder
	var failed bool

	actualRuns := make(map[string]TestRun)
	for _, run := range actual.Runs {
		actualRuns[run.Name] = run
	}
	sort.Slice(expected.Runs, func(i, j int) bool {
		return expected.Runs[i].Name < expected.Runs[j].Name
	})

	ignoredSubstrings := ignoredLines()
	for _, want := range expected.Runs {
		got, ok := actualRuns[want.Name]
		if !ok {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' missing in actual results.\n", want.Name))
			continue
		}
		if got.Result.UnstableOutput {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' produced different output across runs.\n", want.Name))
		}
		if got.Result.TimedOut {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' timed out after %s.\n", want.Name, *timeout))
		}
		if want.Result.ExitCode != got.Result.ExitCode {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' Exit Code mismatch:\n  - Expected: %d\n  - Actual:   %d\n", want.Name, want.Result.ExitCode, got.Result.ExitCode))
		}
		if filterOutput(want.Result.Stdout, ignoredSubstrings) != filterOutput(got.Result.Stdout, ignoredSubstrings) {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' STDOUT mismatch:\n%s", want.Name, cmp.Diff(want.Result.Stdout, got.Result.Stdout)))
		}
		if filterOutput(want.Result.Stderr, ignoredSubstrings) != filterOutput(got.Result.Stderr, ignoredSubstrings) {
			failed = true
			diffs.WriteString(fmt.Sprintf("Mode '%s' STDERR mismatch:\n%s", want.Name, cmp.Diff(want.Result.Stderr, got.Result.Stderr)))
		}
	}

	if failed {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output or exit code mismatch", Diff: diffs.String(), Expected: expected, Actual: actual}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: fmt.Sprintf("All %d modes passed", len(expected.Runs)), Expected: expected, Actual: actual}
}

// executeCommand runs a command with a timeout and captures its output
func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if ctx.Err() == context.DeadlineExceeded {
		execResult.TimedOut = true
		execResult.ExitCode = -1
	} else if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult
}

func ignoredLines() []string {
	if *ignoreLines == "" {
		return nil
	}
	return strings.Split(*ignoreLines, ",")
}

// filterOutput removes lines containing any of the given substrings
func filterOutput(output string, ignoredSubstrings []string) string {
	if len(ignoredSubstrings) == 0 || output == "" {
		return output
	}
	lines := strings.Split(output, "\n")
	filteredLines := make([]string, 0, len(lines))
	for _, line := range lines {
		ignore := false
		for _, sub := range ignoredSubstrings {
			if sub != "" && strings.Contains(line, sub) {
				ignore = true
				break
			}
		}
		if !ignore {
			filteredLines = append(filteredLines, line)
		}
	}
	return strings.Join(filteredLines, "\n")
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var total time.Duration

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}

		if result.Actual == nil {
			continue
		}
		for _, run := range result.Actual.Runs {
			total += run.Result.Duration
			if *verbose {
				fmt.Printf("    %-8s exit=%d %s\n", run.Name, run.Result.ExitCode, formatDuration(run.Result.Duration))
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if *verbose {
		fmt.Printf("Total time spent in kite: %s\n", total)
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
