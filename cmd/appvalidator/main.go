package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"pkt.systems/pslog"

	"github.com/appvalidator/appvalidator/internal/linter"
	"github.com/appvalidator/appvalidator/internal/xpi"
)

const usage = `Validate built-in calls in a packaged browser extension.

Usage:
    appvalidator [OPTIONS] <package.xpi>

Options:
    -debug               Trace every modeled native call to stderr.
    -j N                 Validate up to N files concurrently.
    -single-threaded     Validate one file at a time.
    -format text|json    Report format (default text).
    -h, --help           Show help
`

const (
	exitOK      = 0
	exitIssues  = 1
	exitUsage   = 2
	exitFailure = 3
)

type report struct {
	Package string          `json:"package"`
	Results []linter.Result `json:"results"`
	Summary linter.Summary  `json:"summary"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		debug          bool
		workers        int
		singleThreaded bool
		format         string
	)
	fs := flag.NewFlagSet("appvalidator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	fs.BoolVar(&debug, "debug", false, "trace native calls")
	fs.IntVar(&workers, "j", 0, "concurrent files")
	fs.BoolVar(&singleThreaded, "single-threaded", false, "validate one file at a time")
	fs.StringVar(&format, "format", "text", "report format")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 || (format != "text" && format != "json") || workers < 0 {
		fs.Usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := pslog.InfoLevel
	if debug {
		level = pslog.DebugLevel
	}
	logger := pslog.NewWithOptions(ctx, stderr, pslog.Options{NoColor: true, MinLevel: level})
	opts := linter.Options{
		Workers:        workers,
		SingleThreaded: singleThreaded,
	}
	if debug {
		opts.Tracer = logger
	}

	path := fs.Arg(0)
	pkg, err := xpi.Open(path)
	if err != nil {
		logger.Error("cannot open package", "path", path, "err", err)
		return exitFailure
	}
	defer pkg.Close()

	rep := report{Package: path, Results: []linter.Result{}}
	onResult := func(r linter.Result) {
		if format == "text" {
			printResult(stdout, r)
			return
		}
		rep.Results = append(rep.Results, r)
	}

	summary, err := linter.Run(ctx, pkg, opts, onResult)
	if err != nil {
		logger.Error("validation aborted", "path", path, "err", err)
		return exitFailure
	}
	rep.Summary = summary

	if format == "json" {
		if err := json.MarshalWrite(stdout, rep, jsontext.WithIndent("  ")); err != nil {
			logger.Error("cannot write report", "err", err)
			return exitFailure
		}
		fmt.Fprintln(stdout)
	} else {
		fmt.Fprintf(stdout, "Validated %d files: %d calls, %d corrupt entries, %d failures.\n",
			summary.Files, summary.Calls, summary.Corrupt, summary.Failed)
	}

	if summary.Corrupt > 0 || summary.Failed > 0 {
		return exitIssues
	}
	return exitOK
}

func printResult(w io.Writer, r linter.Result) {
	switch r.Kind {
	case linter.ResultCall:
		fmt.Fprintf(w, "%s:%d:%d: %s(%d args) -> %s %s\n", r.File, r.Line, r.Column, r.Callee, r.Args, r.ValueKind, r.Value)
	case linter.ResultCorrupt:
		fmt.Fprintf(w, "%s: corrupt entry skipped: %s\n", r.File, r.Message)
	default:
		fmt.Fprintf(w, "%s: %s\n", r.File, r.Message)
	}
}
