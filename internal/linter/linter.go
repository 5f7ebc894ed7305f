package linter

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/appvalidator/appvalidator/internal/builtins"
	"github.com/appvalidator/appvalidator/internal/estree"
	"github.com/appvalidator/appvalidator/internal/jsvalue"
	"github.com/appvalidator/appvalidator/internal/loader"
	"github.com/appvalidator/appvalidator/internal/xpi"
)

// Archive is the part of a package the linter reads from.
type Archive interface {
	List() []string
	Info(name string) (xpi.EntryInfo, bool)
	Read(name string) ([]byte, error)
}

type ResultKind string

const (
	ResultCall    ResultKind = "call"
	ResultCorrupt ResultKind = "corrupt"
	ResultError   ResultKind = "error"
)

// Result is one line of the validation report.
type Result struct {
	Kind      ResultKind `json:"kind"`
	File      string     `json:"file"`
	Line      int        `json:"line,omitzero"`
	Column    int        `json:"column,omitzero"`
	Callee    string     `json:"callee,omitempty"`
	Args      int        `json:"args,omitzero"`
	ValueKind string     `json:"value_kind,omitempty"`
	Value     string     `json:"value,omitempty"`
	Message   string     `json:"message,omitempty"`
}

type Summary struct {
	Files   int `json:"files"`
	Calls   int `json:"calls"`
	Corrupt int `json:"corrupt"`
	Failed  int `json:"failed"`
}

type Options struct {
	// Workers bounds concurrent files; zero means GOMAXPROCS.
	Workers        int
	SingleThreaded bool
	Tracer         jsvalue.Tracer
	// Registry defaults to builtins.Globals().
	Registry       *builtins.Registry
}

func (o Options) workers() int {
	if o.SingleThreaded {
		return 1
	}
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Scripts lists the entries of pkg that are validated as scripts.
func Scripts(pkg Archive) []string {
	var names []string
	for _, name := range pkg.List() {
		info, ok := pkg.Info(name)
		if ok && loader.IsScript(info.Extension) {
			names = append(names, name)
		}
	}
	return names
}

// LintFile evaluates every modeled built-in call in one source file.
func LintFile(name string, src []byte, registry *builtins.Registry, tracer jsvalue.Tracer, onResult func(Result)) error {
	lowered, err := loader.Transform(name, src)
	if err != nil {
		return err
	}
	prg, err := estree.Parse(name, lowered.Code, lowered.SourceMap)
	if err != nil {
		return err
	}

	ctx := jsvalue.NewContext(jsvalue.WithName(name), jsvalue.WithTracer(tracer))
	estree.Evaluate(prg, registry, ctx, func(r estree.CallResult) {
		onResult(Result{
			Kind:      ResultCall,
			File:      name,
			Line:      r.Position.Line,
			Column:    r.Position.Column,
			Callee:    r.Callee,
			Args:      r.Args,
			ValueKind: r.Value.Kind().String(),
			Value:     r.Value.String(),
		})
	})
	return nil
}

// Run validates every script in pkg. onResult is never called concurrently.
// Corrupt entries and unparsable files are reported as results; only
// unexpected read failures and cancellation end the run with an error.
func Run(ctx context.Context, pkg Archive, opts Options, onResult func(Result)) (Summary, error) {
	registry := opts.Registry
	if registry == nil {
		registry = builtins.Globals()
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Kind {
		case ResultCall:
			summary.Calls++
		case ResultCorrupt:
			summary.Corrupt++
		case ResultError:
			summary.Failed++
		}
		onResult(r)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for _, name := range Scripts(pkg) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := pkg.Read(name)
			var corrupt *xpi.CorruptEntryError
			if errors.As(err, &corrupt) {
				report(Result{Kind: ResultCorrupt, File: name, Message: corrupt.Error()})
				return nil
			} else if err != nil {
				return err
			}

			mu.Lock()
			summary.Files++
			mu.Unlock()

			if err := LintFile(name, data, registry, opts.Tracer, report); err != nil {
				report(Result{Kind: ResultError, File: name, Message: err.Error()})
			}
			return nil
		})
	}

	err := g.Wait()
	return summary, err
}
