package linter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/v3/assert"

	"github.com/appvalidator/appvalidator/internal/builtins"
	"github.com/appvalidator/appvalidator/internal/xpi"
)

func buildPackage(t *testing.T, files map[string]string, order ...string) *xpi.Package {
	t.Helper()
	var buf bytes.Buffer
	w := xpi.Create(&buf, "test.xpi")
	for _, name := range order {
		assert.NilError(t, w.Write(name, []byte(files[name])))
	}
	assert.NilError(t, w.Close())

	p, err := xpi.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "test.xpi")
	assert.NilError(t, err)
	return p
}

func sortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return a.Column - b.Column
	})
}

func TestRun(t *testing.T) {
	files := map[string]string{
		"manifest.json":  `{"name": "String(1)"}`,
		"content.js":     "var a = Math.round(2.5);\nString(x);\n",
		"lib/util.ts":    "const n: number = Number('42');\n",
		"broken.js":      "var = ;",
		"styles/app.css": "body { color: red }",
	}
	pkg := buildPackage(t, files, "manifest.json", "content.js", "lib/util.ts", "broken.js", "styles/app.css")

	assert.DeepEqual(t, Scripts(pkg), []string{"content.js", "lib/util.ts", "broken.js"})

	var results []Result
	summary, err := Run(context.Background(), pkg, Options{Workers: 2}, func(r Result) {
		results = append(results, r)
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, summary, Summary{Files: 3, Calls: 3, Failed: 1})

	sortResults(results)
	want := []Result{
		{Kind: ResultError, File: "broken.js"},
		{Kind: ResultCall, File: "content.js", Line: 1, Callee: "Math.round", Args: 1, ValueKind: "number", Value: "3"},
		{Kind: ResultCall, File: "content.js", Line: 2, Callee: "String", Args: 1, ValueKind: "object", Value: "[object Object]"},
		{Kind: ResultCall, File: "lib/util.ts", Line: 1, Callee: "Number", Args: 1, ValueKind: "number", Value: "42"},
	}
	assert.DeepEqual(t, results, want, cmpopts.IgnoreFields(Result{}, "Message", "Column"))
	assert.Assert(t, results[0].Message != "")
}

func TestRunSingleThreadedReportsInOrder(t *testing.T) {
	files := map[string]string{
		"a.js": "Number(1)",
		"b.js": "Number(2)",
		"c.js": "Number(3)",
	}
	pkg := buildPackage(t, files, "a.js", "b.js", "c.js")

	var values []string
	_, err := Run(context.Background(), pkg, Options{SingleThreaded: true}, func(r Result) {
		values = append(values, r.File+"="+r.Value)
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, values, []string{"a.js=1", "b.js=2", "c.js=3"})
}

func corruptEntry(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	assert.NilError(t, err)
	out := bytes.Clone(data)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		off, err := f.DataOffset()
		assert.NilError(t, err)
		for i := off; i < off+int64(f.CompressedSize64); i++ {
			out[i] = 0xff
		}
	}
	return out
}

func TestRunReportsCorruptEntries(t *testing.T) {
	var buf bytes.Buffer
	w := xpi.Create(&buf, "test.xpi")
	assert.NilError(t, w.Write("ok.js", []byte("Boolean('x')")))
	assert.NilError(t, w.Write("bad.js", bytes.Repeat([]byte("Number('1');\n"), 100)))
	assert.NilError(t, w.Close())

	data := corruptEntry(t, buf.Bytes(), "bad.js")
	pkg, err := xpi.NewReader(bytes.NewReader(data), int64(len(data)), "test.xpi")
	assert.NilError(t, err)

	var results []Result
	summary, err := Run(context.Background(), pkg, Options{SingleThreaded: true}, func(r Result) {
		results = append(results, r)
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, summary, Summary{Files: 1, Calls: 1, Corrupt: 1})
	assert.Equal(t, results[0].Kind, ResultCall)
	assert.Equal(t, results[1].Kind, ResultCorrupt)
	assert.Equal(t, results[1].File, "bad.js")

	assert.DeepEqual(t, pkg.List(), []string{"ok.js"})
}

type failingArchive struct {
	*xpi.Package
}

var errDisk = errors.New("disk on fire")

func (failingArchive) Read(string) ([]byte, error) {
	return nil, errDisk
}

func TestRunStopsOnReadFailure(t *testing.T) {
	pkg := buildPackage(t, map[string]string{"a.js": "Number(1)"}, "a.js")
	_, err := Run(context.Background(), failingArchive{pkg}, Options{}, func(Result) {
		t.Fatal("no results expected")
	})
	assert.Assert(t, errors.Is(err, errDisk))
}

func TestRunCancelled(t *testing.T) {
	pkg := buildPackage(t, map[string]string{"a.js": "Number(1)"}, "a.js")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, pkg, Options{}, func(Result) {})
	assert.Assert(t, errors.Is(err, context.Canceled))
}

func TestLintFileWithCustomRegistry(t *testing.T) {
	number, ok := builtins.Globals().Lookup("Number")
	assert.Assert(t, ok)
	registry := builtins.NewRegistry(map[string]builtins.Func{"Number": number})

	var got []string
	err := LintFile("x.js", []byte("Number('5'); String(1)"), registry, nil, func(r Result) {
		got = append(got, fmt.Sprintf("%s=%s", r.Callee, r.Value))
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []string{"Number=5"})
}
