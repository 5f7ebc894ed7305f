// Package loader lowers extension sources (modern JS, JSX, TypeScript) into
// plain scripts the parser understands.
package loader

import (
	"errors"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var loaders = map[string]api.Loader{
	"js":  api.LoaderJS,
	"mjs": api.LoaderJS,
	"cjs": api.LoaderJS,
	"jsm": api.LoaderJS,
	"jsx": api.LoaderJSX,
	"ts":  api.LoaderTS,
	"mts": api.LoaderTS,
	"cts": api.LoaderTS,
	"tsx": api.LoaderTSX,
}

// IsScript reports whether files with extension ext (without the dot,
// lowercase) are validated as scripts.
func IsScript(ext string) bool {
	_, ok := loaders[ext]
	return ok
}

// Source is a lowered script ready for parsing.
type Source struct {
	Name      string
	Code      string
	SourceMap []byte
}

// Transform lowers src. The returned source map points back at the input.
func Transform(name string, src []byte) (Source, error) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	loader, ok := loaders[ext]
	if !ok {
		loader = api.LoaderJS
	}

	result := api.Transform(string(src), api.TransformOptions{
		Loader:     loader,
		Sourcefile: name,
		Sourcemap:  api.SourceMapExternal,
		Format:     api.FormatDefault,
		Target:     api.ES2020,
		Supported: map[string]bool{
			"async-await":     false,
			"async-generator": false,
			"class-field":     false,
		},
		LogLevel: api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		msg := ""
		for _, e := range api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage}) {
			msg += e
		}
		return Source{}, errors.New(msg)
	}

	return Source{
		Name:      name,
		Code:      string(result.Code),
		SourceMap: result.Map,
	}, nil
}
