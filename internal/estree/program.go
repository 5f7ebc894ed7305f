package estree

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	"github.com/go-sourcemap/sourcemap"
)

// Program is a parsed script together with the file it came from.
type Program struct {
	*ast.Program
	Name string

	sourceMap *sourcemap.Consumer
}

// Parse parses src as a script. When sourceMap is not empty, positions
// reported for the program are mapped back to the original sources.
func Parse(name, src string, sourceMap []byte) (*Program, error) {
	prg, err := parser.ParseFile(nil, name, src, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	p := &Program{Program: prg, Name: name}
	if len(sourceMap) != 0 {
		p.sourceMap, err = sourcemap.Parse(name+".map", sourceMap)
		if err != nil {
			return nil, fmt.Errorf("source map for %s: %w", name, err)
		}
	}
	return p, nil
}

// Position resolves an index from this program's AST. Lines and columns are
// 1-based.
func (p *Program) Position(idx file.Idx) file.Position {
	if p.File == nil {
		return file.Position{Filename: p.Name}
	}
	pos := p.File.Position(int(idx) - p.File.Base())
	if p.sourceMap == nil {
		return pos
	}

	// source map columns are 0-based
	source, _, line, col, ok := p.sourceMap.Source(pos.Line, pos.Column-1)
	if !ok {
		return pos
	}
	if source == "" {
		source = p.Name
	}
	return file.Position{Filename: source, Line: line, Column: col + 1}
}

// Walk visits every top-level statement of the program.
func (p *Program) Walk(onEnter func(node ast.Node), onExit func(node ast.Node)) {
	for _, stmt := range p.Body {
		TraverseAst(stmt, onEnter, onExit)
	}
}
