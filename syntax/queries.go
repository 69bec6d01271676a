/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package syntax parses TypeScript sources with tree-sitter.
//
// It provides the import pre-scan used to discover a file's dependencies
// without resolving them, and a per-file summary of import bindings and
// exported names used for cross-file checks.
package syntax

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/*/*.scm
var queryFiles embed.FS

// Dialect selects the tree-sitter grammar.
type Dialect int

const (
	TypeScript Dialect = iota
	TSX
)

func (d Dialect) String() string {
	if d == TSX {
		return "tsx"
	}
	return "typescript"
}

// DialectFor picks the grammar from a file name.
func DialectFor(fileName string) Dialect {
	if strings.HasSuffix(fileName, ".tsx") {
		return TSX
	}
	return TypeScript
}

var languages = map[Dialect]*ts.Language{
	TypeScript: ts.NewLanguage(tsTypescript.LanguageTypescript()),
	TSX:        ts.NewLanguage(tsTypescript.LanguageTSX()),
}

// Parser pools for reuse, one per dialect.
var parserPools = map[Dialect]*sync.Pool{
	TypeScript: newParserPool(TypeScript),
	TSX:        newParserPool(TSX),
}

func newParserPool(d Dialect) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			parser := ts.NewParser()
			if err := parser.SetLanguage(languages[d]); err != nil {
				panic("failed to set " + d.String() + " language: " + err.Error())
			}
			return parser
		},
	}
}

func getParser(d Dialect) *ts.Parser {
	return parserPools[d].Get().(*ts.Parser)
}

func putParser(d Dialect, p *ts.Parser) {
	p.Reset()
	parserPools[d].Put(p)
}

// parse parses content and returns a tree the caller must Close.
func parse(content []byte, d Dialect) (*ts.Tree, error) {
	parser := getParser(d)
	defer putParser(d, parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s content", d)
	}
	return tree, nil
}

// QueryManager holds compiled queries. Queries are compiled per dialect
// because node kinds differ between the grammars.
type QueryManager struct {
	mu      sync.Mutex
	closed  bool
	queries map[Dialect]map[string]*ts.Query
}

// NewQueryManager compiles the named queries for every dialect.
func NewQueryManager(names ...string) (*QueryManager, error) {
	qm := &QueryManager{queries: make(map[Dialect]map[string]*ts.Query)}
	for d := range languages {
		qm.queries[d] = make(map[string]*ts.Query)
		for _, name := range names {
			if err := qm.loadQuery(d, name); err != nil {
				qm.Close()
				return nil, err
			}
		}
	}
	return qm, nil
}

func (qm *QueryManager) loadQuery(d Dialect, name string) error {
	// TSX shares the TypeScript query sources.
	queryPath := path.Join("queries", "typescript", name+".scm")
	data, err := queryFiles.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("failed to read query %s: %w", queryPath, err)
	}

	query, qerr := ts.NewQuery(languages[d], string(data))
	if qerr != nil {
		return fmt.Errorf("failed to parse query %s for %s: %w", name, d, qerr)
	}
	qm.queries[d][name] = query
	return nil
}

// Close releases all query resources. Safe to call multiple times.
func (qm *QueryManager) Close() {
	qm.mu.Lock()
	if qm.closed {
		qm.mu.Unlock()
		return
	}
	qm.closed = true
	queries := qm.queries
	qm.queries = nil
	qm.mu.Unlock()

	for _, byName := range queries {
		for _, q := range byName {
			q.Close()
		}
	}
}

// Query returns a compiled query by dialect and name.
func (qm *QueryManager) Query(d Dialect, name string) (*ts.Query, error) {
	q, ok := qm.queries[d][name]
	if !ok {
		return nil, fmt.Errorf("query not found: %s/%s", d, name)
	}
	return q, nil
}

var (
	globalQM     *QueryManager
	globalQMOnce sync.Once
	globalQMErr  error
)

// GetQueryManager returns the shared query manager.
func GetQueryManager() (*QueryManager, error) {
	globalQMOnce.Do(func() {
		globalQM, globalQMErr = NewQueryManager("imports")
	})
	return globalQM, globalQMErr
}
