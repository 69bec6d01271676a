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
package depcheck

import (
	"encoding/json"
	"testing"

	"bennypowers.dev/tsgraft/packagejson"
	"bennypowers.dev/tsgraft/syntax"
	"bennypowers.dev/tsgraft/testutil"
)

func TestCheck(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "depcheck/undeclared", "/test")

	pkg, err := packagejson.ParseFile(mfs, "/test/package.json")
	if err != nil {
		t.Fatalf("Failed to parse package.json: %v", err)
	}
	content, err := mfs.ReadFile("/test/src/main.ts")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	imports, err := syntax.ExtractImports(content, syntax.TypeScript)
	if err != nil {
		t.Fatalf("ExtractImports failed: %v", err)
	}

	issues := New(mfs, "/test", pkg).Check(map[string][]syntax.ModuleImport{
		"/test/src/main.ts":                      imports,
		"/test/node_modules/tslib/tslib.es6.mjs": {{Specifier: "undeclared", Line: 1}},
	})

	expectedBytes, err := mfs.ReadFile("/test/expected.json")
	if err != nil {
		t.Fatalf("Failed to read expected.json: %v", err)
	}
	var expected struct {
		Issues []struct {
			File      string `json:"file"`
			Line      int    `json:"line"`
			Specifier string `json:"specifier"`
			Package   string `json:"package"`
			IssueType string `json:"issue_type"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(expectedBytes, &expected); err != nil {
		t.Fatalf("Failed to parse expected.json: %v", err)
	}

	if len(issues) != len(expected.Issues) {
		t.Fatalf("Expected %d issues, got %d: %+v", len(expected.Issues), len(issues), issues)
	}
	for i, exp := range expected.Issues {
		if issues[i].File != exp.File {
			t.Errorf("Issue %d: expected file %q, got %q", i, exp.File, issues[i].File)
		}
		if issues[i].Line != exp.Line {
			t.Errorf("Issue %d: expected line %d, got %d", i, exp.Line, issues[i].Line)
		}
		if issues[i].Specifier != exp.Specifier {
			t.Errorf("Issue %d: expected specifier %q, got %q", i, exp.Specifier, issues[i].Specifier)
		}
		if issues[i].Package != exp.Package {
			t.Errorf("Issue %d: expected package %q, got %q", i, exp.Package, issues[i].Package)
		}
		if issues[i].Type.String() != exp.IssueType {
			t.Errorf("Issue %d: expected issue type %q, got %q", i, exp.IssueType, issues[i].Type.String())
		}
	}
}

func TestCheckTypesPackages(t *testing.T) {
	pkg := &packagejson.PackageJSON{
		Name:            "app",
		DevDependencies: map[string]string{"@types/react": "^18", "@types/babel__core": "^7"},
	}
	issues := New(testutil.NewFixtureFS(t, "depcheck/undeclared", "/test"), "/test", pkg).Check(map[string][]syntax.ModuleImport{
		"/test/src/a.ts": {
			{Specifier: "react", Line: 1},
			{Specifier: "@babel/core", Line: 2},
			{Specifier: "app/internal", Line: 3},
		},
	})
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %d: %+v", len(issues), issues)
	}
}

func TestTypesPackage(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"react", "@types/react"},
		{"@babel/core", "@types/babel__core"},
	}
	for _, tt := range tests {
		if got := typesPackage(tt.name); got != tt.expected {
			t.Errorf("typesPackage(%q) = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestIssueType_String(t *testing.T) {
	tests := []struct {
		issueType IssueType
		expected  string
	}{
		{TransitiveDep, "transitive dependency"},
		{DevDep, "devDependency"},
		{NotInstalled, "not installed"},
	}

	for _, tt := range tests {
		if tt.issueType.String() != tt.expected {
			t.Errorf("IssueType(%d).String() = %q, expected %q", tt.issueType, tt.issueType.String(), tt.expected)
		}
	}
}
