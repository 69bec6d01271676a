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
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Build the binary before running tests
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "tsgraft_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "tsgraft_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "tsgraft_test")
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

var project = filepath.Join("testdata", "cli", "project")

func TestVersionJSON(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("Failed to parse output: %v\n%s", err, stdout)
	}
	for _, key := range []string{"version", "esbuild", "treeSitter"} {
		if info[key] == "" {
			t.Errorf("Expected %q in version info, got %v", key, info)
		}
	}
}

func TestGraphJSON(t *testing.T) {
	stdout, stderr, code := runCLI(t, "graph", "--package", project, "src/main.ts", "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	var nodes []struct {
		Path       string   `json:"path"`
		Imports    []string `json:"imports"`
		ImportedBy []string `json:"importedBy"`
		Size       int      `json:"size"`
	}
	if err := json.Unmarshal([]byte(stdout), &nodes); err != nil {
		t.Fatalf("Failed to parse output: %v\n%s", err, stdout)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 files, got %d: %+v", len(nodes), nodes)
	}
	if nodes[0].Path != "src/main.ts" || nodes[1].Path != "src/util.ts" {
		t.Errorf("Unexpected files: %+v", nodes)
	}
	if !slices.Equal(nodes[0].Imports, []string{"src/util.ts"}) {
		t.Errorf("Expected main to import util, got %v", nodes[0].Imports)
	}
	if !slices.Equal(nodes[1].ImportedBy, []string{"src/main.ts"}) {
		t.Errorf("Expected util to be imported by main, got %v", nodes[1].ImportedBy)
	}
	if nodes[1].Size == 0 {
		t.Error("Expected a size for util")
	}
}

func TestGraphFromHTML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "graph.yaml")
	_, stderr, code := runCLI(t, "graph", "-p", project, "index.html", "-f", "yaml", "-o", out)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "path: src/main.ts") {
		t.Errorf("Expected main in the graph, got:\n%s", data)
	}
}

func TestGraphInvalidFormat(t *testing.T) {
	_, stderr, code := runCLI(t, "graph", "-p", project, "src/main.ts", "-f", "dot")
	if code == 0 {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(stderr, `invalid format "dot"`) {
		t.Errorf("Expected an invalid format error, got: %s", stderr)
	}
}

func TestCheck(t *testing.T) {
	stdout, stderr, code := runCLI(t, "check", "-p", project, "src/main.ts")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Checked 2 files") {
		t.Errorf("Expected a summary, got: %s", stdout)
	}
	if !strings.Contains(stderr, `Import "lit" references not installed "lit"`) {
		t.Errorf("Expected an undeclared dependency warning, got: %s", stderr)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	_, stderr, code := runCLI(t, "check", "-p", filepath.Join("testdata", "cli", "broken"), "src/main.ts")
	if code == 0 {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "error TS2305: Module '\"./util\"' has no exported member 'missing'.") {
		t.Errorf("Expected TS2305, got: %s", stderr)
	}
	if !strings.Contains(stderr, "1 of 2 files have errors") {
		t.Errorf("Expected a failure summary, got: %s", stderr)
	}
}

func TestCheckRejectsCommonJS(t *testing.T) {
	cmd := exec.Command(filepath.Join(mustGetwd(), "tsgraft_test"), "check", "-p", project, "src/main.ts")
	cmd.Env = append(os.Environ(), "TSGRAFT_MODULE=commonjs")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(string(out), "the module kind should be an ES module kind") {
		t.Errorf("Expected the module kind error, got: %s", out)
	}
}

func TestBuild(t *testing.T) {
	outdir := t.TempDir()
	metricsFile := filepath.Join(outdir, "build.prom")
	stdout, stderr, code := runCLI(t, "build", "-p", project, "src/main.ts",
		"--outdir", outdir, "--sourcemap", "--external", "lit", "--metrics-file", metricsFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	js, err := os.ReadFile(filepath.Join(outdir, "main.js"))
	if err != nil {
		t.Fatalf("Failed to read bundle: %v", err)
	}
	for _, want := range []string{"hello ", `import("lit")`, "sourceMappingURL=main.js.map"} {
		if !strings.Contains(string(js), want) {
			t.Errorf("Expected %q in the bundle:\n%s", want, js)
		}
	}
	if _, err := os.Stat(filepath.Join(outdir, "main.js.map")); err != nil {
		t.Errorf("Expected a source map: %v", err)
	}
	if !strings.Contains(stdout, "main.js") {
		t.Errorf("Expected the outputs to be listed, got: %s", stdout)
	}

	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), `tsgraft_emits_total{status="ok"} 2`) {
		t.Errorf("Expected two successful emits in the metrics:\n%s", metrics)
	}
}

func TestBuildFails(t *testing.T) {
	_, stderr, code := runCLI(t, "build", "-p", filepath.Join("testdata", "cli", "broken"), "src/main.ts", "--outdir", t.TempDir())
	if code == 0 {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "TS2305") {
		t.Errorf("Expected the diagnostic on stderr, got: %s", stderr)
	}
}
