// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", []string{}, false},
		{"   ", []string{}, false},
		{"pwd", []string{"pwd"}, false},
		{"  foo   bar  ", []string{"foo", "bar"}, false},
		{"foo\tbar", []string{"foo", "bar"}, false},
		{`foo "bar baz"`, []string{"foo", "bar baz"}, false},
		{`foo "a \"b\"" c`, []string{"foo", `a "b"`, "c"}, false},
		{`foo \"x`, []string{"foo", `"x`}, false},
		{`foo a\\b`, []string{"foo", `a\b`}, false},
		{`foo "unterminated`, nil, true},
		{`foo ba"r"`, nil, true},
		{`foo a\b`, nil, true},
		{`foo bar\`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParameterized(t *testing.T) {
	script := "images $1 $2\nmosaic $3 $4 color\necho $10 $1"
	r, err := Parameterized(strings.NewReader(script),
		"a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "images a b\nmosaic c d color\necho j a"
	if string(got) != expected {
		t.Errorf("expected %q, got %q", expected, string(got))
	}
}

func TestParameterizedFromStrings(t *testing.T) {
	r := ParameterizedFromStrings([]string{"mosaic $1 $2 plain", "stats"}, "in.jpg", "2x3")
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expected := "mosaic in.jpg 2x3 plain\nstats"; string(got) != expected {
		t.Errorf("expected %q, got %q", expected, string(got))
	}
}

func newTestState(t *testing.T, dir string) (*ExecutorState, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	state := NewExecutorState(strings.NewReader(""), &out)
	state.WorkingDir = dir
	state.Verbose = false
	state.NumRoutines = 2
	return state, &out
}

func TestSetAndStats(t *testing.T) {
	state, out := newTestState(t, t.TempDir())
	script := "# configure\nset routines 3\nset metric CIEDE2000\nset reload true\nstats routines\nstats metric"
	if err := RunCommands(state, strings.NewReader(script), DefaultCommands); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.NumRoutines != 3 || state.ColorMetric != "ciede2000" || !state.Reload {
		t.Errorf("variables not set: %d %s %v", state.NumRoutines, state.ColorMetric, state.Reload)
	}
	if expected := "routines ==> 3\nmetric ==> ciede2000\n"; out.String() != expected {
		t.Errorf("expected output %q, got %q", expected, out.String())
	}
}

func TestSetErrors(t *testing.T) {
	state, _ := newTestState(t, t.TempDir())
	for _, args := range [][]string{
		{"routines", "0"},
		{"routines", "x"},
		{"verbose", "maybe"},
		{"metric", "foo"},
		{"interp", "foo"},
		{"cache", "-1"},
		{"foo", "bar"},
		{"routines"},
	} {
		if err := SetVarCommand(state, args...); err == nil {
			t.Errorf("set %v: expected an error", args)
		}
	}
}

func TestMatchCommandUnknownMetric(t *testing.T) {
	state, out := newTestState(t, t.TempDir())
	state.Index = &CandidateIndex{Candidates: []CandidateImage{{Path: "red.png", Average: NewRGB(255, 0, 0)}}}
	state.ColorMetric = "foo"
	err := MatchCommand(state, "#ff0000")
	if err == nil || !strings.Contains(err.Error(), "Unknown color metric") {
		t.Errorf("expected error for unknown metric, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
	state.ColorMetric = "CIE76"
	if err := MatchCommand(state, "#ff0000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "1. #ff0000 red.png") {
		t.Errorf("missing match in output %q", out.String())
	}
}

func TestRunCommandsErrors(t *testing.T) {
	state, _ := newTestState(t, t.TempDir())
	tests := []string{
		"foo",
		"pwd\nset routines",
		`pwd "x`,
		"mosaic in.png",
	}
	for _, script := range tests {
		if err := RunCommands(state, strings.NewReader(script), DefaultCommands); err == nil {
			t.Errorf("script %q: expected an error", script)
		}
	}
}

func TestCdCommand(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("can't create directory: %v", err)
	}
	state, out := newTestState(t, dir)
	if err := RunCommands(state, strings.NewReader("cd sub\npwd"), DefaultCommands); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := filepath.Join(dir, "sub")
	if state.WorkingDir != expected {
		t.Errorf("expected working directory %s, got %s", expected, state.WorkingDir)
	}
	if strings.TrimSpace(out.String()) != expected {
		t.Errorf("unexpected pwd output %q", out.String())
	}
	if err := CdCommand(state, "missing"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestCommandsCreateMosaic(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	if err := os.Mkdir(imageDir, 0755); err != nil {
		t.Fatalf("can't create directory: %v", err)
	}
	writeDataset(t, imageDir, map[string]RGB{
		"red":  NewRGB(255, 0, 0),
		"blue": NewRGB(0, 0, 255),
	})
	writePNG(t, filepath.Join(dir, "src.png"), splitImage(40, 40, NewRGB(250, 0, 0), NewRGB(0, 0, 250)))

	state, out := newTestState(t, dir)
	script := `images "images/*.png" cache/index.gob
images
mosaic src.png 2x2 color
match #ff0000 1`
	if err := RunCommands(state, strings.NewReader(script), DefaultCommands); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Index.Len() != 2 {
		t.Errorf("expected 2 candidates, got %d", state.Index.Len())
	}
	for _, name := range []string{"src-2x2.png", "src-2x2.html", filepath.Join("cache", "index.gob")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected file %s: %v", name, err)
		}
	}
	output := out.String()
	if !strings.Contains(output, "Number of candidate images: 2") {
		t.Errorf("missing number of images in output %q", output)
	}
	expectedMatch := "1. #ff0000 " + filepath.Join(imageDir, "red.png") + " (distance 0.00)"
	if !strings.Contains(output, expectedMatch) {
		t.Errorf("missing %q in output %q", expectedMatch, output)
	}
}

func TestMosaicCommandWithoutImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "src.png"), uniformImage(20, 20, NewRGB(1, 2, 3)))
	state, _ := newTestState(t, dir)
	if err := MosaicCommand(state, "src.png", "2x2", "hash"); err == nil {
		t.Error("expected an error without candidate images")
	}
	if err := MosaicCommand(state, "src.png", "2y2"); err != ErrCmdSyntaxErr {
		t.Errorf("expected ErrCmdSyntaxErr, got %v", err)
	}
	if err := MosaicCommand(state, "src.png", "2x2"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSourceCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "src.png"), uniformImage(20, 20, NewRGB(1, 2, 3)))
	script := filepath.Join(dir, "script.txt")
	if err := ioutil.WriteFile(script, []byte(RunPlain), 0644); err != nil {
		t.Fatalf("can't write script: %v", err)
	}
	state, _ := newTestState(t, dir)
	if err := SourceCommand(state, "script.txt", "src.png", "4x5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "src-4x5.png")); err != nil {
		t.Errorf("mosaic was not created: %v", err)
	}
}

func TestScriptHandler(t *testing.T) {
	handler := ScriptHandlerFromCmds([]string{"set routines 2", "unknown"})
	handler.Out = ioutil.Discard
	Execute(handler, DefaultCommands)
	if *handler.Err == nil {
		t.Error("expected error for unknown command")
	}
	ok := ScriptHandlerFromCmds([]string{"set routines 2", "stats"})
	ok.Out = ioutil.Discard
	Execute(ok, DefaultCommands)
	if *ok.Err != nil {
		t.Errorf("unexpected error: %v", *ok.Err)
	}
}

func TestPredefinedScripts(t *testing.T) {
	for _, name := range []string{"plain", "average", "hash"} {
		if _, ok := PredefinedScripts[name]; !ok {
			t.Errorf("missing predefined script %s", name)
		}
	}
}
