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
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		in         string
		rows, cols int
		wantErr    bool
	}{
		{"20x30", 20, 30, false},
		{" 1 x 2 ", 1, 2, false},
		{"0x3", -1, -1, true},
		{"3x-1", -1, -1, true},
		{"3", -1, -1, true},
		{"3x4x5", -1, -1, true},
		{"ax3", -1, -1, true},
	}
	for _, tt := range tests {
		rows, cols, err := ParseDimensions(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDimensions(%q): unexpected error %v", tt.in, err)
			continue
		}
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("ParseDimensions(%q): expected %dx%d, got %dx%d", tt.in, tt.rows, tt.cols, rows, cols)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, writeErr := w.Write([]byte("hello"))
		return writeErr
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("can't read file: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("unexpected content %q", string(content))
	}
}

func TestWriteFileAtomicFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := ioutil.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("can't write file: %v", err)
	}
	err := WriteFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("failed")
	})
	if !IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
	content, _ := ioutil.ReadFile(path)
	if string(content) != "old" {
		t.Errorf("existing file was changed: %q", string(content))
	}
	files, _ := ioutil.ReadDir(dir)
	if len(files) != 1 {
		t.Errorf("temporary file was not removed, directory contains %d files", len(files))
	}
}

func TestStdProgressFunc(t *testing.T) {
	var buf bytes.Buffer
	progress := StdProgressFunc(&buf, "Rows", 4, 2)
	for i := 1; i <= 4; i++ {
		progress(i)
	}
	expected := "Rows: 2 of 4 (50.0%)\nRows: 4 of 4 (100.0%)\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestIntMinMax(t *testing.T) {
	if got := IntMin(5, 3, 9); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := IntMax(5, 3, 9); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
	if got := IntMin(5); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}
