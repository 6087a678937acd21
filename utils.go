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
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	// Debug is true if code should be compiled in debug mode, printing
	// more stuff and performing checks.
	Debug = true

	// Version is stored in cache files.
	Version = "0.3.0"
)

var (
	// BufferSize is the (default) size of buffers. Some methods create buffered
	// channels, this parameter controls how big such buffers might be.
	// Usually such buffers store no big data (ints, bools etc.).
	BufferSize = 1000
)

// ProgressFunc is a function that is used to inform a caller about the progress
// of a called function.
// For example if we process thousands of images we might wish to know
// how far the call is and give feedback to the user.
// The called method calls the process function after each iteration with the
// number of items processed so far.
type ProgressFunc func(num int)

// ProgressIgnore is a ProgressFunc that does nothing.
func ProgressIgnore(num int) {}

// LoggerProgressFunc is a parameterized ProgressFunc that logs to log.
// The output describes the progress (how many of how many objects processed).
// Log messages may have an addition prefix. max is the total number of elements
// to process and step describes how often to print to the log (for example
// step = 100 every 100 items).
func LoggerProgressFunc(prefix string, max, step int) ProgressFunc {
	return func(num int) {
		if step == 0 || max == 0 {
			return
		}
		if !(step < 0 || num%step == 0 || num == max) {
			return
		}
		percent := (float64(num) / float64(max)) * 100.0
		if percent > 100.0 {
			percent = 100.0
		}
		if prefix == "" {
			prefix = "Progress"
		}
		log.Infof("%s: %d of %d (%.1f%%)", prefix, num, max, percent)
	}
}

// StdProgressFunc is a parameterized ProgressFunc that writes to the
// specified writer, see LoggerProgressFunc for the arguments.
func StdProgressFunc(w io.Writer, prefix string, max, step int) ProgressFunc {
	return func(num int) {
		if step == 0 || max == 0 {
			return
		}
		if !(step < 0 || num%step == 0 || num == max) {
			return
		}
		percent := (float64(num) / float64(max)) * 100.0
		if percent > 100.0 {
			percent = 100.0
		}
		if prefix == "" {
			fmt.Fprintf(w, "Progress: %d of %d (%.1f%%)\n", num, max, percent)
		} else {
			fmt.Fprintf(w, "%s: %d of %d (%.1f%%)\n", prefix, num, max, percent)
		}
	}
}

// ParseDimensions parses a string of the form "AxB" where A and B are positive
// integers.
func ParseDimensions(s string) (int, int, error) {
	split := strings.Split(s, "x")
	if len(split) != 2 {
		return -1, -1, fmt.Errorf("Invalid dimension format: %s. Expect \"AxB\"", s)
	}
	first, second := strings.TrimSpace(split[0]), strings.TrimSpace(split[1])
	firstInt, firstErr := strconv.Atoi(first)
	if firstErr != nil {
		return -1, -1, firstErr
	}
	secondInt, secondErr := strconv.Atoi(second)
	if secondErr != nil {
		return -1, -1, secondErr
	}
	if firstInt <= 0 || secondInt <= 0 {
		return -1, -1, fmt.Errorf("Dimensions must be positive, got %d and %d",
			firstInt, secondInt)
	}
	return firstInt, secondInt, nil
}

// WriteFileAtomic creates the file path with the content written by write.
// The content is first written to a temporary file in the same directory
// which is then renamed to path. If anything goes wrong the temporary file is
// removed and path is not touched, so there is never a partially written file.
//
// All errors are returned as IOError.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, createErr := ioutil.TempFile(dir, "."+base+".tmp")
	if createErr != nil {
		return newIOError("write", path, createErr)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()
	// TempFile uses mode 0600
	if chmodErr := tmp.Chmod(0644); chmodErr != nil {
		return newIOError("write", path, chmodErr)
	}
	buf := bufio.NewWriter(tmp)
	if writeErr := write(buf); writeErr != nil {
		if IsIOError(writeErr) {
			return writeErr
		}
		return newIOError("write", path, writeErr)
	}
	if flushErr := buf.Flush(); flushErr != nil {
		return newIOError("write", path, flushErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		return newIOError("write", path, closeErr)
	}
	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		return newIOError("write", path, renameErr)
	}
	return nil
}
