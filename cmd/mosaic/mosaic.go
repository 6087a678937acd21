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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/FabianWe/photomosaic"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

// Without arguments an interactive shell is started. Otherwise the flags
// describe a single mosaic, for example
//
//	mosaic --source in.jpg --rows 20 --cols 30 --mode color --images "pics/*.jpg"
//
// With --script a predefined script (plain, average or hash) or a script
// file is executed, the remaining arguments are the script parameters.

func main() {
	var (
		source   = flag.String("source", "", "source image")
		rows     = flag.Int("rows", 20, "number of rows")
		cols     = flag.Int("cols", 20, "number of columns")
		mode     = flag.String("mode", "plain", "fill mode: plain, color or hash")
		images   = flag.String("images", "", "glob pattern of the candidate images")
		cache    = flag.String("cache", photomosaic.DefaultCachePath, "cache location, \"none\" disables the cache")
		reload   = flag.Bool("reload", false, "rebuild the cache")
		routines = flag.Int("routines", 0, "number of go routines (default number of CPUs)")
		interp   = flag.String("interp", "bilinear", "interpolation used to scale candidates")
		metric   = flag.String("metric", photomosaic.DefaultColorMetric,
			"color metric: "+strings.Join(photomosaic.GetColorMetricNames(), ", "))
		script  = flag.String("script", "", "predefined script (plain, average, hash) or script file")
		verbose = flag.BoolP("verbose", "v", false, "print debug output")
	)
	flag.Parse()

	if *verbose || photomosaic.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NFlag() == 0 && flag.NArg() == 0 {
		photomosaic.Execute(photomosaic.ReplHandler{}, photomosaic.DefaultCommands)
		return
	}

	if *script != "" {
		os.Exit(runScript(*script, flag.Args()))
	}

	if *source == "" {
		fmt.Fprintln(os.Stderr, "Missing source image, use --source")
		flag.Usage()
		os.Exit(2)
	}

	state := photomosaic.NewExecutorState(os.Stdin, os.Stdout)
	state.Verbose = *verbose
	state.Reload = *reload
	if _, ok := photomosaic.GetColorMetric(*metric); !ok {
		log.Fatal("Unknown color metric \"", *metric, "\", valid metrics: ",
			strings.Join(photomosaic.GetColorMetricNames(), ", "))
	}
	state.ColorMetric = strings.ToLower(*metric)
	if *routines > 0 {
		state.NumRoutines = *routines
	}
	resizer, resizerErr := photomosaic.ResizerFromString(*interp)
	if resizerErr != nil {
		log.WithError(resizerErr).Fatal("Invalid interpolation")
	}
	state.Resizer = resizer

	lines := make([]string, 0, 2)
	fillMode, modeErr := photomosaic.ParseFillMode(*mode)
	if modeErr != nil {
		log.WithError(modeErr).Fatal("Invalid fill mode")
	}
	if fillMode.NeedsIndex() {
		if *images == "" {
			log.Fatal("Mode ", fillMode, " requires candidate images, use --images")
		}
		lines = append(lines, fmt.Sprintf("images %s %s", quote(*images), quote(*cache)))
	}
	lines = append(lines, fmt.Sprintf("mosaic %s %dx%d %s", quote(*source), *rows, *cols, fillMode))
	if err := photomosaic.RunCommands(state, photomosaic.ReaderFromCmdLines(lines),
		photomosaic.DefaultCommands); err != nil {
		log.WithError(err).Fatal("Can't create mosaic")
	}
}

// quote encloses s in quotes s.t. ParseCommand returns s as a single argument.
func quote(s string) string {
	s = strings.Replace(s, "\\", "\\\\", -1)
	s = strings.Replace(s, "\"", "\\\"", -1)
	return "\"" + s + "\""
}

func runScript(name string, args []string) int {
	var handler photomosaic.ScriptHandler
	if script, ok := photomosaic.PredefinedScripts[name]; ok {
		handler = photomosaic.NewScriptHandler(photomosaic.ParameterizedFromStrings(
			strings.Split(script, "\n"), args...))
	} else {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Can't open script:", err)
			return 1
		}
		defer f.Close()
		r, paramErr := photomosaic.Parameterized(f, args...)
		if paramErr != nil {
			fmt.Fprintln(os.Stderr, "Can't read script:", paramErr)
			return 1
		}
		handler = photomosaic.NewScriptHandler(r)
	}
	photomosaic.Execute(handler, photomosaic.DefaultCommands)
	if *handler.Err != nil {
		return 1
	}
	return 0
}
