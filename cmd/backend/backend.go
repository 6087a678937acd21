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
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/FabianWe/photomosaic/web"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	addr := flag.String("addr", ":8085", "address to listen on")
	dir := flag.String("dir", ".", "directory used to resolve relative paths")
	routines := flag.Int("routines", 0, "number of go routines per request (default number of CPUs)")
	maxAge := flag.Duration("max-age", 30*time.Minute, "time after which unused indices are dropped")
	flag.Parse()

	baseDir, err := filepath.Abs(*dir)
	if err != nil {
		log.WithError(err).Fatal("Invalid directory")
	}
	context := web.NewContext(baseDir)
	if *routines > 0 {
		context.NumRoutines = *routines
	}
	done := context.Indices.RunFilter(*maxAge, time.Minute)
	defer close(done)

	mux := http.NewServeMux()
	web.DefaultHandlers(context, mux)
	log.WithFields(log.Fields{
		"addr": *addr,
		"dir":  baseDir,
	}).Info("Starting server")
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}
