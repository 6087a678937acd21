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
	"time"

	"github.com/FabianWe/photomosaic"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	routines := flag.Int("routines", 1, "number of go routines used to read the images")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Usage:", os.Args[0], "[--routines N] <IMAGE>...")
		os.Exit(1)
	}
	start := time.Now()
	candidates, err := photomosaic.CreateCandidates(flag.Args(), *routines, nil)
	if err != nil {
		log.WithError(err).Fatal("Error reading images")
	}
	execTime := time.Since(start)
	for _, c := range candidates {
		fmt.Printf("%s  %s  %4dx%-4d  %s\n", photomosaic.HashString(c.Hash), c.Average.Hex(),
			c.Width, c.Height, c.Path)
	}
	if len(candidates) > 1 {
		fmt.Println()
		fmt.Println("Hamming distances to", candidates[0].Path)
		for _, c := range candidates[1:] {
			fmt.Printf("%2d  %s\n", photomosaic.Hamming(candidates[0].Hash, c.Hash), c.Path)
		}
	}
	log.WithField("time", execTime).Debug("Done")
}
