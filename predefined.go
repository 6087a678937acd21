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

// This file contains some predefined scripts that can be executed. This way
// we have some easy way to create mosaics without requiring the user to know
// any details.

var (
	// RunPlain creates a mosaic where each cell is filled with its average
	// color. It is parameterized by two parameters: The source image and the
	// grid.
	//
	// Example usage: RunPlain input.jpg 20x30
	//
	// This would create input-20x30.png and input-20x30.html next to
	// input.jpg.
	RunPlain = `mosaic $1 $2 plain`

	// RunAverage loads the candidate images and creates a mosaic where each
	// cell is filled with the candidate closest to the average color of the
	// cell. It is parameterized by four parameters: The pattern matching the
	// candidates, the cache location, the source image and the grid.
	//
	// Example usage: RunAverage "~/Pictures/*.jpg" dataset/cache input.jpg 20x30
	RunAverage = `images $1 $2
mosaic $3 $4 color`

	// RunHash works as RunAverage but selects the candidates by their hash.
	//
	// Example usage: RunHash "~/Pictures/*.jpg" dataset/cache input.jpg 20x30
	RunHash = `images $1 $2
mosaic $3 $4 hash`
)

// PredefinedScripts maps the names of the predefined scripts to the scripts.
var PredefinedScripts = map[string]string{
	"plain":   RunPlain,
	"average": RunAverage,
	"hash":    RunHash,
}
