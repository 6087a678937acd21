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

// Package photomosaic creates mosaics from a source image. The source is
// divided into a grid of cells and each cell is filled either with its
// average color or with the candidate image that matches the cell best.
//
// Candidates are matched by the distance of their average color to the
// average color of the cell (CIE76 in the L*a*b* color space) or by the
// Hamming distance of their difference hash to the hash of the cell. The
// values for all candidates are stored in a CandidateIndex that can be cached
// in a file, an SQLite database or redis.
//
// Each mosaic is written as png together with an HTML report that contains the
// average color of each cell.
//
// It ships with executable programs to create mosaics (interactive or with
// flags), to print image hashes and a JSON web backend.
package photomosaic
