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
	"math"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorMetric is a function that compares two colors. The smaller the metric
// value is the more equal the colors are considered. Metric values are ≥ 0,
// the distance of a color to itself must be 0.
type ColorMetric func(a, b RGB) float64

// Colorful converts c to a color from the go-colorful package.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Lab returns the CIE L*a*b* coordinates of c (sRGB, D65 white point).
func (c RGB) Lab() (l, a, b float64) {
	return c.Colorful().Lab()
}

// ColorDistance is the CIE76 color difference (ΔE*ab): Both colors are
// converted from sRGB to XYZ and then to L*a*b* (D65 reference white), the
// result is the euclidean distance of the two Lab triples.
//
// go-colorful scales L to [0, 1] instead of [0, 100], so the distance is
// scaled by 100 to get the usual ΔE values (a just noticeable difference is
// around 2.3).
func ColorDistance(a, b RGB) float64 {
	l1, a1, b1 := a.Lab()
	l2, a2, b2 := b.Lab()
	return 100.0 * EuclideanDistance([]float64{l1, a1, b1}, []float64{l2, a2, b2})
}

// HexDistance is ColorDistance for colors in hex notation ("#rrggbb").
func HexDistance(a, b string) (float64, error) {
	c1, err := ParseHex(a)
	if err != nil {
		return -1.0, err
	}
	c2, err := ParseHex(b)
	if err != nil {
		return -1.0, err
	}
	return ColorDistance(c1, c2), nil
}

// CIE94Distance is the CIE94 color difference, scaled like ColorDistance.
func CIE94Distance(a, b RGB) float64 {
	return 100.0 * a.Colorful().DistanceCIE94(b.Colorful())
}

// CIEDE2000Distance is the CIEDE2000 color difference, scaled like
// ColorDistance.
func CIEDE2000Distance(a, b RGB) float64 {
	return 100.0 * a.Colorful().DistanceCIEDE2000(b.Colorful())
}

// RGBDistance is the euclidean distance of the plain r, g, b components.
func RGBDistance(a, b RGB) float64 {
	v1 := []float64{float64(a.R), float64(a.G), float64(a.B)}
	v2 := []float64{float64(b.R), float64(b.G), float64(b.B)}
	return EuclideanDistance(v1, v2)
}

// EuclideanDistance returns the euclidean distance of two
// vectors, that is sqrt( (p1 - q1)² + ... + (pn - qn)² ).
func EuclideanDistance(p, q []float64) float64 {
	var sum float64
	for i, e1 := range p {
		e2 := q[i]
		diff := (e1 - e2)
		sum += (diff * diff)
	}
	return math.Sqrt(sum)
}

// The following variables are used for registering named
// metrics.

var (
	colorMetrics map[string]ColorMetric
)

const (
	// DefaultColorMetric is the name of the metric used if nothing else is
	// configured.
	DefaultColorMetric = "cie76"
)

// RegisterColorMetric is used to register a named color metric. It will only
// add the metric if the name does not exist yet. The result is true if the
// metric was successfully registered and false otherwise.
// All names must be lowercase strings, the register and get
// methods will always transform a string to lowercase.
//
// All metrics should be registered by an init method.
func RegisterColorMetric(name string, metric ColorMetric) bool {
	name = strings.ToLower(name)
	if _, has := colorMetrics[name]; has {
		return false
	}
	colorMetrics[name] = metric
	return true
}

// GetColorMetricNames returns a sorted list of all registered named color
// metrics.
func GetColorMetricNames() []string {
	res := make([]string, 0, len(colorMetrics))
	for key := range colorMetrics {
		res = append(res, key)
	}
	sort.Strings(res)
	return res
}

// GetColorMetric returns a registered color metric.
// Returns the metric and true on success and nil and false
// otherwise.
func GetColorMetric(name string) (ColorMetric, bool) {
	name = strings.ToLower(name)
	if metric, has := colorMetrics[name]; has {
		return metric, true
	}
	return nil, false
}

func init() {
	colorMetrics = make(map[string]ColorMetric)
	RegisterColorMetric("cie76", ColorDistance)
	RegisterColorMetric("cie94", CIE94Distance)
	RegisterColorMetric("ciede2000", CIEDE2000Distance)
	RegisterColorMetric("rgb", RGBDistance)
}
