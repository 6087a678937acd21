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
	"fmt"
	"html/template"
	"io"
	"path/filepath"
)

// ReportCell is one cell in the HTML report.
type ReportCell struct {
	Section   string
	Color     string
	Candidate string
}

// ReportData is the input for RenderReport.
type ReportData struct {
	Title      string
	Rows       [][]ReportCell
	CellWidth  int
	CellHeight int
	Stats      *MatchStats
}

// ReportTitle returns the title of a report for the source image and the
// number of rows and columns.
func ReportTitle(source string, rows, cols int) string {
	return fmt.Sprintf("Source [ %s ] - Mosaic [ %d x %d ]", filepath.Base(source), rows, cols)
}

// NewReportData creates the report data for the result of a mosaic
// generation. source is the path of the source image.
func NewReportData(source string, result *MosaicResult) ReportData {
	rows := make([][]ReportCell, result.Rows)
	for i := range rows {
		rows[i] = make([]ReportCell, result.Cols)
		for j := range rows[i] {
			cell := result.Cells[i*result.Cols+j]
			r := cell.Region
			rows[i][j] = ReportCell{
				Section:   fmt.Sprintf("(%d,%d) - (%d,%d)", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y),
				Color:     cell.Color.Hex(),
				Candidate: cell.Candidate,
			}
		}
	}
	return ReportData{
		Title:      ReportTitle(source, result.Rows, result.Cols),
		Rows:       rows,
		CellWidth:  result.CellWidth,
		CellHeight: result.CellHeight,
		Stats:      result.Stats,
	}
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(`<html>
    <head>
        <title>{{ .Title }}</title>

        <style type="text/css">
            * {
                -webkit-box-sizing: border-box;
                -moz-box-sizing: border-box;
                box-sizing: border-box;
            }

            body {
                padding: 20px;
                font-family: Arial Narrow, Arial, sans-serif;
            }

            table.mosaic {
                table-layout: fixed;
                width: 100%;
                border-collapse: collapse;
                border-spacing: 0;
                empty-cells: show;
                border: 4px solid #CBCBCB;
            }
            table.mosaic caption {
                text-align: left;
                caption-side: top;
                text-transform: uppercase;
                font-size: x-small;
                margin-bottom: 10px;
            }
            table.mosaic tbody tr td {
                padding: 0;
                margin: 0;
                width: {{ .CellWidth }}px;
                height: {{ .CellHeight }}px;
            }
        </style>
    </head>
    <body>
        <table class="mosaic">
            <caption>{{ .Title }}</caption>

            <tbody>
{{- range .Rows }}
<tr>
{{- range . }}
<td data-section="{{ .Section }}" style="{{ css (printf "background-color: %s" .Color) }}"{{ if .Candidate }} title="{{ .Candidate }}"{{ end }}></td>
{{- end }}
</tr>
{{- end }}
            </tbody>
        </table>
{{- with .Stats }}
        <p class="stats">Distance mean {{ printf "%.2f" .Mean }}, median {{ printf "%.2f" .Median }}, max {{ printf "%.2f" .Max }}</p>
{{- end }}
    </body>
</html>
`))

// RenderReport writes the HTML report to w.
func RenderReport(w io.Writer, data ReportData) error {
	return reportTemplate.Execute(w, data)
}
