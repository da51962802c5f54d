package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

const (
	fontFamily = "Helvetica"
	margin     = 40.0
	rowHeight  = 16.0
	chartSize  = 220.0
)

// TitleColor is the console's brand purple used for titles and table headers
const TitleColor = "#351c53"

// Document is a paginated PDF report: title, metadata lines, an optional
// chart and a table.
type Document struct {
	Title    string
	Metadata []string
	Chart    *Chart
	Table    Table
}

// Chart is an aggregated series drawn as bars or pie slices
type Chart struct {
	Kind   models.ChartKind
	Label  string
	Series models.AggregatedSeries
	Colors []string
}

// ToDocument renders doc as an A4 PDF. An empty table still produces a
// valid document. Failures, panics included, are returned as *models.ExportError.
func ToDocument(doc Document) ([]byte, error) {
	return render(FormatPDF, func() ([]byte, error) {
		pdf := build(doc)
		if err := pdf.Error(); err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

type renderer struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	pageH    float64
	contentW float64
}

func build(doc Document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("sentinel-console", true)

	pageW, pageH := pdf.GetPageSize()
	r := &renderer{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		pageH:    pageH,
		contentW: pageW - 2*margin,
	}

	pdf.AddPage()
	r.header(doc.Title, doc.Metadata)
	if doc.Chart != nil {
		r.chart(*doc.Chart)
	}
	r.table(doc.Table)
	return pdf
}

func (r *renderer) header(title string, metadata []string) {
	red, green, blue := hexRGB(TitleColor)
	r.pdf.SetFont(fontFamily, "B", 20)
	r.pdf.SetTextColor(red, green, blue)
	r.pdf.CellFormat(r.contentW, 28, r.tr(title), "", 1, "L", false, 0, "")

	r.pdf.SetFont(fontFamily, "", 12)
	r.pdf.SetTextColor(0, 0, 0)
	for _, line := range metadata {
		r.pdf.CellFormat(r.contentW, 16, r.tr(line), "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(10)
}

func (r *renderer) chart(c Chart) {
	x, y := margin, r.pdf.GetY()

	r.pdf.SetFont(fontFamily, "B", 11)
	r.pdf.CellFormat(r.contentW, 16, r.tr(c.Label), "", 1, "C", false, 0, "")
	y += 20

	if len(c.Series.Values) == 0 || c.Series.Total() == 0 {
		r.pdf.SetFont(fontFamily, "I", 10)
		r.pdf.CellFormat(r.contentW, 16, "No data for the selected filters.", "", 1, "C", false, 0, "")
		r.pdf.Ln(10)
		return
	}

	colors := c.Colors
	if len(colors) == 0 {
		colors = []string{"#4F91F3"}
	}

	if c.Kind == models.ChartPie {
		r.pie(c.Series, colors, x, y)
	} else {
		r.bars(c.Series, colors, x, y)
	}
	r.pdf.SetXY(margin, y+chartSize+10)
}

func (r *renderer) bars(s models.AggregatedSeries, colors []string, x, y float64) {
	const axisW, labelH = 30.0, 30.0
	plotX, plotW := x+axisW, r.contentW-axisW
	plotH := chartSize - labelH
	baseY := y + plotH

	maxV := 0
	for _, v := range s.Values {
		if v > maxV {
			maxV = v
		}
	}

	r.pdf.SetDrawColor(120, 120, 120)
	r.pdf.SetLineWidth(0.5)
	r.pdf.Line(plotX, y, plotX, baseY)
	r.pdf.Line(plotX, baseY, plotX+plotW, baseY)

	r.pdf.SetFont(fontFamily, "", 7)
	r.pdf.SetXY(x, y-4)
	r.pdf.CellFormat(axisW-4, 8, strconv.Itoa(maxV), "", 0, "R", false, 0, "")
	r.pdf.SetXY(x, baseY-4)
	r.pdf.CellFormat(axisW-4, 8, "0", "", 0, "R", false, 0, "")

	slot := plotW / float64(len(s.Values))
	barW := slot * 0.6
	for i, v := range s.Values {
		bh := float64(v) / float64(maxV) * (plotH - 12)
		bx := plotX + float64(i)*slot + (slot-barW)/2

		red, green, blue := hexRGB(colors[i%len(colors)])
		r.pdf.SetFillColor(red, green, blue)
		r.pdf.Rect(bx, baseY-bh, barW, bh, "F")

		r.pdf.SetFont(fontFamily, "", 8)
		r.pdf.SetXY(bx-4, baseY-bh-10)
		r.pdf.CellFormat(barW+8, 8, strconv.Itoa(v), "", 0, "C", false, 0, "")

		r.pdf.SetFont(fontFamily, "", 7)
		r.pdf.SetXY(plotX+float64(i)*slot, baseY+4)
		r.pdf.CellFormat(slot, 10, r.fit(r.tr(s.Labels[i]), slot), "", 0, "C", false, 0, "")
	}
}

func (r *renderer) pie(s models.AggregatedSeries, colors []string, x, y float64) {
	radius := chartSize/2 - 10
	cx, cy := x+radius+10, y+chartSize/2
	total := float64(s.Total())

	start := -90.0
	for i, v := range s.Values {
		if v == 0 {
			continue
		}
		sweep := float64(v) / total * 360
		red, green, blue := hexRGB(colors[i%len(colors)])
		r.pdf.SetFillColor(red, green, blue)
		r.pdf.Polygon(wedge(cx, cy, radius, start, start+sweep), "F")
		start += sweep
	}

	legendX := cx + radius + 30
	legendY := y + 10
	r.pdf.SetFont(fontFamily, "", 9)
	for i, label := range s.Labels {
		red, green, blue := hexRGB(colors[i%len(colors)])
		r.pdf.SetFillColor(red, green, blue)
		r.pdf.Rect(legendX, legendY+float64(i)*14+2, 8, 8, "F")
		r.pdf.SetXY(legendX+12, legendY+float64(i)*14)
		text := fmt.Sprintf("%s (%d)", label, s.Values[i])
		r.pdf.CellFormat(r.contentW-(legendX-margin)-12, 12, r.fit(r.tr(text), r.contentW-(legendX-margin)-12), "", 0, "L", false, 0, "")
	}
}

func (r *renderer) table(t Table) {
	if len(t.Columns) == 0 {
		r.pdf.SetFont(fontFamily, "I", 10)
		r.pdf.CellFormat(r.contentW, rowHeight, "No records to display.", "", 1, "L", false, 0, "")
		return
	}

	colW := r.contentW / float64(len(t.Columns))
	if r.pdf.GetY()+2*rowHeight > r.pageH-margin {
		r.pdf.AddPage()
	}
	r.tableHeader(t.Columns, colW)

	r.pdf.SetDrawColor(200, 200, 200)
	for i, row := range t.Rows {
		if r.pdf.GetY()+rowHeight > r.pageH-margin {
			r.pdf.AddPage()
			r.tableHeader(t.Columns, colW)
		}

		r.pdf.SetFont(fontFamily, "", 8)
		r.pdf.SetTextColor(0, 0, 0)
		fill := i%2 == 1
		r.pdf.SetFillColor(245, 243, 248)
		for j := range t.Columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			r.pdf.CellFormat(colW, rowHeight, r.fit(r.tr(cell), colW), "1", 0, "L", fill, 0, "")
		}
		r.pdf.Ln(-1)
	}

	if len(t.Rows) == 0 {
		r.pdf.SetFont(fontFamily, "I", 9)
		r.pdf.CellFormat(r.contentW, rowHeight, "No records to display.", "", 1, "L", false, 0, "")
	}
}

func (r *renderer) tableHeader(columns []string, colW float64) {
	red, green, blue := hexRGB(TitleColor)
	r.pdf.SetFillColor(red, green, blue)
	r.pdf.SetDrawColor(red, green, blue)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont(fontFamily, "B", 9)
	for _, col := range columns {
		r.pdf.CellFormat(colW, rowHeight, r.fit(r.tr(col), colW), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetDrawColor(200, 200, 200)
}

// fit shortens s with an ellipsis until it fits in width. s must already be translated.
func (r *renderer) fit(s string, width float64) string {
	limit := width - 4
	if r.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && r.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// hexRGB parses "#rrggbb". Invalid input yields black.
func hexRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
