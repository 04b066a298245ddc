package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/models"
)

// PDFEngine names the renderer, reported by the diagnostics endpoint.
const PDFEngine = "fpdf"

const maxNameRunes = 70

var numbers = message.NewPrinter(language.Spanish)

// ResultsPDF renders r as a one-section report: header with totalization date
// and recount state, the positive totals table and the other totals.
func ResultsPDF(w io.Writer, r *models.Results, q models.Query) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Resultados", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Resultados electorales"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	fecha := string(r.FechaTotalizacion)
	if fecha == "" {
		fecha = "-"
	}
	pdf.CellFormat(0, 5, tr("Totalizado: "+fecha), "", 1, "L", false, 0, "")
	if estado := r.EstadoText(); estado != "" {
		pdf.MultiCell(0, 5, tr("Estado: "+estado), "", "L", false)
	}
	if q.Len() > 0 {
		var parts []string
		for _, k := range q.Keys() {
			v, _ := q.Get(k)
			parts = append(parts, k+"="+v)
		}
		pdf.MultiCell(0, 5, tr("Filtros: "+strings.Join(parts, ", ")), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr("Votos positivos"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(120, 6, tr("Agrupación"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 6, "Votos", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 6, "%", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if len(r.Positivos) == 0 {
		pdf.CellFormat(180, 6, "Sin datos", "1", 1, "L", false, 0, "")
	}
	for _, p := range r.Positivos {
		name := p.NombreAgrupacion
		if name == "" {
			name = "-"
		}
		pdf.CellFormat(120, 6, tr(truncate(name, maxNameRunes)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, numbers.Sprintf("%d", p.Votos), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", p.VotosPorcentaje), "1", 1, "R", false, 0, "")
	}

	if len(r.Otros) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr("Otros votos"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		keys := otherKeys(r.Otros)
		for _, row := range otherRows(r.Otros)[1:] {
			for i, k := range keys {
				if row[i] == nil {
					continue
				}
				pdf.CellFormat(120, 6, tr(k), "1", 0, "L", false, 0, "")
				pdf.CellFormat(60, 6, tr(formatCell(row[i])), "1", 1, "R", false, 0, "")
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	metrics.Exports.WithLabelValues("pdf").Inc()
	return nil
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return numbers.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
