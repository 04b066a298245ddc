package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/models"
)

// XLSXContentType is the MIME type of the workbooks written here.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetPositivos    = "Positivos"
	SheetOtros        = "Otros"
	SheetDistritos    = "Distritos"
	SheetAgrupaciones = "Agrupaciones"
)

var positivosHeader = []interface{}{"idAgrupacion", "nombreAgrupacion", "votos", "votosPorcentaje", "urlLogo"}

// ResultsWorkbook writes r as a workbook with a Positivos sheet and, when the
// other totals are not empty, an Otros sheet.
func ResultsWorkbook(w io.Writer, r *models.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPositivos); err != nil {
		return err
	}
	rows := [][]interface{}{positivosHeader}
	for _, p := range r.Positivos {
		rows = append(rows, []interface{}{string(p.IDAgrupacion), p.NombreAgrupacion, p.Votos, p.VotosPorcentaje, deref(p.URLLogo)})
	}
	if err := writeRows(f, SheetPositivos, rows); err != nil {
		return err
	}

	if len(r.Otros) > 0 {
		if _, err := f.NewSheet(SheetOtros); err != nil {
			return err
		}
		if err := writeRows(f, SheetOtros, otherRows(r.Otros)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	metrics.Exports.WithLabelValues("xlsx").Inc()
	return nil
}

// MapWorkbook writes the national aggregation: one row per district with the
// vote share of every grouping, plus the grouping index.
func MapWorkbook(w io.Writer, res models.AggregationResult, label func(distritoID string) string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDistritos); err != nil {
		return err
	}
	header := []interface{}{"distritoId", "distrito", "ok", "error"}
	for _, g := range res.Agrupaciones {
		header = append(header, g.NombreAgrupacion)
	}
	rows := [][]interface{}{header}
	for _, o := range res.Series {
		shares := make(map[models.GroupingID]float64, len(o.Positivos))
		for _, p := range o.Positivos {
			shares[p.IDAgrupacion] = p.VotosPorcentaje
		}
		name := o.DistritoID
		if label != nil {
			name = label(o.DistritoID)
		}
		row := []interface{}{o.DistritoID, name, o.OK, o.Error}
		for _, g := range res.Agrupaciones {
			if v, ok := shares[g.IDAgrupacion]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	if err := writeRows(f, SheetDistritos, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetAgrupaciones); err != nil {
		return err
	}
	agrup := [][]interface{}{{"idAgrupacion", "nombreAgrupacion", "urlLogo"}}
	for _, g := range res.Agrupaciones {
		agrup = append(agrup, []interface{}{string(g.IDAgrupacion), g.NombreAgrupacion, deref(g.URLLogo)})
	}
	if err := writeRows(f, SheetAgrupaciones, agrup); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	metrics.Exports.WithLabelValues("xlsx").Inc()
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, bold)
}

// otherRows flattens the other-totals rows under the union of their keys.
func otherRows(otros models.OtherTotals) [][]interface{} {
	keys := otherKeys(otros)
	header := make([]interface{}, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	rows := [][]interface{}{header}
	for _, o := range otros {
		row := make([]interface{}, len(keys))
		for i, k := range keys {
			row[i] = cellValue(o[k])
		}
		rows = append(rows, row)
	}
	return rows
}

func otherKeys(otros models.OtherTotals) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, o := range otros {
		for k := range o {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func cellValue(v any) interface{} {
	switch t := v.(type) {
	case nil, string, float64, bool:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
