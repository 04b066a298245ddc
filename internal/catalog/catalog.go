// Package catalog holds the static option lists shown in the dashboard filters,
// including the canonical district order used by the national map.
package catalog

import (
	"strconv"
	"time"

	"github.com/yourorg/elecciones/internal/models"
	"github.com/yourorg/elecciones/internal/normalize"
)

// Option is a value/label pair for a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FirstYear is the first election year the results API serves.
const FirstYear = 2011

var tiposRecuento = []Option{
	{Value: "1", Label: "Provisorio (1)"},
	{Value: "2", Label: "Definitivo (2)"},
}

var tiposEleccion = []Option{
	{Value: "1", Label: "PASO (1)"},
	{Value: "2", Label: "Generales (2)"},
	{Value: "3", Label: "Balotaje (3)"},
}

var categorias = []Option{
	{Value: "1", Label: "Presidente/a"},
	{Value: "2", Label: "Senador/a Nacional"},
	{Value: "3", Label: "Diputado/a Nacional"},
	{Value: "8", Label: "Parlasur - Distrito Nacional"},
	{Value: "9", Label: "Parlasur - Distrito Regional"},
}

// Canonical order: national capital first, then provinces by id.
var distritos = []models.District{
	{ID: "02", Label: "CABA"},
	{ID: "06", Label: "Buenos Aires"},
	{ID: "10", Label: "Catamarca"},
	{ID: "14", Label: "Córdoba"},
	{ID: "18", Label: "Corrientes"},
	{ID: "22", Label: "Chaco"},
	{ID: "26", Label: "Chubut"},
	{ID: "30", Label: "Entre Ríos"},
	{ID: "34", Label: "Formosa"},
	{ID: "38", Label: "Jujuy"},
	{ID: "42", Label: "La Pampa"},
	{ID: "46", Label: "La Rioja"},
	{ID: "50", Label: "Mendoza"},
	{ID: "54", Label: "Misiones"},
	{ID: "58", Label: "Neuquén"},
	{ID: "62", Label: "Río Negro"},
	{ID: "66", Label: "Salta"},
	{ID: "70", Label: "San Juan"},
	{ID: "74", Label: "San Luis"},
	{ID: "78", Label: "Santa Cruz"},
	{ID: "82", Label: "Santa Fe"},
	{ID: "86", Label: "Santiago del Estero"},
	{ID: "90", Label: "Tucumán"},
	{ID: "94", Label: "Tierra del Fuego"},
}

func TiposRecuento() []Option { return append([]Option(nil), tiposRecuento...) }

func TiposEleccion() []Option { return append([]Option(nil), tiposEleccion...) }

func Categorias() []Option { return append([]Option(nil), categorias...) }

// Districts returns a copy of the canonical district list with slugs filled in.
func Districts() []models.District {
	out := make([]models.District, len(distritos))
	for i, d := range distritos {
		d.Slug = normalize.Slug(d.Label)
		out[i] = d
	}
	return out
}

// DistrictLabel looks up the display label for a district id.
func DistrictLabel(id string) (string, bool) {
	for _, d := range distritos {
		if d.ID == id {
			return d.Label, true
		}
	}
	return "", false
}

// LabelOrID is DistrictLabel falling back to the id for unknown districts.
func LabelOrID(id string) string {
	if l, ok := DistrictLabel(id); ok {
		return l
	}
	return id
}

// Years lists FirstYear through the year of now, inclusive.
func Years(now time.Time) []string {
	out := make([]string, 0, now.Year()-FirstYear+1)
	for y := FirstYear; y <= now.Year(); y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// Catalog is the full set of filter options.
type Catalog struct {
	TiposRecuento []Option          `json:"tipos_recuento"`
	TiposEleccion []Option          `json:"tipos_eleccion"`
	Categorias    []Option          `json:"categorias"`
	Anios         []string          `json:"anios"`
	Distritos     []models.District `json:"distritos"`
}

// All assembles every option list.
func All(now time.Time) Catalog {
	return Catalog{
		TiposRecuento: TiposRecuento(),
		TiposEleccion: TiposEleccion(),
		Categorias:    Categorias(),
		Anios:         Years(now),
		Distritos:     Districts(),
	}
}
