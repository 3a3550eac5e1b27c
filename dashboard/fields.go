// Package dashboard holds the presentation logic behind the portal's
// dashboard: which consultation fields a role may see, map points from
// stored coordinates, monthly consumption series and the periodic summary
// poller.
package dashboard

import (
	"regexp"
	"sort"
	"strings"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/client"
)

var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// hiddenForBasic lists normalized field names withheld from BASICO users.
var hiddenForBasic = map[string]struct{}{
	"lectura_actual":     {},
	"nueva":              {},
	"codtarea":           {},
	"code_tarea":         {},
	"cod_tarea":          {},
	"intentos":           {},
	"ano":                {},
	"anio":               {},
	"codcausaobs":        {},
	"cod_causa_obs":      {},
	"fechaultlabor":      {},
	"fecha_ult_labor":    {},
	"fecha_ult_lab":      {},
	"fecha_ultima_labor": {},
	"horaultlabor":       {},
	"hora_ult_labor":     {},
	"hora_ult_lab":       {},
	"secuencia":          {},
	"enteros":            {},
	"decimales":          {},
	"created_at":         {},
	"creado_el":          {},
	"periodo":            {},
	"obs_predio":         {},
	"obs_texto":          {},
	"mes":                {},
	"id":                 {},
	"correria":           {},
	"cliente":            {},
	"coordenadas":        {},
}

// NormalizeField lower-cases name and replaces each run of non-word
// characters with an underscore, so "Fecha Ult. Labor" becomes
// "fecha_ult_labor".
func NormalizeField(name string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// HiddenFor reports whether field is withheld from role.
func HiddenFor(role access.Role, field string) bool {
	if role != access.RoleBasico {
		return false
	}
	_, hidden := hiddenForBasic[NormalizeField(field)]
	return hidden
}

// VisibleColumns returns the columns of rec that role may see, sorted by
// name.
func VisibleColumns(role access.Role, rec client.Record) []string {
	cols := make([]string, 0, len(rec))
	for k := range rec {
		if !HiddenFor(role, k) {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

// DisplayValue renders a field for a table cell; empty values show as a dash.
func DisplayValue(rec client.Record, field string) string {
	if s := rec.Text(field); s != "" {
		return s
	}
	return "—"
}
