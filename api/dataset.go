package api

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
)

// historyMonths is how many monthly readings a synthetic client has.
const historyMonths = 12

var (
	firstNames = []string{"María", "José", "Luz", "Jorge", "Ángela", "Hernán", "Nubia", "Óscar", "Sofía", "Andrés"}
	lastNames  = []string{"Rodríguez", "Gómez", "Martínez", "Peña", "Castaño", "Muñoz", "Ríos", "Zuluaga", "Beltrán", "Ospina"}
	barrios    = []string{"La Floresta", "San José", "El Prado", "Villa del Río", "Los Álamos", "Centro", "La Esperanza"}
	lectores   = []string{"L-014", "L-022", "L-031", "L-047", "L-058"}
	causas     = []struct{ code, text string }{
		{"", ""},
		{"", ""},
		{"", ""},
		{"01", "Predio cerrado"},
		{"04", "Medidor empañado"},
		{"07", "Perro bravo"},
		{"12", "Medidor enterrado"},
	}
	marcas = []string{"Elster", "Itron", "Sensus", "Zenner"}
)

// dataset generates stable synthetic readings. The same seed and key always
// produce the same record.
type dataset struct {
	seed uint64
	now  func() time.Time
}

func newDataset(seed uint64) *dataset {
	return &dataset{seed: seed, now: time.Now}
}

func (d *dataset) rng(kind, key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return rand.New(rand.NewPCG(d.seed, h.Sum64()))
}

func pick[T any](r *rand.Rand, s []T) T { return s[r.IntN(len(s))] }

// validCliente accepts 3 to 12 digit client numbers.
func validCliente(s string) bool {
	if len(s) < 3 || len(s) > 12 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// validMedidor accepts 3 to 20 letters, digits or dashes.
func validMedidor(s string) bool {
	if len(s) < 3 || len(s) > 20 {
		return false
	}
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' {
			return false
		}
	}
	return true
}

// clienteForMedidor maps a meter onto the client it is installed at.
func (d *dataset) clienteForMedidor(medidor string) string {
	r := d.rng("medidor-owner", strings.ToUpper(medidor))
	return fmt.Sprintf("%d", 100000+r.IntN(900000))
}

func (d *dataset) medidorFor(cliente string) string {
	r := d.rng("medidor", cliente)
	return fmt.Sprintf("MD-%07d", r.IntN(10_000_000))
}

// profile is the static part of a client's record.
func (d *dataset) profile(cliente string) map[string]any {
	r := d.rng("profile", cliente)
	lat := 4.55 + r.Float64()*0.2
	lng := -74.2 + r.Float64()*0.15
	return map[string]any{
		"cliente":       cliente,
		"nombre":        pick(r, firstNames) + " " + pick(r, lastNames) + " " + pick(r, lastNames),
		"servicio":      fmt.Sprintf("%d", 500000+r.IntN(500000)),
		"medidor":       d.medidorFor(cliente),
		"ubicacion":     fmt.Sprintf("Calle %d # %d - %d, %s", 1+r.IntN(150), 1+r.IntN(99), 1+r.IntN(99), pick(r, barrios)),
		"coordenadas":   fmt.Sprintf("%.6f,%.6f", lat, lng),
		"ruta":          fmt.Sprintf("R%03d", 1+r.IntN(300)),
		"ciclo":         1 + r.IntN(20),
		"estrato":       1 + r.IntN(6),
		"lector":        pick(r, lectores),
		"obs_predio":    "",
		"created_at":    "2019-01-15T08:00:00Z",
		"codigo_ruta":   fmt.Sprintf("%02d-%04d", 1+r.IntN(20), r.IntN(10000)),
		"uso":           pick(r, []string{"RESIDENCIAL", "COMERCIAL", "INDUSTRIAL"}),
		"estado_cuenta": pick(r, []string{"ACTIVA", "ACTIVA", "ACTIVA", "SUSPENDIDA"}),
	}
}

// history returns the client's monthly readings, oldest first, ending with
// the month before now. Some rows omit consumo and one may record a meter
// replacement (the reading drops).
func (d *dataset) history(cliente string) []map[string]any {
	r := d.rng("history", cliente)
	last := d.now().AddDate(0, -1, 0)
	start := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(historyMonths - 1), 0)

	reading := 1000 + r.IntN(4000)
	swap := -1
	if r.IntN(4) == 0 {
		swap = 3 + r.IntN(historyMonths-4)
	}

	rows := make([]map[string]any, 0, historyMonths)
	for i := 0; i < historyMonths; i++ {
		month := start.AddDate(0, i, 0)
		consumo := 8 + r.IntN(33)
		reading += consumo
		if i == swap {
			reading = r.IntN(20)
		}
		causa := pick(r, causas)
		day := 5 + r.IntN(20)
		row := map[string]any{
			"id":             i + 1,
			"cliente":        cliente,
			"periodo":        month.Format("200601"),
			"anio":           month.Year(),
			"mes":            int(month.Month()),
			"lectura_actual": reading,
			"fecha_lectura":  time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			"hora_lectura":   fmt.Sprintf("%02d:%02d", 7+r.IntN(10), r.IntN(60)),
			"lector":         pick(r, lectores),
			"cod_causa_obs":  causa.code,
			"observacion":    causa.text,
			"intentos":       1 + r.IntN(2),
			"secuencia":      i + 1,
		}
		// Every third row leaves consumo for the client to derive.
		if i%3 != 2 && i != swap {
			row["consumo"] = consumo
		}
		rows = append(rows, row)
	}
	return rows
}

var monthNames = [...]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio",
	"Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// tiempos merges the client's profile with its latest reading.
func (d *dataset) tiempos(cliente string) (map[string]any, string) {
	rec := d.profile(cliente)
	rows := d.history(cliente)
	latest := rows[len(rows)-1]
	for _, k := range []string{"periodo", "anio", "mes", "lectura_actual", "fecha_lectura", "hora_lectura",
		"cod_causa_obs", "observacion", "intentos", "secuencia"} {
		rec[k] = latest[k]
	}
	if c, ok := latest["consumo"]; ok {
		rec["consumo"] = c
	}
	mes := latest["mes"].(int)
	return rec, fmt.Sprintf("%s %d", monthNames[mes-1], latest["anio"].(int))
}

// medidorSac is the commercial system's view of a meter.
func (d *dataset) medidorSac(medidor string) map[string]any {
	r := d.rng("sac", strings.ToUpper(medidor))
	installed := time.Date(2010+r.IntN(14), time.Month(1+r.IntN(12)), 1+r.IntN(28), 0, 0, 0, 0, time.UTC)
	return map[string]any{
		"medidor":           strings.ToUpper(medidor),
		"cliente":           d.clienteForMedidor(medidor),
		"marca":             pick(r, marcas),
		"serial":            fmt.Sprintf("%s%08d", strings.ToUpper(pick(r, marcas)[:2]), r.IntN(100_000_000)),
		"diametro":          pick(r, []string{"1/2\"", "3/4\"", "1\""}),
		"clase":             pick(r, []string{"B", "C", "R160"}),
		"estado":            pick(r, []string{"INSTALADO", "INSTALADO", "INSTALADO", "RETIRADO"}),
		"fecha_instalacion": installed.Format("2006-01-02"),
		"enteros":           5,
		"decimales":         pick(r, []int{0, 1, 3}),
	}
}
