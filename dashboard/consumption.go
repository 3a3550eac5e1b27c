package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/consorcioci/viernes/client"
)

// Field names probed, in order, when reading history rows.
var (
	readingFields     = []string{"lectura_actual", "lectura", "lectura_act"}
	consumptionFields = []string{"consumo", "consumo_mes"}
	yearFields        = []string{"anio", "ano", "year"}
)

// Month is one period of a client's consumption history.
type Month struct {
	Period string
	// Reading is the meter reading at the end of the period.
	Reading    float64
	HasReading bool
	// Consumption is the reported consumption, or the reading delta from the
	// previous period when the server did not report one.
	Consumption float64
	Known       bool
	Derived     bool
	// Anomaly marks a reading lower than the previous one, typically a meter
	// change. Its consumption is recorded as zero.
	Anomaly bool
}

type periodRow struct {
	label string
	key   int // year*100+month, or -1 when unknown
	order int
	rec   client.Record
}

// MonthlyConsumption orders history rows chronologically, keeps the last
// row of each period and fills in missing consumption from reading deltas.
func MonthlyConsumption(rows []client.Record) []Month {
	byPeriod := make(map[string]int)
	var periods []periodRow
	for i, rec := range rows {
		label, key := period(rec)
		if label == "" {
			label = "#" + strconv.Itoa(i+1)
		}
		if idx, ok := byPeriod[label]; ok {
			periods[idx].rec = rec
			continue
		}
		byPeriod[label] = len(periods)
		periods = append(periods, periodRow{label: label, key: key, order: i, rec: rec})
	}
	// Dated periods first in calendar order, then undated ones as received.
	sort.SliceStable(periods, func(i, j int) bool {
		a, b := periods[i], periods[j]
		aDated, bDated := a.key >= 0, b.key >= 0
		switch {
		case aDated != bDated:
			return aDated
		case aDated && a.key != b.key:
			return a.key < b.key
		}
		return a.order < b.order
	})

	out := make([]Month, 0, len(periods))
	for i, p := range periods {
		m := Month{Period: p.label}
		m.Reading, m.HasReading = number(p.rec, readingFields...)
		if c, ok := number(p.rec, consumptionFields...); ok {
			m.Consumption, m.Known = c, true
		} else if i > 0 && m.HasReading && out[i-1].HasReading {
			delta := m.Reading - out[i-1].Reading
			m.Known, m.Derived = true, true
			if delta < 0 {
				m.Anomaly = true
			} else {
				m.Consumption = delta
			}
		}
		out = append(out, m)
	}
	return out
}

// period returns a display label and a sortable key for rec.
func period(rec client.Record) (string, int) {
	if p := strings.TrimSpace(rec.Text("periodo")); p != "" {
		if y, m, ok := splitPeriod(p); ok {
			return fmt.Sprintf("%04d-%02d", y, m), y*100 + m
		}
		return p, -1
	}
	mes, okM := number(rec, "mes")
	anio, okY := number(rec, yearFields...)
	switch {
	case okM && okY:
		y, m := int(anio), int(mes)
		return fmt.Sprintf("%04d-%02d", y, m), y*100 + m
	case okM:
		return fmt.Sprintf("%02d", int(mes)), -1
	}
	return "", -1
}

// splitPeriod accepts "YYYYMM", "YYYY-MM" and "YYYY/MM".
func splitPeriod(p string) (year, month int, ok bool) {
	p = strings.NewReplacer("-", "", "/", "").Replace(p)
	if len(p) != 6 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0, 0, false
	}
	year, month = n/100, n%100
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// number returns the first of fields holding a finite numeric value.
func number(rec client.Record, fields ...string) (float64, bool) {
	for _, f := range fields {
		var (
			x   float64
			err error
		)
		switch v := rec[f].(type) {
		case json.Number:
			x, err = v.Float64()
		case float64:
			x = v
		case string:
			x, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		default:
			continue
		}
		if err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
			return x, true
		}
	}
	return 0, false
}

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label   string
	Value   float64
	Length  int
	Anomaly bool
}

// BarLayout scales each month's consumption to at most width cells. Any
// positive value gets at least one cell.
func BarLayout(months []Month, width int) []Bar {
	if width < 1 {
		width = 1
	}
	var peak float64
	for _, m := range months {
		peak = math.Max(peak, m.Consumption)
	}
	bars := make([]Bar, len(months))
	for i, m := range months {
		b := Bar{Label: m.Period, Value: m.Consumption, Anomaly: m.Anomaly}
		if peak > 0 && m.Consumption > 0 {
			b.Length = int(math.Round(m.Consumption / peak * float64(width)))
			if b.Length == 0 {
				b.Length = 1
			}
		}
		bars[i] = b
	}
	return bars
}
