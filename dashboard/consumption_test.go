package dashboard

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/client"
)

func TestMonthlyConsumptionDerivesDeltas(t *testing.T) {
	rows := []client.Record{
		{"anio": json.Number("2025"), "mes": json.Number("3"), "lectura_actual": json.Number("130")},
		{"anio": json.Number("2025"), "mes": json.Number("1"), "lectura_actual": json.Number("100")},
		{"anio": json.Number("2025"), "mes": json.Number("2"), "lectura_actual": json.Number("112"), "consumo": json.Number("11")},
		{"anio": json.Number("2025"), "mes": json.Number("4"), "lectura_actual": json.Number("5")},
	}

	got := MonthlyConsumption(rows)
	require.Len(t, got, 4)

	assert.Equal(t, "2025-01", got[0].Period)
	assert.False(t, got[0].Known, "first period has no previous reading")

	assert.Equal(t, "2025-02", got[1].Period)
	assert.Equal(t, 11.0, got[1].Consumption, "reported consumption wins")
	assert.False(t, got[1].Derived)

	assert.Equal(t, "2025-03", got[2].Period)
	assert.Equal(t, 18.0, got[2].Consumption)
	assert.True(t, got[2].Derived)

	assert.Equal(t, "2025-04", got[3].Period)
	assert.True(t, got[3].Anomaly)
	assert.Equal(t, 0.0, got[3].Consumption)
}

func TestMonthlyConsumptionPeriodField(t *testing.T) {
	rows := []client.Record{
		{"periodo": "202412", "lectura": "90"},
		{"periodo": "2025/01", "lectura": "95,5"},
		{"periodo": "2025/01", "lectura": "96"},
	}
	got := MonthlyConsumption(rows)
	require.Len(t, got, 2, "last row of a period wins")
	assert.Equal(t, "2024-12", got[0].Period)
	assert.Equal(t, "2025-01", got[1].Period)
	assert.Equal(t, 96.0, got[1].Reading)
	assert.Equal(t, 6.0, got[1].Consumption)
}

func TestMonthlyConsumptionWithoutPeriods(t *testing.T) {
	rows := []client.Record{
		{"lectura": json.Number("10")},
		{"lectura": json.Number("15")},
	}
	got := MonthlyConsumption(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "#1", got[0].Period)
	assert.Equal(t, 5.0, got[1].Consumption)
	assert.Empty(t, MonthlyConsumption(nil))
}

func TestBarLayout(t *testing.T) {
	months := []Month{
		{Period: "a", Consumption: 50},
		{Period: "b", Consumption: 100},
		{Period: "c", Consumption: 0.1},
		{Period: "d", Anomaly: true},
	}
	bars := BarLayout(months, 40)
	require.Len(t, bars, 4)
	assert.Equal(t, 20, bars[0].Length)
	assert.Equal(t, 40, bars[1].Length)
	assert.Equal(t, 1, bars[2].Length, "positive values stay visible")
	assert.Equal(t, 0, bars[3].Length)
	assert.True(t, bars[3].Anomaly)

	for _, b := range BarLayout([]Month{{Period: "x"}}, 0) {
		assert.Equal(t, 0, b.Length)
	}
}

func TestMonthlyConsumptionMixedPeriods(t *testing.T) {
	rows := []client.Record{
		{"periodo": "sin fecha", "lectura_actual": json.Number("1")},
		{"periodo": "202503", "lectura_actual": json.Number("30")},
		{"mes": json.Number("7"), "lectura_actual": json.Number("2")},
		{"periodo": "202501", "lectura_actual": json.Number("10")},
		{"periodo": "202502", "lectura_actual": json.Number("20")},
	}

	got := MonthlyConsumption(rows)
	labels := make([]string, len(got))
	for i, m := range got {
		labels[i] = m.Period
	}
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "sin fecha", "07"}, labels)
}

func TestNonFiniteValuesAreIgnored(t *testing.T) {
	rows := []client.Record{
		{"periodo": "202501", "lectura_actual": json.Number("100")},
		{"periodo": "202502", "lectura_actual": json.Number("110"), "consumo": "NaN"},
		{"periodo": "202503", "lectura_actual": "Inf", "consumo": json.Number("-Inf")},
		{"periodo": "202504", "lectura_actual": json.Number("140"), "consumo": math.NaN()},
	}

	got := MonthlyConsumption(rows)
	require.Len(t, got, 4)
	assert.True(t, got[1].Derived)
	assert.Equal(t, 10.0, got[1].Consumption)
	assert.False(t, got[2].HasReading)
	assert.False(t, got[2].Known)
	assert.False(t, got[3].Known, "previous reading is unusable")

	bars := BarLayout(got, 10)
	assert.Equal(t, 10, bars[1].Length)
}
