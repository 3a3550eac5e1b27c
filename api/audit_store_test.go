package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/storage/memory"
)

func newLogTestAPI(t *testing.T, retention int) *API {
	t.Helper()
	a := New(NewDirectory(WithArgon2Params(testArgon2Params)),
		WithRepository(memory.NewRepository()),
		WithConsultaRetention(retention),
	)
	t.Cleanup(a.Close)
	return a
}

func TestAppendAndListConsultas(t *testing.T) {
	a := newLogTestAPI(t, 0)

	require.NoError(t, a.appendConsulta("12345678", "Ana Pérez", consultaTiempos, "cliente:1001"))
	require.NoError(t, a.appendConsulta("12345678", "Ana Pérez", consultaMedidorSac, "M-77"))

	entries, err := a.listConsultas()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].CreatedAt.Before(entries[1].CreatedAt), "newest first")
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "12345678", e.Cedula)
	}
}

func TestListConsultasSkipsCorruptRecords(t *testing.T) {
	a := newLogTestAPI(t, 0)
	require.NoError(t, a.appendConsulta("1", "", consultaCliente, "1001"))
	require.NoError(t, a.repo.Put(consultaNamespace, "garbage", "{not json"))

	entries, err := a.listConsultas()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConsultaRetentionDropsOldest(t *testing.T) {
	a := newLogTestAPI(t, 3)

	base := time.Now().UTC().Add(-time.Hour)
	for i, target := range []string{"a", "b", "c"} {
		data, err := json.Marshal(consultaEntry{
			ID: target, Cedula: "1", Kind: consultaCliente, Target: target,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.NoError(t, a.repo.Put(consultaNamespace, target, string(data)))
	}
	require.NoError(t, a.appendConsulta("1", "", consultaCliente, "d"))

	entries, err := a.listConsultas()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	targets := []string{entries[0].Target, entries[1].Target, entries[2].Target}
	assert.Equal(t, []string{"d", "c", "b"}, targets)
}

func TestSummarizeConsultas(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	entries := []consultaEntry{
		{Cedula: "1", Kind: consultaTiempos, CreatedAt: now.Add(-time.Hour)},
		{Cedula: "2", Kind: consultaTiempos, CreatedAt: now.Add(-48 * time.Hour)},
		{Cedula: "1", Kind: consultaCliente, CreatedAt: now.Add(-time.Minute), Target: "1001"},
	}

	stats := summarizeConsultas(entries, now)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Today)
	assert.Equal(t, 2, stats.Usuarios)
	assert.Equal(t, 2, stats.ByKind[consultaTiempos])
	require.NotNil(t, stats.Last)
	assert.Equal(t, "1001", stats.Last.Target)

	empty := summarizeConsultas(nil, now)
	assert.Zero(t, empty.Total)
	assert.Nil(t, empty.Last)
}
