package api

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/consorcioci/viernes/internal/uuid"
	"github.com/consorcioci/viernes/storage"
)

const (
	consultaNamespace = "consultas"
	// defaultConsultaRetention caps the stored consultation log.
	defaultConsultaRetention = 5000
)

type consultaKind string

const (
	consultaTiempos    consultaKind = "tiempos"
	consultaMedidorSac consultaKind = "medidorSac"
	consultaCliente    consultaKind = "cliente"
)

// consultaEntry is one line of the consultation log the panel counters
// are computed from.
type consultaEntry struct {
	ID        string       `json:"id"`
	Cedula    string       `json:"cedula"`
	Usuario   string       `json:"usuario,omitempty"`
	Kind      consultaKind `json:"kind"`
	Target    string       `json:"target"`
	CreatedAt time.Time    `json:"created_at"`
}

func (a *API) appendConsulta(cedula, usuario string, kind consultaKind, target string) error {
	entry := consultaEntry{
		ID:        uuid.New(),
		Cedula:    cedula,
		Usuario:   usuario,
		Kind:      kind,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := a.repo.Put(consultaNamespace, entry.ID, string(data)); err != nil {
		return err
	}
	return a.pruneConsultas()
}

// listConsultas returns the log newest first. Unreadable records are
// skipped.
func (a *API) listConsultas() ([]consultaEntry, error) {
	ids, err := a.repo.List(consultaNamespace)
	if err != nil {
		return nil, err
	}
	entries := make([]consultaEntry, 0, len(ids))
	for _, id := range ids {
		raw, err := a.repo.Get(consultaNamespace, id)
		if err != nil {
			continue
		}
		var entry consultaEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// pruneConsultas drops the oldest entries beyond the retention cap.
func (a *API) pruneConsultas() error {
	if a.consultaRetention <= 0 {
		return nil
	}
	entries, err := a.listConsultas()
	if err != nil {
		return err
	}
	if len(entries) <= a.consultaRetention {
		return nil
	}
	stale := entries[a.consultaRetention:]
	return a.repo.Batch(consultaNamespace, func(tx storage.Tx) error {
		for _, e := range stale {
			if err := tx.Delete(e.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// consultaStats summarizes the log for the panel.
type consultaStats struct {
	Total    int
	Today    int
	ByKind   map[consultaKind]int
	Usuarios int
	Last     *consultaEntry
}

func summarizeConsultas(entries []consultaEntry, now time.Time) consultaStats {
	stats := consultaStats{ByKind: make(map[consultaKind]int)}
	y, m, d := now.Date()
	users := make(map[string]struct{})
	for i, e := range entries {
		stats.Total++
		stats.ByKind[e.Kind]++
		users[e.Cedula] = struct{}{}
		ey, em, ed := e.CreatedAt.In(now.Location()).Date()
		if ey == y && em == m && ed == d {
			stats.Today++
		}
		if stats.Last == nil || e.CreatedAt.After(stats.Last.CreatedAt) {
			stats.Last = &entries[i]
		}
	}
	stats.Usuarios = len(users)
	return stats
}
