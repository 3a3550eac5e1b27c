package client

import (
	"encoding/json"
	"fmt"
)

// Next steps announced by the cedula validation endpoint.
const (
	NextStepNormalLogin = "normal-login"
	NextStepTempLogin   = "temp-login"
)

// Consultation kinds accepted by ConsultaTiempos.
const (
	TipoCliente = "cliente"
	TipoMedidor = "medidor"
)

// CedulaInfo is the answer to a cedula validation.
type CedulaInfo struct {
	NextStep string `json:"nextStep"`
	Cedula   string `json:"cedula,omitempty"`
	Name     string `json:"name,omitempty"`
}

// TemporaryGrant carries the short-lived token that authorizes a password
// change.
type TemporaryGrant struct {
	TemporaryToken string `json:"temporaryToken"`
}

// AuthGrant is the result of a successful login or password change.
type AuthGrant struct {
	AuthToken string `json:"authToken"`
	Cedula    string `json:"cedula"`
	Name      string `json:"name"`
	Cargo     string `json:"cargo,omitempty"`
}

// Profile is the identity echoed back by token verification.
type Profile struct {
	Cedula string `json:"cedula,omitempty"`
	Name   string `json:"name,omitempty"`
	Cargo  string `json:"cargo,omitempty"`
}

// Record is one row of consultation output. Values keep the server's JSON
// types with numbers as json.Number.
type Record map[string]any

// Text renders the value of field for display. Missing, null and empty
// values render as the empty string.
func (r Record) Text(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// TiemposResult is the reading-times record of one client or meter.
type TiemposResult struct {
	Registro      Record `json:"registro"`
	MesConsultado any    `json:"mesConsultado"`
}

// Month renders the consulted month, or "" when the server sent none.
func (r *TiemposResult) Month() string {
	if r.MesConsultado == nil {
		return ""
	}
	return fmt.Sprint(r.MesConsultado)
}

// TiemposCliente is the full reading history of one client.
type TiemposCliente struct {
	Cliente any      `json:"cliente"`
	Total   int      `json:"total"`
	Rows    []Record `json:"rows"`
}

// PanelInfo holds the dashboard summary counters keyed by name.
type PanelInfo map[string]any
