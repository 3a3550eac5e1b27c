package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString accepts a JSON string or number. Cedulas and client numbers
// arrive as either depending on the caller.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// ValidateCedulaRequest is the body of POST /auth/validate-cedula.
type ValidateCedulaRequest struct {
	Cedula flexString `json:"cedula"`
}

// CedulaResponse tells the client which password step comes next.
type CedulaResponse struct {
	NextStep string `json:"nextStep"`
	Cedula   string `json:"cedula"`
	Name     string `json:"name,omitempty"`
}

// ValidateTempPasswordRequest is the body of POST /auth/validate-temp-password.
type ValidateTempPasswordRequest struct {
	Cedula            flexString `json:"cedula"`
	TemporaryPassword string     `json:"temporaryPassword"`
}

// TemporaryTokenResponse carries the token that authorizes the password change.
type TemporaryTokenResponse struct {
	TemporaryToken string `json:"temporaryToken"`
	ExpiresIn      int    `json:"expiresIn"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	Cedula      flexString `json:"cedula"`
	NewPassword string     `json:"newPassword"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Cedula   flexString `json:"cedula"`
	Password string     `json:"password"`
}

// AuthResponse is returned by login and change-password.
type AuthResponse struct {
	AuthToken string `json:"authToken"`
	Cedula    string `json:"cedula"`
	Name      string `json:"name"`
	Cargo     string `json:"cargo"`
	ExpiresIn int    `json:"expiresIn"`
}

// ProfileResponse is returned by GET /auth/verify-token.
type ProfileResponse struct {
	Cedula string `json:"cedula"`
	Name   string `json:"name"`
	Cargo  string `json:"cargo"`
}

// TiemposRequest is the body of POST /consulta/tiempos.
type TiemposRequest struct {
	Tipo    string     `json:"tipo"`
	Cliente flexString `json:"cliente"`
	Medidor flexString `json:"medidor"`
	Usuario *string    `json:"usuario"`
}

// MedidorSacRequest is the body of POST /consulta/tiempos/medidorSac.
type MedidorSacRequest struct {
	Medidor flexString `json:"medidor"`
	Usuario *string    `json:"usuario"`
}

// ClienteRequest is the body of POST /consulta/tiempos/Cl.
type ClienteRequest struct {
	Cliente flexString `json:"cliente"`
	Usuario *string    `json:"usuario"`
}

// TiemposResponse is the reading-times record of one client or meter.
type TiemposResponse struct {
	Registro      map[string]any `json:"registro"`
	MesConsultado string         `json:"mesConsultado"`
}

// TiemposClienteResponse lists every reading on file for a client.
type TiemposClienteResponse struct {
	Cliente string           `json:"cliente"`
	Total   int              `json:"total"`
	Rows    []map[string]any `json:"rows"`
}

// PanelResponse holds the dashboard summary counters.
type PanelResponse struct {
	Usuarios         int            `json:"usuarios"`
	ConsultasTotal   int            `json:"consultas"`
	ConsultasHoy     int            `json:"consultasHoy"`
	ConsultasPorTipo map[string]int `json:"consultasPorTipo"`
	UsuariosActivos  int            `json:"usuariosActivos"`
	UltimaConsulta   string         `json:"ultimaConsulta,omitempty"`
	Actualizado      string         `json:"actualizado"`
}

func usuarioOf(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
