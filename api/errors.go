package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Spanish messages, as the portal backend answers.
const (
	msgInvalidBody      = "Solicitud inválida"
	msgBodyTooLarge     = "Solicitud demasiado grande"
	msgCedulaRequired   = "La cédula es requerida"
	msgCedulaUnknown    = "Cédula no registrada"
	msgUserInactive     = "Usuario inactivo. Contacte al administrador."
	msgPasswordRequired = "La contraseña es requerida"
	msgBadTemporary     = "Contraseña temporal incorrecta"
	msgBadCredentials   = "Cédula o contraseña incorrecta"
	msgMustChange       = "Debe cambiar su contraseña temporal antes de ingresar"
	msgPasswordPolicy   = "La contraseña debe tener al menos 8 caracteres, una mayúscula, una minúscula y un número"
	msgTokenMissing     = "Token no proporcionado"
	msgTokenInvalid     = "Token inválido o expirado"
	msgTokenForbidden   = "Token no autorizado para esta operación"
	msgInternal         = "Error interno del servidor"
	msgNotFound         = "No se encontraron registros"
	msgTipoInvalid      = "Tipo de consulta inválido"
	msgValorRequired    = "El valor a consultar es requerido"
)

// envelope is the {success, message, data} body every endpoint answers.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeInternalError logs err and answers a generic 500 so internals never
// reach the client.
func writeInternalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// decodeJSON reads a size-limited JSON body into T. On failure it writes
// the error response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxSize int64) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSize))
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		} else {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
		}
		return v, false
	}
	return v, true
}
