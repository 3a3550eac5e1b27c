package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/consorcioci/viernes/client"
)

// ConsultaTiempos handles POST /consulta/tiempos.
func (a *API) ConsultaTiempos(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	req, ok := decodeJSON[TiemposRequest](w, r, maxConsultaBodySize)
	if !ok {
		return
	}

	var cliente, medidor, target string
	switch strings.ToLower(strings.TrimSpace(req.Tipo)) {
	case client.TipoCliente:
		cliente = req.Cliente.String()
		target = "cliente:" + cliente
		if cliente == "" {
			writeError(w, http.StatusBadRequest, msgValorRequired)
			return
		}
		if !validCliente(cliente) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
	case client.TipoMedidor:
		medidor = req.Medidor.String()
		target = "medidor:" + medidor
		if medidor == "" {
			writeError(w, http.StatusBadRequest, msgValorRequired)
			return
		}
		if !validMedidor(medidor) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		cliente = a.data.clienteForMedidor(medidor)
	default:
		writeError(w, http.StatusBadRequest, msgTipoInvalid)
		return
	}

	rec, mes := a.data.tiempos(cliente)
	if medidor != "" {
		rec["medidor"] = strings.ToUpper(medidor)
	}
	a.logConsulta(r, gc.grant.Cedula, usuarioOf(req.Usuario), consultaTiempos, target)
	writeData(w, TiemposResponse{Registro: rec, MesConsultado: mes})
}

// ConsultaMedidorSac handles POST /consulta/tiempos/medidorSac.
func (a *API) ConsultaMedidorSac(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	req, ok := decodeJSON[MedidorSacRequest](w, r, maxConsultaBodySize)
	if !ok {
		return
	}
	medidor := req.Medidor.String()
	if medidor == "" {
		writeError(w, http.StatusBadRequest, msgValorRequired)
		return
	}
	if !validMedidor(medidor) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	a.logConsulta(r, gc.grant.Cedula, usuarioOf(req.Usuario), consultaMedidorSac, medidor)
	writeData(w, a.data.medidorSac(medidor))
}

// ConsultaTiemposCliente handles POST /consulta/tiempos/Cl.
func (a *API) ConsultaTiemposCliente(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	req, ok := decodeJSON[ClienteRequest](w, r, maxConsultaBodySize)
	if !ok {
		return
	}
	cliente := req.Cliente.String()
	if cliente == "" {
		writeError(w, http.StatusBadRequest, msgValorRequired)
		return
	}
	if !validCliente(cliente) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	rows := a.data.history(cliente)
	a.logConsulta(r, gc.grant.Cedula, usuarioOf(req.Usuario), consultaCliente, cliente)
	writeData(w, TiemposClienteResponse{Cliente: cliente, Total: len(rows), Rows: rows})
}

// Panel handles GET /consulta/informacion/panel. It needs no token; the
// counters come from the consultation log.
func (a *API) Panel(w http.ResponseWriter, r *http.Request) {
	entries, err := a.listConsultas()
	if err != nil {
		writeInternalError(w, "reading consultation log", err)
		return
	}
	now := time.Now()
	stats := summarizeConsultas(entries, now)
	resp := PanelResponse{
		Usuarios:         a.users.Len(),
		ConsultasTotal:   stats.Total,
		ConsultasHoy:     stats.Today,
		ConsultasPorTipo: make(map[string]int, len(stats.ByKind)),
		UsuariosActivos:  stats.Usuarios,
		Actualizado:      now.UTC().Format(time.RFC3339),
	}
	for k, n := range stats.ByKind {
		resp.ConsultasPorTipo[string(k)] = n
	}
	if stats.Last != nil {
		resp.UltimaConsulta = stats.Last.CreatedAt.Format(time.RFC3339)
	}
	writeData(w, resp)
}

// logConsulta audits a consultation and appends it to the log. A log
// write failure does not fail the request.
func (a *API) logConsulta(r *http.Request, cedula, usuario string, kind consultaKind, target string) {
	a.audit.logEvent(AuditConsulta, r, cedula,
		slog.String("kind", string(kind)), slog.String("target", target), slog.String("usuario", usuario))
	if err := a.appendConsulta(cedula, usuario, kind, target); err != nil {
		a.logger.Warn("appending consultation log failed", "error", err)
	}
}
