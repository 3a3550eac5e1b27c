package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ConsultaTiempos looks up the reading-times record of a client or meter.
// tipo is TipoCliente or TipoMedidor; usuario names the operator for the
// server's audit trail.
func (c *Client) ConsultaTiempos(ctx context.Context, authToken, tipo, valor, usuario string) (*TiemposResult, error) {
	if authToken == "" {
		return nil, ErrNotAuthenticated
	}
	body := map[string]any{"usuario": nullable(usuario)}
	switch strings.ToLower(tipo) {
	case TipoCliente:
		body["tipo"] = TipoCliente
		body["cliente"] = valor
	case TipoMedidor:
		body["tipo"] = TipoMedidor
		body["medidor"] = valor
	default:
		return nil, fmt.Errorf("unknown consultation type %q", tipo)
	}
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "consulta/tiempos",
		token:  authToken,
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	var res TiemposResult
	if err := decodeData(env.Data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ConsultaMedidorSac looks up a meter in the commercial system.
func (c *Client) ConsultaMedidorSac(ctx context.Context, authToken, medidor, usuario string) (Record, error) {
	if authToken == "" {
		return nil, ErrNotAuthenticated
	}
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "consulta/tiempos/medidorSac",
		token:  authToken,
		body:   map[string]any{"medidor": medidor, "usuario": nullable(usuario)},
	})
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeData(env.Data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ConsultaTiemposCliente returns every reading on file for cliente.
func (c *Client) ConsultaTiemposCliente(ctx context.Context, authToken, cliente, usuario string) (*TiemposCliente, error) {
	if authToken == "" {
		return nil, ErrNotAuthenticated
	}
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "consulta/tiempos/Cl",
		token:  authToken,
		body:   map[string]any{"cliente": cliente, "usuario": nullable(usuario)},
	})
	if err != nil {
		return nil, err
	}
	var res TiemposCliente
	if err := decodeData(env.Data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PanelInfo fetches the dashboard summary counters. The token is optional.
// Servers answer either with the counters wrapped in data or bare.
func (c *Client) PanelInfo(ctx context.Context, authToken string) (PanelInfo, error) {
	env, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "consulta/informacion/panel",
		query:  url.Values{"ts": {strconv.FormatInt(time.Now().UnixMilli(), 10)}},
		token:  authToken,
	})
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		if len(env.raw) == 0 {
			return PanelInfo{}, nil
		}
		var bare PanelInfo
		if err := decodeData(env.raw, &bare); err != nil {
			return nil, err
		}
		delete(bare, "success")
		delete(bare, "message")
		return bare, nil
	}
	var info PanelInfo
	if err := decodeData(env.Data, &info); err != nil {
		return nil, err
	}
	return info, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
