package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/dropDatabas3/sessionkit/internal/domain"
)

// ErrorResponse es el cuerpo de error que devuelve el servicio de identidad.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorDesc string `json:"error_description,omitempty"`
}

// DoJSON ejecuta una llamada JSON contra el servicio de identidad y decodifica
// la respuesta en out (out puede ser nil para respuestas sin cuerpo).
// Clasifica fallas: timeout/transporte -> NetworkError, rechazo -> ProviderError.
func DoJSON(ctx context.Context, hc *http.Client, method, url string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.NewNetworkError(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		msg := er.ErrorDesc
		if msg == "" {
			msg = er.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("identity service error: status %d", resp.StatusCode)
		}
		return domain.NewProviderError(msg, fmt.Errorf("status %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewNetworkError(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// classifyTransport mapea errores de transporte a NetworkError.
// Los timeouts de contexto también cuentan como falla de red, no de estado.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return domain.NewNetworkError(fmt.Errorf("identity service timeout: %w", err))
	}
	return domain.NewNetworkError(err)
}
