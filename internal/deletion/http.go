package deletion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/keepjoy/account-service/internal/server"
)

const (
	allowOrigin  = "*"
	allowHeaders = "authorization, x-client-info, apikey, content-type"

	maxBodyBytes = 64 << 10
)

// Handler exposes the Service over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler returns the HTTP transport for svc.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
		return
	}

	res := h.handle(r)
	server.WriteJSON(w, res.Status(), res.Body())
}

func (h *Handler) handle(r *http.Request) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("unexpected error",
				"error", fmt.Sprintf("panic: %v", rec),
				"request_id", server.RequestIDFromContext(r.Context()),
			)
			res = failed(KindInternal, MsgInternal, DetailUnknown, nil)
			h.svc.metrics.observeOutcome(res.Kind)
		}
	}()

	req, err := decodeRequest(r.Body)
	if err != nil {
		h.logger.Error("unexpected error", "error", err, "request_id", server.RequestIDFromContext(r.Context()))
		res = failed(KindInternal, MsgInternal, DetailMalformedBody, err)
		h.svc.metrics.observeOutcome(res.Kind)
		return res
	}
	return h.svc.Delete(r.Context(), r.Header.Get("Authorization"), req)
}

// decodeRequest reads a JSON object body. A userId that is absent, null or not a string
// yields an empty Request so the pipeline reports it as missing.
func decodeRequest(body io.Reader) (Request, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		return Request{}, fmt.Errorf("deletion: decode body: %w", err)
	}
	if raw == nil {
		return Request{}, errors.New("deletion: decode body: not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Request{}, errors.New("deletion: decode body: unexpected data after JSON object")
	}

	var req Request
	if v, ok := raw["userId"]; ok {
		var id string
		if err := json.Unmarshal(v, &id); err == nil {
			req.UserID = id
		}
	}
	return req, nil
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
}
