package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gorilla/mux"

	"github.com/RustMunkey/quickdash-sub005/core"
)

const maxInboundBodyBytes = 1 << 20 // 1 MiB

// HTTPHandler exposes the ingest endpoint and the tenant management API
// on a gorilla/mux router.
type HTTPHandler struct {
	gateway *Gateway
	service *core.Service
	logger  core.Logger
}

func NewHTTPHandler(gateway *Gateway, service *core.Service, logger core.Logger) *HTTPHandler {
	return &HTTPHandler{
		gateway: gateway,
		service: service,
		logger:  logger,
	}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	if h == nil || router == nil {
		return
	}
	router.HandleFunc("/webhooks/{tenant}/{provider}", h.handleInbound).Methods(http.MethodPost)

	router.HandleFunc("/tenants/{tenant}/endpoints", h.handleRegisterEndpoint).Methods(http.MethodPost)
	router.HandleFunc("/tenants/{tenant}/endpoints", h.handleListEndpoints).Methods(http.MethodGet)
	router.HandleFunc("/endpoints/{id}", h.handleGetEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/endpoints/{id}", h.handleUpdateEndpoint).Methods(http.MethodPatch)
	router.HandleFunc("/endpoints/{id}", h.handleDeleteEndpoint).Methods(http.MethodDelete)
	router.HandleFunc("/endpoints/{id}/rotate-secret", h.handleRotateSecret).Methods(http.MethodPost)
	router.HandleFunc("/endpoints/{id}/deliveries", h.handleListDeliveries).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{tenant}/events", h.handleListEvents).Methods(http.MethodGet)
	router.HandleFunc("/events/{id}", h.handleGetEvent).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleInbound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInboundBodyBytes+1))
	if err != nil {
		writeError(w, gatewayBadInput("gateway: read request body", nil))
		return
	}
	if len(body) > maxInboundBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"error": "request body too large",
		})
		return
	}

	headers := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	result, err := h.gateway.Ingest(r.Context(), core.InboundRequest{
		TenantID:   vars["tenant"],
		ProviderID: vars["provider"],
		Headers:    headers,
		Body:       body,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := result.StatusCode
	if status == 0 {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{
		"event_id":   result.EventID,
		"deduped":    result.Deduped,
		"unverified": result.Unverified,
	})
}

type registerEndpointRequest struct {
	URL              string            `json:"url"`
	SubscribedEvents []string          `json:"subscribed_events"`
	CustomHeaders    map[string]string `json:"custom_headers"`
}

func (h *HTTPHandler) handleRegisterEndpoint(w http.ResponseWriter, r *http.Request) {
	var payload registerEndpointRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxInboundBodyBytes)).Decode(&payload); err != nil {
		writeError(w, gatewayBadInput("gateway: decode endpoint payload", nil))
		return
	}
	result, err := h.service.RegisterEndpoint(r.Context(), core.RegisterEndpointInput{
		TenantID:         mux.Vars(r)["tenant"],
		URL:              payload.URL,
		SubscribedEvents: payload.SubscribedEvents,
		CustomHeaders:    payload.CustomHeaders,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"endpoint": endpointView(result.Endpoint),
		"secret":   result.Secret,
	})
}

func (h *HTTPHandler) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.service.ListEndpoints(r.Context(), mux.Vars(r)["tenant"])
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]map[string]any, 0, len(endpoints))
	for _, endpoint := range endpoints {
		views = append(views, endpointView(endpoint))
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoints": views})
}

func (h *HTTPHandler) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.service.GetEndpoint(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoint": endpointView(endpoint)})
}

type updateEndpointRequest struct {
	URL              *string           `json:"url"`
	SubscribedEvents []string          `json:"subscribed_events"`
	CustomHeaders    map[string]string `json:"custom_headers"`
	Active           *bool             `json:"active"`
}

func (h *HTTPHandler) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var payload updateEndpointRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxInboundBodyBytes)).Decode(&payload); err != nil {
		writeError(w, gatewayBadInput("gateway: decode endpoint payload", nil))
		return
	}
	endpoint, err := h.service.UpdateEndpoint(r.Context(), core.UpdateEndpointInput{
		ID:               mux.Vars(r)["id"],
		URL:              payload.URL,
		SubscribedEvents: payload.SubscribedEvents,
		CustomHeaders:    payload.CustomHeaders,
		Active:           payload.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoint": endpointView(endpoint)})
}

func (h *HTTPHandler) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEndpoint(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleRotateSecret(w http.ResponseWriter, r *http.Request) {
	secret, err := h.service.RotateEndpointSecret(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"secret": secret})
}

func (h *HTTPHandler) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	deliveries, err := h.service.ListEndpointDeliveries(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
}

func (h *HTTPHandler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	events, err := h.service.ListInboundEvents(r.Context(), mux.Vars(r)["tenant"], limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *HTTPHandler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.GetInboundEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func endpointView(endpoint core.Endpoint) map[string]any {
	return map[string]any{
		"id":                   endpoint.ID,
		"tenant_id":            endpoint.TenantID,
		"url":                  endpoint.URL,
		"subscribed_events":    endpoint.SubscribedEvents,
		"custom_headers":       endpoint.CustomHeaders,
		"active":               endpoint.Active,
		"last_delivery_at":     endpoint.LastDeliveryAt,
		"last_delivery_status": endpoint.LastDeliveryStatus,
		"created_at":           endpoint.CreatedAt,
		"updated_at":           endpoint.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	textCode := core.WebhookErrorInternal

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Code != 0 {
			status = richErr.Code
		}
		if strings.TrimSpace(richErr.TextCode) != "" {
			textCode = richErr.TextCode
		}
		if strings.TrimSpace(richErr.Message) != "" {
			message = richErr.Message
		}
	}
	writeJSON(w, status, map[string]any{
		"error": message,
		"code":  textCode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
