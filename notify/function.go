package notify

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FunctionResponse is the body returned by the send-order-email function.
type FunctionResponse struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SecretHeader carries the shared secret between FunctionClient and
// FunctionHandler.
const SecretHeader = "X-Function-Secret"

// FunctionHandler serves POST /functions/send-order-email: it decodes the
// order fields, emails the admin and answers success or error. Callers must
// present the shared secret; with no secret configured every call is refused.
type FunctionHandler struct {
	notifier Notifier
	secret   []byte
	log      *zap.Logger
}

func NewFunctionHandler(n Notifier, secret string, log *zap.Logger) *FunctionHandler {
	return &FunctionHandler{notifier: n, secret: []byte(secret), log: log}
}

func (h *FunctionHandler) authorized(r *http.Request) bool {
	if len(h.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), h.secret) == 1
}

func (h *FunctionHandler) HandleSendOrderEmail(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.log.Warn("send-order-email call without a valid secret", zap.String("remote", r.RemoteAddr))
		writeFunctionResponse(w, http.StatusUnauthorized, FunctionResponse{Error: "unauthorized"})
		return
	}

	var order OrderEmail
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeFunctionResponse(w, http.StatusBadRequest, FunctionResponse{Error: "invalid JSON body"})
		return
	}
	if order.CustomerName == "" || order.Email == "" {
		writeFunctionResponse(w, http.StatusBadRequest, FunctionResponse{Error: "customer_name and email are required"})
		return
	}

	if err := h.notifier.NotifyOrder(r.Context(), order); err != nil {
		h.log.Error("send order email", zap.Error(err))
		writeFunctionResponse(w, http.StatusInternalServerError, FunctionResponse{Error: err.Error()})
		return
	}
	writeFunctionResponse(w, http.StatusOK, FunctionResponse{Success: true})
}

func writeFunctionResponse(w http.ResponseWriter, status int, resp FunctionResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// FunctionClient calls a remote send-order-email function over HTTP.
type FunctionClient struct {
	url    string
	secret string
	client *http.Client
}

func NewFunctionClient(url, secret string, timeout time.Duration) *FunctionClient {
	return &FunctionClient{url: url, secret: secret, client: &http.Client{Timeout: timeout}}
}

func (c *FunctionClient) NotifyOrder(ctx context.Context, order OrderEmail) error {
	body, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "encode order email")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build function request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "call send-order-email function")
	}
	defer resp.Body.Close()

	var out FunctionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return errors.Wrapf(err, "send-order-email function: status %d, unreadable body", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return errors.Errorf("send-order-email function: status %d: %s", resp.StatusCode, out.Error)
	}
	return nil
}
