package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

var sampleOrder = OrderEmail{
	CustomerName:      "Asha Verma",
	Email:             "asha@example.com",
	Phone:             "+91 98000 00000",
	ProductName:       "Maharaja Sofa",
	ProductCode:       "SOFA-01",
	WoodType:          "Teak",
	CushionType:       "Foam",
	CustomizationNote: "Longer armrests please",
}

func TestMailerNotifyOrder(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailer(sender, "owner@example.com", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.NotifyOrder(context.Background(), sampleOrder))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, msg.To)
	assert.Equal(t, "New order request: Maharaja Sofa", msg.Subject)
	assert.Contains(t, msg.HTML, "Asha Verma")
	assert.Contains(t, msg.HTML, "SOFA-01")
	assert.Contains(t, msg.HTML, "Longer armrests please")
	assert.NotContains(t, msg.HTML, "Address", "empty optional rows are omitted")
}

func TestMailerEscapesCustomerInput(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailer(sender, "owner@example.com", zap.NewNop())
	require.NoError(t, err)

	order := sampleOrder
	order.CustomizationNote = "<script>alert(1)</script>"
	require.NoError(t, m.NotifyOrder(context.Background(), order))
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
}

func TestMailerErrors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		m, err := NewMailer(&recordingSender{}, "", zap.NewNop())
		require.NoError(t, err)
		assert.Error(t, m.NotifyOrder(context.Background(), sampleOrder))
	})

	t.Run("provider failure", func(t *testing.T) {
		m, err := NewMailer(&recordingSender{err: errors.New("quota exceeded")}, "owner@example.com", zap.NewNop())
		require.NoError(t, err)
		err = m.NotifyOrder(context.Background(), sampleOrder)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("unknown template", func(t *testing.T) {
		m, err := NewMailer(&recordingSender{}, "owner@example.com", zap.NewNop())
		require.NoError(t, err)
		_, err = m.Render("missing", nil)
		assert.Error(t, err)
	})
}

type stubNotifier struct {
	got []OrderEmail
	err error
}

func (s *stubNotifier) NotifyOrder(_ context.Context, o OrderEmail) error {
	s.got = append(s.got, o)
	return s.err
}

func TestFunctionRoundTrip(t *testing.T) {
	testCases := []struct {
		name       string
		notifyErr  error
		order      OrderEmail
		wantErr    bool
		wantNotify int
	}{
		{name: "success", order: sampleOrder, wantNotify: 1},
		{name: "provider error surfaces", order: sampleOrder, notifyErr: errors.New("smtp down"), wantErr: true, wantNotify: 1},
		{name: "missing email is rejected before sending", order: OrderEmail{CustomerName: "X"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubNotifier{err: tc.notifyErr}
			handler := NewFunctionHandler(stub, "s3cret", zap.NewNop())
			srv := httptest.NewServer(http.HandlerFunc(handler.HandleSendOrderEmail))
			defer srv.Close()

			client := NewFunctionClient(srv.URL, "s3cret", time.Second)
			err := client.NotifyOrder(context.Background(), tc.order)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, stub.got, tc.wantNotify)
		})
	}
}

func TestFunctionHandlerRejectsBadJSON(t *testing.T) {
	handler := NewFunctionHandler(&stubNotifier{}, "s3cret", zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/functions/send-order-email", strings.NewReader("{"))
	req.Header.Set(SecretHeader, "s3cret")
	rec := httptest.NewRecorder()

	handler.HandleSendOrderEmail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestFunctionHandlerRequiresSecret(t *testing.T) {
	body, err := json.Marshal(sampleOrder)
	require.NoError(t, err)

	testCases := []struct {
		name               string
		configured         string
		header             string
		expectedStatusCode int
		expectedNotify     int
	}{
		{name: "Missing header", configured: "s3cret", expectedStatusCode: http.StatusUnauthorized},
		{name: "Wrong secret", configured: "s3cret", header: "guess", expectedStatusCode: http.StatusUnauthorized},
		{name: "Nothing configured", configured: "", header: "", expectedStatusCode: http.StatusUnauthorized},
		{name: "Matching secret", configured: "s3cret", header: "s3cret", expectedStatusCode: http.StatusOK, expectedNotify: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubNotifier{}
			handler := NewFunctionHandler(stub, tc.configured, zap.NewNop())
			req := httptest.NewRequest(http.MethodPost, "/functions/send-order-email", bytes.NewReader(body))
			if tc.header != "" {
				req.Header.Set(SecretHeader, tc.header)
			}
			rec := httptest.NewRecorder()

			handler.HandleSendOrderEmail(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Len(t, stub.got, tc.expectedNotify)
		})
	}
}

func TestFunctionClientWithWrongSecretFails(t *testing.T) {
	stub := &stubNotifier{}
	srv := httptest.NewServer(http.HandlerFunc(NewFunctionHandler(stub, "s3cret", zap.NewNop()).HandleSendOrderEmail))
	defer srv.Close()

	err := NewFunctionClient(srv.URL, "stale", time.Second).NotifyOrder(context.Background(), sampleOrder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Empty(t, stub.got)
}
