package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := New(logger.Nop(), Config{
		APIKey:           "SG.test",
		BaseURL:          srv.URL,
		DefaultFromEmail: "packets@claims.example",
		DefaultFromName:  "Claims Desk",
		MaxRetries:       retries,
		RetryBase:        time.Millisecond,
		HTTPClient:       srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSendWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: want=%q got=%q", "/v3/mail/send", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer SG.test" {
			t.Errorf("authorization header missing")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 0).Send(context.Background(), SendEmailRequest{
		To:         []EmailAddress{{Email: "adjuster@carrier.example"}},
		Subject:    "Claim packet",
		Text:       "See attached",
		CustomArgs: map[string]string{"artifact_id": "a1"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "msg-123" || res.StatusCode != http.StatusAccepted {
		t.Fatalf("result: got=%+v", res)
	}
	from := got["from"].(map[string]any)
	if from["email"] != "packets@claims.example" {
		t.Fatalf("from: want default sender got=%v", from["email"])
	}
	p := got["personalizations"].([]any)[0].(map[string]any)
	args, ok := p["custom_args"].(map[string]any)
	if !ok || args["artifact_id"] != "a1" {
		t.Fatalf("custom_args: got=%v", p)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "a@b.example"}},
		Subject: "s",
		Text:    "t",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid to address"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "bad"}},
		Subject: "s",
		Text:    "t",
	})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		t.Fatalf("Send: want HTTPError 400 got=%v", err)
	}
	if he.Error() != "sendgrid http 400: invalid to address" {
		t.Fatalf("error message: got=%q", he.Error())
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestSendRequiresContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	}))
	defer srv.Close()
	_, err := newTestClient(t, srv, 0).Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "a@b.example"}},
		Subject: "s",
	})
	if err == nil {
		t.Fatalf("Send: expected error for empty body")
	}
}
