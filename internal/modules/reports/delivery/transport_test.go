package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
	"github.com/yungbote/claimpacket-backend/internal/platform/sendgrid"
)

func TestSendGridTransportSendsAttachments(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := sendgrid.New(logger.Nop(), sendgrid.Config{
		APIKey:           "SG.test",
		BaseURL:          srv.URL,
		DefaultFromEmail: "packets@claims.example",
		HTTPClient:       srv.Client(),
	})
	require.NoError(t, err)

	pdf := []byte("%PDF-1.4")
	id, err := NewSendGridTransport(client, "Summit Roofing").Send(context.Background(), Message{
		To:          "adjuster@carrier.test",
		CC:          []string{"office@summit.test"},
		Subject:     "Claim packet",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Filename: "packet.pdf", ContentType: "application/pdf", Content: pdf}},
		Tags:        map[string]string{"artifact_id": "a1"},
	})
	require.NoError(t, err)
	require.Equal(t, "msg-1", id)

	atts, ok := got["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, atts, 1)
	att := atts[0].(map[string]any)
	require.Equal(t, "packet.pdf", att["filename"])
	require.Equal(t, "application/pdf", att["type"])
	require.Equal(t, "attachment", att["disposition"])
	require.Equal(t, base64.StdEncoding.EncodeToString(pdf), att["content"])

	p := got["personalizations"].([]any)[0].(map[string]any)
	require.Len(t, p["cc"], 1)
}
