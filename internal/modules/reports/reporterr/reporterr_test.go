package reporterr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/claimpacket-backend/internal/platform/apierr"
)

func TestToAPIMapsTaxonomy(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NotFound("artifact", id), http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("get: %w", NotFound("claim", id)), http.StatusNotFound, "not_found"},
		{"validation", Invalid("to_address", "is required"), http.StatusBadRequest, "validation_failed"},
		{"template", &TemplateNotFoundError{TemplateID: "x"}, http.StatusNotFound, "template_not_found"},
		{"render", &RenderError{SectionKey: "photos", Err: errors.New("bad markup")}, http.StatusInternalServerError, "render_failed"},
		{"upload", &UploadError{Bucket: "report", Key: "k", Err: errors.New("503")}, http.StatusBadGateway, "upload_failed"},
		{"transport", &TransportError{Recipient: "adjuster", Err: errors.New("down")}, http.StatusBadGateway, "transport_failed"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"apierr passthrough", apierr.New(http.StatusConflict, "conflict", nil), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToAPI(tc.err)
			require.NotNil(t, got)
			require.Equal(t, tc.status, got.Status)
			require.Equal(t, tc.code, got.Code)
		})
	}
	require.Nil(t, ToAPI(nil))
}

func TestToAPIKeepsRetryContext(t *testing.T) {
	id := uuid.New()
	got := ToAPI(NotFound("artifact", id))
	require.Equal(t, id.String(), got.Details["id"])

	got = ToAPI(&RenderError{SectionKey: "weather", Timeout: true, Err: context.DeadlineExceeded})
	require.Equal(t, "weather", got.Details["section_key"])
	require.Equal(t, "true", got.Details["timeout"])

	got = ToAPI(&TransportError{Recipient: "homeowner", Err: errors.New("x")})
	require.Equal(t, "homeowner", got.Details["recipient"])
}

func TestRenderErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("generate: %w", &RenderError{Timeout: true, Err: context.DeadlineExceeded})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	require.True(t, re.Timeout)
	require.Equal(t, "render_failed", Code(err))
}
