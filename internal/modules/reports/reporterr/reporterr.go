// Package reporterr is the error taxonomy shared by every report pipeline
// stage. Each kind is a struct so callers can errors.As it and recover the
// identifiers needed to retry.
package reporterr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/claimpacket-backend/internal/platform/apierr"
)

// NotFoundError is returned for both absent and cross-tenant entities. The
// two cases are indistinguishable to callers.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity string, id fmt.Stringer) *NotFoundError {
	s := ""
	if id != nil {
		s = id.String()
	}
	return &NotFoundError{Entity: entity, ID: s}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type TemplateNotFoundError struct {
	TemplateID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %s not found", e.TemplateID)
}

type RenderError struct {
	SectionKey string
	Timeout    bool
	Err        error
}

func (e *RenderError) Error() string {
	switch {
	case e.Timeout:
		return "render timed out"
	case e.SectionKey != "":
		return fmt.Sprintf("render section %q: %v", e.SectionKey, e.Err)
	default:
		return fmt.Sprintf("render: %v", e.Err)
	}
}

func (e *RenderError) Unwrap() error { return e.Err }

type UploadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type TransportError struct {
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s recipient: %v", e.Recipient, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PartialDataWarning marks an optional sub-record that was absent while
// building a report context. It is data, never an error.
type PartialDataWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Code is the machine code ToAPI would assign to err.
func Code(err error) string {
	if ae := ToAPI(err); ae != nil {
		return ae.Code
	}
	return ""
}

// ToAPI maps a pipeline error onto an HTTP-facing apierr.Error. An
// *apierr.Error already in the chain wins.
func ToAPI(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}

	var (
		nf  *NotFoundError
		ve  *ValidationError
		tnf *TemplateNotFoundError
		re  *RenderError
		ue  *UploadError
		te  *TransportError
	)
	switch {
	case errors.As(err, &nf):
		return apierr.New(http.StatusNotFound, "not_found", err).
			WithDetail("entity", nf.Entity).
			WithDetail("id", nf.ID)
	case errors.As(err, &ve):
		return apierr.New(http.StatusBadRequest, "validation_failed", err).
			WithDetail("field", ve.Field)
	case errors.As(err, &tnf):
		return apierr.New(http.StatusNotFound, "template_not_found", err).
			WithDetail("template_id", tnf.TemplateID)
	case errors.As(err, &re):
		out := apierr.New(http.StatusInternalServerError, "render_failed", err).
			WithDetail("section_key", re.SectionKey)
		if re.Timeout {
			out.WithDetail("timeout", "true")
		}
		return out
	case errors.As(err, &ue):
		return apierr.New(http.StatusBadGateway, "upload_failed", err).
			WithDetail("key", ue.Key)
	case errors.As(err, &te):
		return apierr.New(http.StatusBadGateway, "transport_failed", err).
			WithDetail("recipient", te.Recipient)
	default:
		return apierr.New(http.StatusInternalServerError, "internal", err)
	}
}
