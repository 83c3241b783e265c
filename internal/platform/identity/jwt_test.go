package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTResolverRoundTrip(t *testing.T) {
	r, err := NewJWTResolver(JWTConfig{Secret: "s3cret", Issuer: "claimpacket", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewJWTResolver: %v", err)
	}
	userID, orgID := uuid.New(), uuid.New()
	tok, err := r.Issue(userID, orgID, "pm@contractor.example", "Pat")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rd, err := r.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rd.UserID != userID || rd.OrgID != orgID {
		t.Fatalf("Resolve: want user=%s org=%s got user=%s org=%s", userID, orgID, rd.UserID, rd.OrgID)
	}
	if rd.Name != "Pat" {
		t.Fatalf("name: want=%q got=%q", "Pat", rd.Name)
	}
}

func TestJWTResolverRejectsForeignSecret(t *testing.T) {
	a, _ := NewJWTResolver(JWTConfig{Secret: "a", Issuer: "claimpacket"})
	b, _ := NewJWTResolver(JWTConfig{Secret: "b", Issuer: "claimpacket"})
	tok, err := a.Issue(uuid.New(), uuid.New(), "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Resolve(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Resolve: want ErrInvalidToken got=%v", err)
	}
}

func TestJWTResolverRejectsMissingOrg(t *testing.T) {
	r, _ := NewJWTResolver(JWTConfig{Secret: "a", Issuer: "claimpacket"})
	tok, err := r.Issue(uuid.New(), uuid.Nil, "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := r.Resolve(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Resolve: want ErrInvalidToken got=%v", err)
	}
	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Resolve empty: want ErrMissingToken got=%v", err)
	}
}
