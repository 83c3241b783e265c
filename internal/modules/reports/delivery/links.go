package delivery

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/platform/pointers"
)

const DefaultCustomLinkTTL = 30 * 24 * time.Hour

// LinkBuilder mints share-link tokens. Only Digest(token) is stored; the
// token itself exists in the sent email alone.
type LinkBuilder struct {
	baseURL   string
	customTTL time.Duration
}

func NewLinkBuilder(baseURL string, customTTL time.Duration) *LinkBuilder {
	if customTTL <= 0 {
		customTTL = DefaultCustomLinkTTL
	}
	return &LinkBuilder{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), customTTL: customTTL}
}

func (b *LinkBuilder) NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func Digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (b *LinkBuilder) URL(token string) string {
	return b.baseURL + "/share/packets/" + token
}

// ExpiresAt is nil for adjuster and homeowner links, which never expire.
func (b *LinkBuilder) ExpiresAt(recipientType string, now time.Time) *time.Time {
	if recipientType != domreports.RecipientCustom {
		return nil
	}
	return pointers.Time(now.Add(b.customTTL))
}
