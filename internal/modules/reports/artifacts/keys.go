package artifacts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewVersion returns a sortable object version for t.
func NewVersion(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// ObjectKey is where one version of an artifact's binary lives. Every
// regeneration writes a new version, so a key is never overwritten.
func ObjectKey(orgID, claimID, artifactID uuid.UUID, version, ext string) string {
	return fmt.Sprintf("%s%s.%s", ObjectPrefix(orgID, claimID, artifactID), version, ext)
}

// ObjectPrefix holds every version of an artifact's binaries.
func ObjectPrefix(orgID, claimID, artifactID uuid.UUID) string {
	return fmt.Sprintf("orgs/%s/claims/%s/artifacts/%s/", orgID, claimID, artifactID)
}
