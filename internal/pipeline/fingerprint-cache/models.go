// internal/pipeline/fingerprint-cache/models.go
package fingerprintcache

import (
	"time"

	"compair/internal/models"
)

// Fingerprint is the deterministic cache key of a comparison request.
type Fingerprint string

// Entry is the persisted cache value.
type Entry struct {
	Fingerprint Fingerprint           `json:"fingerprint"`
	Category    models.Category       `json:"category"`
	Items       []string              `json:"items"`
	Result      models.ResultDocument `json:"result"`
	Grounded    bool                  `json:"grounded"`
	CreatedAt   time.Time             `json:"created_at"`
	ExpiresAt   time.Time             `json:"expires_at"`
}

// Hit is a successful lookup.
type Hit struct {
	Result   models.Comparable
	Grounded bool
	Created  time.Time
}
