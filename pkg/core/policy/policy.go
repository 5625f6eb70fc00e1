// Package policy decides whether a share link may be redeemed.
package policy

import (
	"time"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

// Decision is the outcome of Evaluate. Reason is nil when Redeemable.
type Decision struct {
	Redeemable bool
	Reason     error
}

// Evaluate checks link against now. Reasons are reported in a fixed order:
// deactivated, expired, download limit reached. Only the first applies.
// A link whose expiry equals now is expired.
func Evaluate(link *domain.ShareLink, now time.Time) Decision {
	switch {
	case !link.IsActive:
		return Decision{Reason: domain.ErrLinkDeactivated}
	case link.ExpiresAt != nil && !link.ExpiresAt.After(now):
		return Decision{Reason: domain.ErrLinkExpired}
	case link.MaxDownloads != nil && link.DownloadCount >= *link.MaxDownloads:
		return Decision{Reason: domain.ErrDownloadLimitReached}
	}
	return Decision{Redeemable: true}
}

// ReasonCode maps a policy reason to its stable machine-readable code.
func ReasonCode(reason error) string {
	switch reason {
	case domain.ErrLinkDeactivated:
		return "link_deactivated"
	case domain.ErrLinkExpired:
		return "link_expired"
	case domain.ErrDownloadLimitReached:
		return "download_limit_reached"
	}
	return ""
}
