package policy

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		link   domain.ShareLink
		reason error
	}{
		{
			name: "unrestricted",
			link: domain.ShareLink{IsActive: true},
		},
		{
			name: "expires in the future",
			link: domain.ShareLink{IsActive: true, ExpiresAt: lo.ToPtr(now.Add(time.Nanosecond))},
		},
		{
			name:   "expires exactly now",
			link:   domain.ShareLink{IsActive: true, ExpiresAt: lo.ToPtr(now)},
			reason: domain.ErrLinkExpired,
		},
		{
			name:   "expired yesterday",
			link:   domain.ShareLink{IsActive: true, ExpiresAt: lo.ToPtr(now.Add(-24 * time.Hour))},
			reason: domain.ErrLinkExpired,
		},
		{
			name: "one slot left",
			link: domain.ShareLink{IsActive: true, MaxDownloads: lo.ToPtr(3), DownloadCount: 2},
		},
		{
			name:   "at limit",
			link:   domain.ShareLink{IsActive: true, MaxDownloads: lo.ToPtr(3), DownloadCount: 3},
			reason: domain.ErrDownloadLimitReached,
		},
		{
			name:   "deactivated",
			link:   domain.ShareLink{IsActive: false},
			reason: domain.ErrLinkDeactivated,
		},
		{
			name: "deactivated beats expired and limit",
			link: domain.ShareLink{
				IsActive:      false,
				ExpiresAt:     lo.ToPtr(now.Add(-time.Hour)),
				MaxDownloads:  lo.ToPtr(1),
				DownloadCount: 1,
			},
			reason: domain.ErrLinkDeactivated,
		},
		{
			name: "expired beats limit",
			link: domain.ShareLink{
				IsActive:      true,
				ExpiresAt:     lo.ToPtr(now.Add(-time.Hour)),
				MaxDownloads:  lo.ToPtr(1),
				DownloadCount: 1,
			},
			reason: domain.ErrLinkExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Evaluate(&tt.link, now)
			second := Evaluate(&tt.link, now)
			assert.Equal(t, first, second)

			assert.Equal(t, tt.reason == nil, first.Redeemable)
			assert.Equal(t, tt.reason, first.Reason)
		})
	}
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "link_deactivated", ReasonCode(domain.ErrLinkDeactivated))
	assert.Equal(t, "link_expired", ReasonCode(domain.ErrLinkExpired))
	assert.Equal(t, "download_limit_reached", ReasonCode(domain.ErrDownloadLimitReached))
	assert.Equal(t, "", ReasonCode(nil))
}
