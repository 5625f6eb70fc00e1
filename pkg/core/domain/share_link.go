package domain

import "time"

// ShareLink is an expiring, optionally password-protected, download-limited
// public link to a privately stored file.
type ShareLink struct {
	ID             string     `json:"id"`
	FilePath       string     `json:"filePath"`
	FileName       string     `json:"fileName"`
	FileSize       int64      `json:"fileSize"`
	Token          string     `json:"token"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	PasswordHash   *string    `json:"-"`
	MaxDownloads   *int       `json:"maxDownloads,omitempty"`
	DownloadCount  int        `json:"downloadCount"`
	IsActive       bool       `json:"isActive"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`

	// Populated by the service, never persisted.
	RequiresPassword bool   `json:"requiresPassword"`
	URL              string `json:"url,omitempty"`
}

// HasPassword reports whether downloads must present a password.
func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// SharedFileInfo is the display-safe view of a link for anonymous visitors.
// It never carries the file path, the owner or the password hash.
type SharedFileInfo struct {
	Name             string     `json:"name"`
	Size             int64      `json:"size"`
	RequiresPassword bool       `json:"requiresPassword"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	MaxDownloads     *int       `json:"maxDownloads,omitempty"`
	DownloadCount    int        `json:"downloadCount"`
	IsActive         bool       `json:"isActive"`
	Redeemable       bool       `json:"redeemable"`
	Reason           string     `json:"reason,omitempty"`
}

// Download is the payload handed back for a successful redemption.
type Download struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}
