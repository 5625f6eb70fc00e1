package ports

import (
	"context"
	"io"
	"time"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

// ShareLinkRepository defines storage operations for share links
type ShareLinkRepository interface {
	Insert(ctx context.Context, link *domain.ShareLink) error // domain.ErrDuplicateToken on token collision
	GetByToken(ctx context.Context, token string) (*domain.ShareLink, error)
	GetByID(ctx context.Context, id string) (*domain.ShareLink, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.ShareLink, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// IncrementDownload atomically bumps the download counter and the last
	// access time, but only while the link is still redeemable at now. When
	// the guard fails the current record is returned with domain.ErrNotRedeemable.
	IncrementDownload(ctx context.Context, id string, now time.Time) (*domain.ShareLink, error)

	CountByFilePath(ctx context.Context, filePath string) (int64, error)
	Dump(ctx context.Context) ([]domain.ShareLink, error) // For migration
}

// BlobStore is the path-addressed byte store holding shared files
type BlobStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, r io.Reader) (int64, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// StorageAuthorizer decides whether owner may share filePath
type StorageAuthorizer interface {
	Authorize(ctx context.Context, owner, filePath string) error
}

// TokenGenerator produces unguessable URL-safe share tokens
type TokenGenerator interface {
	Generate() (string, error)
}

// PasswordHasher hashes and verifies link passwords
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(raw, hash string) bool
}

// CreateLinkInput carries the owner's request for a new link
type CreateLinkInput struct {
	FilePath     string
	FileName     string
	FileSize     int64
	ExpiresIn    *time.Duration
	Password     *string
	MaxDownloads *int
}

// ShareService defines the business logic operations
type ShareService interface {
	CreateLink(ctx context.Context, owner string, in CreateLinkInput) (*domain.ShareLink, error)
	ListLinks(ctx context.Context, owner string) ([]domain.ShareLink, error)
	DeactivateLink(ctx context.Context, owner, id string) error
	DeleteLink(ctx context.Context, owner, id string) error

	// Public
	GetPublicInfo(ctx context.Context, token string) (*domain.SharedFileInfo, error)
	DownloadFile(ctx context.Context, token string, password *string) (*domain.Download, error)
}
