package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/core/password"
	"github.com/wadjakorntonsri/labelshare/pkg/core/policy"
	"github.com/wadjakorntonsri/labelshare/pkg/core/token"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

const (
	maxTokenAttempts = 3
	maxFileNameLen   = 255
	maxFilePathLen   = 1024
	maxExpiresIn     = 100 * 365 * 24 * time.Hour
)

// ShareServiceConfig holds the values the service would otherwise read
// from the environment.
type ShareServiceConfig struct {
	BaseURL            string
	PurgeOrphanedFiles bool
}

type ShareService struct {
	repo      ports.ShareLinkRepository
	blobs     ports.BlobStore
	authz     ports.StorageAuthorizer
	tokens    ports.TokenGenerator
	passwords ports.PasswordHasher
	cfg       ShareServiceConfig
	now       func() time.Time
	logger    logging.Logger
}

type Option func(*ShareService)

func WithClock(now func() time.Time) Option {
	return func(s *ShareService) { s.now = now }
}

func WithTokenGenerator(g ports.TokenGenerator) Option {
	return func(s *ShareService) { s.tokens = g }
}

func WithPasswordHasher(h ports.PasswordHasher) Option {
	return func(s *ShareService) { s.passwords = h }
}

func WithLogger(l logging.Logger) Option {
	return func(s *ShareService) { s.logger = l }
}

func NewShareService(repo ports.ShareLinkRepository, blobs ports.BlobStore, authz ports.StorageAuthorizer, cfg ShareServiceConfig, opts ...Option) *ShareService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &ShareService{
		repo:      repo,
		blobs:     blobs,
		authz:     authz,
		tokens:    token.NewGenerator(),
		passwords: password.NewBcryptHasher(0),
		cfg:       cfg,
		now:       time.Now,
		logger:    logging.NewConsoleLogger(logging.LevelInformational),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.CopyWithPrefix("[share]")
	return s
}

func (s *ShareService) CreateLink(ctx context.Context, owner string, in ports.CreateLinkInput) (*domain.ShareLink, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	filePath := path.Clean(strings.TrimPrefix(in.FilePath, "/"))
	if err := s.authz.Authorize(ctx, owner, filePath); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := &domain.ShareLink{
		ID:           uuid.NewString(),
		FilePath:     filePath,
		FileName:     in.FileName,
		FileSize:     in.FileSize,
		CreatedBy:    owner,
		CreatedAt:    now,
		MaxDownloads: in.MaxDownloads,
		IsActive:     true,
	}
	if in.ExpiresIn != nil {
		expiresAt := now.Add(*in.ExpiresIn)
		link.ExpiresAt = &expiresAt
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		link.PasswordHash = &hash
	}

	if err := s.insertWithFreshToken(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("Share link %s created by %q for %q", link.ID, owner, link.FilePath)
	return s.present(link), nil
}

// insertWithFreshToken retries token generation on collision, never
// overwriting an existing link.
func (s *ShareService) insertWithFreshToken(ctx context.Context, link *domain.ShareLink) error {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		tok, err := s.tokens.Generate()
		if err != nil {
			return err
		}
		link.Token = tok

		err = s.repo.Insert(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateToken) {
			return err
		}
		s.logger.Warning("Share token collision on attempt %d", attempt)
	}
	return fmt.Errorf("%w: %d collisions in a row", domain.ErrTokenGeneration, maxTokenAttempts)
}

func validateCreate(in ports.CreateLinkInput) error {
	switch {
	case strings.TrimSpace(in.FilePath) == "":
		return domain.NewValidationError("filePath", "is required")
	case len(in.FilePath) > maxFilePathLen:
		return domain.NewValidationError("filePath", "is too long")
	case strings.TrimSpace(in.FileName) == "":
		return domain.NewValidationError("fileName", "is required")
	case utf8.RuneCountInString(in.FileName) > maxFileNameLen:
		return domain.NewValidationError("fileName", "is too long")
	case in.FileSize < 0:
		return domain.NewValidationError("fileSize", "must not be negative")
	case in.MaxDownloads != nil && *in.MaxDownloads <= 0:
		return domain.NewValidationError("maxDownloads", "must be a positive integer")
	case in.ExpiresIn != nil && (*in.ExpiresIn > maxExpiresIn || *in.ExpiresIn < -maxExpiresIn):
		return domain.NewValidationError("expiresIn", "is out of range")
	case in.Password != nil && len(*in.Password) > password.MaxLength:
		return domain.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", password.MaxLength))
	}
	return nil
}

func (s *ShareService) ListLinks(ctx context.Context, owner string) ([]domain.ShareLink, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	links, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range links {
		s.present(&links[i])
	}
	return links, nil
}

func (s *ShareService) DeactivateLink(ctx context.Context, owner, id string) error {
	if _, err := s.ownedLink(ctx, owner, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info("Share link %s deactivated by %q", id, owner)
	return nil
}

func (s *ShareService) DeleteLink(ctx context.Context, owner, id string) error {
	link, err := s.ownedLink(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Share link %s deleted by %q", id, owner)

	if s.cfg.PurgeOrphanedFiles {
		s.purgeIfOrphaned(ctx, link.FilePath)
	}
	return nil
}

// purgeIfOrphaned removes the bytes behind filePath once no link refers
// to them. Failures are logged only.
func (s *ShareService) purgeIfOrphaned(ctx context.Context, filePath string) {
	remaining, err := s.repo.CountByFilePath(ctx, filePath)
	if err != nil {
		s.logger.Warning("Failed to count links for %q: %s", filePath, err)
		return
	}
	if remaining > 0 {
		return
	}
	if err := s.blobs.Delete(ctx, filePath); err != nil && !errors.Is(err, domain.ErrObjectNotFound) {
		s.logger.Warning("Failed to purge orphaned file %q: %s", filePath, err)
		return
	}
	s.logger.Debug("Purged orphaned file %q", filePath)
}

func (s *ShareService) ownedLink(ctx context.Context, owner, id string) (*domain.ShareLink, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.CreatedBy != owner {
		return nil, domain.ErrForbidden
	}
	return link, nil
}

// GetPublicInfo is not gated by the policy so visitors can learn why a
// download is blocked.
func (s *ShareService) GetPublicInfo(ctx context.Context, tok string) (*domain.SharedFileInfo, error) {
	link, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	decision := policy.Evaluate(link, s.now())
	info := &domain.SharedFileInfo{
		Name:             link.FileName,
		Size:             link.FileSize,
		RequiresPassword: link.HasPassword(),
		ExpiresAt:        link.ExpiresAt,
		MaxDownloads:     link.MaxDownloads,
		DownloadCount:    link.DownloadCount,
		IsActive:         link.IsActive,
		Redeemable:       decision.Redeemable,
	}
	if decision.Reason != nil {
		info.Reason = decision.Reason.Error()
	}
	return info, nil
}

func (s *ShareService) DownloadFile(ctx context.Context, tok string, pw *string) (*domain.Download, error) {
	link, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	if decision := policy.Evaluate(link, s.now()); !decision.Redeemable {
		return nil, decision.Reason
	}

	if link.HasPassword() {
		if pw == nil || !s.passwords.Verify(*pw, *link.PasswordHash) {
			return nil, domain.ErrInvalidPassword
		}
	}

	data, err := s.blobs.Get(ctx, link.FilePath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("Failed to fetch %q for link %s: %s", link.FilePath, link.ID, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	// The bytes are in hand; only now is a slot consumed. Losing the race
	// for the last slot means this request is denied.
	current, err := s.repo.IncrementDownload(ctx, link.ID, s.now())
	if errors.Is(err, domain.ErrNotRedeemable) {
		if decision := policy.Evaluate(current, s.now()); decision.Reason != nil {
			return nil, decision.Reason
		}
		return nil, domain.ErrDownloadLimitReached
	}
	if err != nil {
		return nil, err
	}

	return &domain.Download{
		Name:        link.FileName,
		Size:        int64(len(data)),
		ContentType: contentType(link.FileName),
		Data:        data,
	}, nil
}

// present fills the fields derived at read time.
func (s *ShareService) present(link *domain.ShareLink) *domain.ShareLink {
	link.RequiresPassword = link.HasPassword()
	link.URL = s.cfg.BaseURL + "/shared/" + link.Token
	return link
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ ports.ShareService = (*ShareService)(nil)
