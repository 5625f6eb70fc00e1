package client

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wadjakorntonsri/labelshare/pkg/adapters/handler"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage/local"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/core/password"
	"github.com/wadjakorntonsri/labelshare/pkg/core/services"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

const secret = "client-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{JWTSecret: secret, BaseURL: "https://share.example.com"}
	logger := logging.NewLogger(logging.LevelError, io.Discard)

	repo, err := sqlite.NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	store, err := local.NewStore(t.TempDir())
	require.NoError(t, err)

	svc := services.NewShareService(repo, store, services.NewOwnerScope(store),
		services.ShareServiceConfig{BaseURL: cfg.BaseURL},
		services.WithPasswordHasher(password.NewBcryptHasher(bcrypt.MinCost)),
		services.WithLogger(logger),
	)
	srv := httptest.NewServer(handler.NewRouter(cfg, logger, svc, store))
	t.Cleanup(srv.Close)
	return srv
}

func tokenFor(t *testing.T, owner string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	alice := New(srv.URL, WithToken(tokenFor(t, "alice")))
	public := New(srv.URL)

	up, err := alice.Upload(ctx, "albums/cover art.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "alice/albums/cover art.png", up.FilePath)
	assert.Equal(t, int64(7), up.FileSize)

	link, err := alice.CreateLink(ctx, CreateLinkRequest{
		FilePath:     up.FilePath,
		FileName:     up.FileName,
		FileSize:     up.FileSize,
		Password:     lo.ToPtr("secret123"),
		MaxDownloads: lo.ToPtr(1),
	})
	require.NoError(t, err)
	assert.True(t, link.RequiresPassword)

	links, err := alice.ListLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{link.Token}, lo.Map(links, func(l domain.ShareLink, _ int) string { return l.Token }))

	info, err := public.GetPublicInfo(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "cover art.png", info.Name)

	_, err = public.Download(ctx, link.Token, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	file, err := public.Download(ctx, link.Token, lo.ToPtr("secret123"))
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(file.Data))
	assert.Equal(t, "cover art.png", file.Name)
	assert.Equal(t, "image/png", file.ContentType)

	_, err = public.Download(ctx, link.Token, lo.ToPtr("secret123"))
	assert.ErrorIs(t, err, domain.ErrDownloadLimitReached)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 410, apiErr.Status)

	require.NoError(t, alice.DeactivateLink(ctx, link.ID))
	require.NoError(t, alice.DeleteLink(ctx, link.ID))
	_, err = public.GetPublicInfo(ctx, link.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := New(srv.URL).ListLinks(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	bob := New(srv.URL, WithToken(tokenFor(t, "bob")))
	_, err = bob.CreateLink(ctx, CreateLinkRequest{FilePath: "alice/x.txt", FileName: "x.txt"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = bob.DeleteLink(ctx, "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
}
