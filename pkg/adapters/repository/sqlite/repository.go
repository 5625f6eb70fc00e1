package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// A single connection serializes writers on local SQLite; shared-cache
	// memory databases return SQLITE_LOCKED instead of waiting otherwise.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// NewSQLiteRepositoryFromDB wraps an already opened handle without migrating.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	// Timestamps are unix nanoseconds so expiry can be compared numerically
	// inside the conditional increment.
	query := `
	CREATE TABLE IF NOT EXISTS share_links (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		token TEXT NOT NULL UNIQUE,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER,
		password_hash TEXT,
		max_downloads INTEGER,
		download_count INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_accessed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_share_links_created_by ON share_links(created_by);
	CREATE INDEX IF NOT EXISTS idx_share_links_file_path ON share_links(file_path);
	`
	_, err := db.Exec(query)
	return err
}

const selectColumns = `SELECT id, file_path, file_name, file_size, token, created_by, created_at,
	expires_at, password_hash, max_downloads, download_count, is_active, last_accessed_at
	FROM share_links`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.ShareLink, error) {
	var (
		link           domain.ShareLink
		createdAt      int64
		expiresAt      sql.NullInt64
		passwordHash   sql.NullString
		maxDownloads   sql.NullInt64
		lastAccessedAt sql.NullInt64
	)

	err := row.Scan(
		&link.ID, &link.FilePath, &link.FileName, &link.FileSize, &link.Token, &link.CreatedBy,
		&createdAt, &expiresAt, &passwordHash, &maxDownloads, &link.DownloadCount,
		&link.IsActive, &lastAccessedAt,
	)
	if err != nil {
		return nil, err
	}

	link.CreatedAt = fromNanos(createdAt)
	if expiresAt.Valid {
		t := fromNanos(expiresAt.Int64)
		link.ExpiresAt = &t
	}
	if passwordHash.Valid {
		h := passwordHash.String
		link.PasswordHash = &h
	}
	if maxDownloads.Valid {
		m := int(maxDownloads.Int64)
		link.MaxDownloads = &m
	}
	if lastAccessedAt.Valid {
		t := fromNanos(lastAccessedAt.Int64)
		link.LastAccessedAt = &t
	}
	return &link, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, link *domain.ShareLink) error {
	query := `INSERT INTO share_links (id, file_path, file_name, file_size, token, created_by, created_at,
			  expires_at, password_hash, max_downloads, download_count, is_active, last_accessed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.FilePath, link.FileName, link.FileSize, link.Token, link.CreatedBy,
		link.CreatedAt.UnixNano(), nullTime(link.ExpiresAt), nullString(link.PasswordHash),
		nullInt(link.MaxDownloads), link.DownloadCount, link.IsActive, nullTime(link.LastAccessedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "share_links.token") {
			return domain.ErrDuplicateToken
		}
		return fmt.Errorf("failed to insert share link: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, selectColumns+` WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query share link by token: %w", err)
	}
	return link, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.ShareLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query share link %s: %w", id, err)
	}
	return link, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]domain.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE created_by = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.ShareLink{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE share_links SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *SQLiteRepository) IncrementDownload(ctx context.Context, id string, now time.Time) (*domain.ShareLink, error) {
	// Single conditional statement: the redeemable predicate and the
	// increment are evaluated together, so concurrent callers cannot both
	// take the last slot.
	query := `UPDATE share_links
			  SET download_count = download_count + 1, last_accessed_at = ?
			  WHERE id = ?
			    AND is_active = 1
			    AND (max_downloads IS NULL OR download_count < max_downloads)
			    AND (expires_at IS NULL OR expires_at > ?)`

	ts := now.UnixNano()
	res, err := r.db.ExecContext(ctx, query, ts, id, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to increment downloads for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	link, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return link, domain.ErrNotRedeemable
	}
	return link, nil
}

func (r *SQLiteRepository) CountByFilePath(ctx context.Context, filePath string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM share_links WHERE file_path = ?`, filePath).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ShareLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Both modernc and libsql report constraint failures as
// "UNIQUE constraint failed: <table>.<column>".
func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Ensure interface compliance
var _ ports.ShareLinkRepository = (*SQLiteRepository)(nil)
