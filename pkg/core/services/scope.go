package services

import (
	"context"
	"path"
	"strings"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

// OwnerScope lets an owner share only files stored under "<owner>/".
type OwnerScope struct {
	blobs ports.BlobStore
}

func NewOwnerScope(blobs ports.BlobStore) *OwnerScope {
	return &OwnerScope{blobs: blobs}
}

func (o *OwnerScope) Authorize(ctx context.Context, owner, filePath string) error {
	if !InScope(owner, filePath) {
		return domain.ErrForbidden
	}

	exists, err := o.blobs.Exists(ctx, filePath)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewValidationError("filePath", "file does not exist")
	}
	return nil
}

// InScope reports whether filePath is a clean relative path inside the
// owner's directory.
func InScope(owner, filePath string) bool {
	if owner == "" || filePath == "" || strings.HasPrefix(filePath, "/") {
		return false
	}
	if path.Clean(filePath) != filePath {
		return false
	}
	for _, part := range strings.Split(filePath, "/") {
		if part == ".." {
			return false
		}
	}
	return strings.HasPrefix(filePath, owner+"/") && len(filePath) > len(owner)+1
}

var _ ports.StorageAuthorizer = (*OwnerScope)(nil)
