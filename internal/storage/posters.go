package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/band-manager/internal/config"
)

// ErrTooLarge is returned for uploads above StorageConfig.MaxUploadBytes.
var ErrTooLarge = errors.New("poster exceeds upload limit")

// PosterStore normalises poster uploads and keeps them in an ObjectStore.
// References handed out are public URLs when PublicBaseURL is set and bare
// object keys otherwise.
type PosterStore struct {
	objects ObjectStore
	cfg     config.StorageConfig
	newID   func() string
}

func NewPosterStore(objects ObjectStore, cfg config.StorageConfig) *PosterStore {
	return &PosterStore{objects: objects, cfg: cfg, newID: func() string { return uuid.NewString() }}
}

// Save stores a normalised copy of data for the show and returns its
// reference.
func (p *PosterStore) Save(ctx context.Context, showID uint64, data []byte) (string, error) {
	if p.cfg.MaxUploadBytes > 0 && int64(len(data)) > p.cfg.MaxUploadBytes {
		return "", ErrTooLarge
	}
	img, err := NormalizePoster(data, p.cfg.MaxDimension, p.cfg.Quality)
	if err != nil {
		return "", err
	}
	key := p.key(fmt.Sprintf("%d/%s.webp", showID, p.newID()))
	if err := p.objects.Put(ctx, key, img, "image/webp"); err != nil {
		return "", err
	}
	return p.ref(key), nil
}

// Remove deletes the object behind ref.  References that were not issued
// by this store are left alone and reported as false.
func (p *PosterStore) Remove(ctx context.Context, ref string) (bool, error) {
	key, ok := p.keyOf(ref)
	if !ok {
		return false, nil
	}
	return true, p.objects.Delete(ctx, key)
}

func (p *PosterStore) key(name string) string {
	prefix := strings.Trim(p.cfg.KeyPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (p *PosterStore) ref(key string) string {
	base := strings.TrimRight(p.cfg.PublicBaseURL, "/")
	if base == "" {
		return key
	}
	return base + "/" + key
}

func (p *PosterStore) keyOf(ref string) (string, bool) {
	key := ref
	if base := strings.TrimRight(p.cfg.PublicBaseURL, "/"); base != "" {
		var ok bool
		if key, ok = strings.CutPrefix(ref, base+"/"); !ok {
			return "", false
		}
	}
	if !strings.HasPrefix(key, p.key("")) || !strings.HasSuffix(key, ".webp") {
		return "", false
	}
	return key, true
}
