package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/report"
	"insproduce-backend/internal/storage"
)

var allowedPhotoExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// StorageService names and stores inspection artifacts.
type StorageService struct {
	store storage.Store
	log   *logger.Logger
	opts  options
}

func NewStorageService(store storage.Store, log *logger.Logger, opts ...Option) *StorageService {
	return &StorageService{
		store: store,
		log:   log.With("component", "StorageService"),
		opts:  buildOptions(opts),
	}
}

// SavePhoto stores an uploaded image as "<unix-ms>-<random>-<name>" and
// returns its reference. Two uploads never share an object, even with the same
// filename in the same millisecond.
func (s *StorageService) SavePhoto(ctx context.Context, filename string, r io.Reader) (string, error) {
	safe := storage.SafeName(filename)
	if !allowedPhotoExt[strings.ToLower(path.Ext(safe))] {
		return "", apierr.Validation("unsupported photo type %q (allowed: jpeg, jpg, png, webp)", filename)
	}
	name := fmt.Sprintf("%d-%s-%s", s.opts.now().UnixMilli(), uuid.NewString()[:8], safe)
	if err := s.store.Put(ctx, storage.RootUploads, name, r); err != nil {
		s.log.Error("photo upload failed", "op", "save_photo", "name", name, "error", err)
		return "", apierr.Internal("failed to store photo", err)
	}
	return storage.Ref(storage.RootUploads, name), nil
}

// DiscardPhotos removes uploads that were stored for a request that then
// failed. Failures are only logged.
func (s *StorageService) DiscardPhotos(ctx context.Context, refs []string) {
	for _, ref := range refs {
		root, name, err := storage.SplitRef(ref)
		if err == nil {
			err = s.store.Delete(ctx, root, name)
		}
		if err != nil {
			s.log.Warn("orphan photo left in storage", "op", "discard_photo", "ref", ref, "error", err)
			continue
		}
		s.log.Info("orphan photo removed", "op", "discard_photo", "ref", ref)
	}
}

// PhotoRef validates a reference to an already stored upload.
func (s *StorageService) PhotoRef(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	root, name, err := storage.SplitRef(ref)
	if err != nil || root != storage.RootUploads {
		return "", apierr.Validation("invalid photo reference %q", ref)
	}
	return storage.Ref(root, name), nil
}

// SaveReport stores a rendered PDF and returns its reference.
func (s *StorageService) SaveReport(ctx context.Context, name string, data []byte) (string, error) {
	if err := s.store.Put(ctx, storage.RootReports, name, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return storage.Ref(storage.RootReports, name), nil
}

// LoadPhotos reads every photo in order. Read failures are kept on the
// returned entry so the report can show them.
func (s *StorageService) LoadPhotos(ctx context.Context, photos []models.InspectionPhoto) []report.Photo {
	out := make([]report.Photo, 0, len(photos))
	for _, p := range photos {
		item := report.Photo{Name: report.FileName(p.URL)}
		if p.Label != nil {
			item.Label = *p.Label
		}
		item.Data, item.Err = s.read(ctx, p.URL)
		if item.Err != nil {
			s.log.Warn("photo unavailable for report", "inspection_id", p.InspectionID, "ref", p.URL, "error", item.Err)
		}
		out = append(out, item)
	}
	return out
}

// Open streams a stored artifact.
func (s *StorageService) Open(ctx context.Context, root, name string) (io.ReadCloser, error) {
	return s.store.Open(ctx, root, name)
}

func (s *StorageService) read(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return nil, errors.New("remote photo references are not fetched")
	}
	root, name, err := storage.SplitRef(ref)
	if err != nil {
		return nil, err
	}
	rc, err := s.store.Open(ctx, root, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
