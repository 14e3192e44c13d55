package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"

	istorage "insproduce-backend/internal/storage"
)

// StorageClient keeps both artifact roots as prefixes inside one bucket.
type StorageClient struct {
	client *storage.Client
	bucket string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client: client,
		bucket: bucket,
	}, nil
}

// Put uploads with upsert. The object only becomes visible once the upload
// request completes.
func (s *StorageClient) Put(ctx context.Context, root, name string, r io.Reader) error {
	objectPath, err := s.objectPath(root, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	contentType := istorage.ContentType(name)
	upsert := true
	_, err = s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *StorageClient) Open(ctx context.Context, root, name string) (io.ReadCloser, error) {
	objectPath, err := s.objectPath(root, name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.client.DownloadFile(s.bucket, objectPath)
	if err != nil {
		var storageErr *storage.StorageError
		if errors.As(err, &storageErr) && strings.Contains(strings.ToLower(storageErr.Message), "not found") {
			return nil, fmt.Errorf("%w: %s", istorage.ErrNotFound, objectPath)
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *StorageClient) Delete(ctx context.Context, root, name string) error {
	objectPath, err := s.objectPath(root, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *StorageClient) objectPath(root, name string) (string, error) {
	if !istorage.ValidRoot(root) {
		return "", fmt.Errorf("%w: unknown root %q", istorage.ErrInvalidPath, root)
	}
	if err := istorage.ValidateName(name); err != nil {
		return "", err
	}
	return istorage.Ref(root, name), nil
}

var _ istorage.Store = (*StorageClient)(nil)
