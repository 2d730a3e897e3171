package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
)

// MirrorEnabled reports whether pictures are copied to Supabase storage.
func (s *StorageService) MirrorEnabled() bool {
	return s.sbClient != nil
}

// Upload copies a persisted picture to the Supabase bucket and returns its
// public URL. Without a configured bucket it is a no-op.
func (s *StorageService) Upload(ctx context.Context, buffer *bytes.Buffer, filename, contentType string) (string, error) {
	if !s.MirrorEnabled() {
		return "", nil
	}

	key := generateStorageKey(filename)

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(buffer.Bytes()))
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

// Delete removes a mirrored picture from the Supabase bucket.
func (s *StorageService) Delete(ctx context.Context, filename string) error {
	if !s.MirrorEnabled() {
		return nil
	}
	_, err := s.sbClient.RemoveFile(s.bucket, []string{generateStorageKey(filename)})
	if err != nil {
		return fmt.Errorf("failed to delete from supabase: %w", err)
	}
	return nil
}

// picture filenames are unique within the store, so the key is derived
// from the filename alone and Delete can find it again
func generateStorageKey(filename string) string {
	return path.Join(mirrorKeyPrefix, path.Base(filename))
}
