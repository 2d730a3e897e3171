package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phambaophuc/shape-crop/internal/models"
)

var ErrInvalidFilename = errors.New("invalid picture filename")

// PictureStore writes pictures into a single directory. A picture only
// appears under its final name once all of its bytes are on disk.
type PictureStore struct {
	dir    string
	prefix string
	now    func() time.Time

	// serialises final-name reservation so concurrent saves in the same
	// millisecond do not overwrite each other
	mu sync.Mutex
}

func NewPictureStore(dir, prefix string) (*PictureStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, &IOError{Op: "create directory", Path: abs, Err: err}
	}

	return &PictureStore{
		dir:    abs,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

func (s *PictureStore) Dir() string {
	return s.dir
}

// Save persists data as <prefix><unix millis><ext>.
func (s *PictureStore) Save(ctx context.Context, data []byte, ext string) (*models.StoredPicture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, &IOError{Op: "create directory", Path: s.dir, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+s.prefix+"*.tmp")
	if err != nil {
		return nil, &IOError{Op: "create temp file in", Path: s.dir, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, &IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return nil, &IOError{Op: "chmod", Path: tmpPath, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	filename, err := s.reserveName(createdAt, ext)
	if err != nil {
		return nil, err
	}
	finalPath := filepath.Join(s.dir, filename)

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, &IOError{Op: "rename", Path: finalPath, Err: err}
	}
	committed = true

	return &models.StoredPicture{
		Filename:  filename,
		Path:      finalPath,
		Size:      int64(len(data)),
		CreatedAt: createdAt,
	}, nil
}

func (s *PictureStore) reserveName(t time.Time, ext string) (string, error) {
	base := fmt.Sprintf("%s%d", s.prefix, t.UnixMilli())
	for i := 0; i < 1000; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		_, err := os.Stat(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", &IOError{Op: "stat", Path: name, Err: err}
		}
	}
	return "", &IOError{Op: "reserve name", Path: base, Err: fs.ErrExist}
}

// Resolve maps a bare filename to its absolute path inside the store.
func (s *PictureStore) Resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	if !strings.HasPrefix(filename, s.prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Exists reports whether path is a picture inside the store.
func (s *PictureStore) Exists(path string) bool {
	if filepath.Dir(path) != s.dir {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes one picture by filename. A missing picture is reported
// as an IOError wrapping fs.ErrNotExist.
func (s *PictureStore) Remove(filename string) error {
	path, err := s.Resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// List returns the pictures on disk, newest first. It is the fallback
// when the media index is unavailable.
func (s *PictureStore) List(limit int) ([]models.MediaEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: s.dir, Err: err}
	}

	var media []models.MediaEntry
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, s.prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		media = append(media, models.MediaEntry{
			Filename:   name,
			Path:       filepath.Join(s.dir, name),
			MimeType:   mimeFromExt(filepath.Ext(name)),
			FileSize:   info.Size(),
			CapturedAt: info.ModTime(),
		})
	}

	sort.Slice(media, func(i, j int) bool {
		if media[i].CapturedAt.Equal(media[j].CapturedAt) {
			return media[i].Filename > media[j].Filename
		}
		return media[i].CapturedAt.After(media[j].CapturedAt)
	})

	if limit > 0 && len(media) > limit {
		media = media[:limit]
	}
	return media, nil
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
