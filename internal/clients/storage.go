package clients

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageClient keeps export workbooks on local disk. Files are served by main under PublicPrefix.
type StorageClient struct {
	BaseDir      string
	PublicPrefix string
	BaseURL      string // optional scheme+host used to build absolute links
}

func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure storage dir %q: %w", baseDir, err)
	}

	return &StorageClient{
		BaseDir:      baseDir,
		PublicPrefix: normalizePrefix(publicPrefix),
		BaseURL:      strings.TrimRight(baseURL, "/"),
	}, nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		p = "files"
	}
	return "/" + p
}

// Save writes data under a collision-free name "<uuid>_<base name>" and returns that name.
func (s *StorageClient) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	stored := uuid.NewString() + "_" + filepath.Base(fileName)
	path := filepath.Join(s.BaseDir, stored)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", stored, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize %s: %w", stored, err)
	}
	return stored, nil
}

// GetURL is absolute when BaseURL is set and relative to the host otherwise.
func (s *StorageClient) GetURL(fileName string) string {
	return s.BaseURL + normalizePrefix(s.PublicPrefix) + "/" + fileName
}

// Put saves data and returns the URL it is served from.
func (s *StorageClient) Put(ctx context.Context, fileName string, data []byte) (string, error) {
	stored, err := s.Save(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return s.GetURL(stored), nil
}

// Path resolves a stored file name inside BaseDir. Names containing path separators are rejected.
func (s *StorageClient) Path(fileName string) (string, bool) {
	if fileName == "" || fileName == "." || fileName == ".." || fileName != filepath.Base(fileName) {
		return "", false
	}
	return filepath.Join(s.BaseDir, fileName), true
}

// DownloadName strips the uuid prefix added by Save.
func DownloadName(stored string) string {
	if _, name, ok := strings.Cut(stored, "_"); ok {
		return name
	}
	return stored
}

// CleanupOlderThan removes files whose modification time is older than maxAge.
func (s *StorageClient) CleanupOlderThan(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	return filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil || de.IsDir() {
			return err
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(path)
		}
		return nil
	})
}
