package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-video-orchestrator/internal/domain"
)

// DefaultMaxUploadBytes is 2 GiB.
const DefaultMaxUploadBytes int64 = 2 << 30

var allowedVideoExt = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".wmv": true,
	".flv": true, ".webm": true, ".mkv": true,
}

// ValidateUploadFile checks path before any network call and returns its size.
// All failures wrap domain.ErrValidation.
func ValidateUploadFile(path string, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("%w: file path is required", domain.ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedVideoExt[ext] {
		return 0, fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, ext)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", domain.ErrValidation, path)
	}
	if fi.Size() > maxBytes {
		return 0, fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrValidation, fi.Size(), maxBytes)
	}
	return fi.Size(), nil
}
