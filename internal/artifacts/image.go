package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var imageExtPattern = regexp.MustCompile(`(?i)^\.(jpe?g|png|gif|webp)$`)

// ImagePath derives the local profile picture path from the profile
// directory, the username and the remote URL's extension. Unrecognized or
// missing extensions fall back to .jpg.
func ImagePath(profileDir, username, picURL string) (string, error) {
	u, err := url.Parse(picURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	ext := path.Ext(u.Path)
	if !imageExtPattern.MatchString(ext) {
		ext = ".jpg"
	}
	return filepath.Join(profileDir, "profile-pic-"+username+ext), nil
}

// DownloadResource fetches a remote resource and writes it to savePath.
func DownloadResource(ctx context.Context, client *http.Client, rawURL, savePath string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download resource: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download resource: status %d for %s", resp.StatusCode, rawURL)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o750); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}
	file, err := os.OpenFile(savePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return fmt.Errorf("write image file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close image file: %w", err)
	}
	return nil
}

// IsImageURL reports whether the value looks like a usable http(s) URL.
func IsImageURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
