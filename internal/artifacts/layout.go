// Package artifacts owns the on-disk layout and normalization of scrape
// results: per-run directories, raw result files, profile-data.json and the
// downloaded profile image.
package artifacts

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// timestampLayout matches the ISO-8601 form used in raw artifact filenames.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// RunDir returns the per-run directory keyed by user, platform, provider
// display name and calendar date.
func RunDir(dataDir string, userID int64, platform, provider string, day time.Time) string {
	return filepath.Join(
		dataDir,
		strconv.FormatInt(userID, 10),
		platform,
		provider,
		day.UTC().Format("2006-01-02"),
	)
}

// ProfileDir returns the profile subdirectory of a run directory.
func ProfileDir(runDir string) string {
	return filepath.Join(runDir, "profile")
}

// RawFilename returns the timestamp-keyed raw result filename for a run.
func RawFilename(platform string, ts time.Time) string {
	return fmt.Sprintf("raw-%s-%s.json", platform, ts.UTC().Format(timestampLayout))
}

// ProfileDataPath returns the normalized profile artifact inside profileDir.
func ProfileDataPath(profileDir string) string {
	return filepath.Join(profileDir, "profile-data.json")
}
