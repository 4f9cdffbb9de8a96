package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RawDocument is the top-level shape of the raw result file: run metadata,
// the standardized profile and the untouched provider output.
type RawDocument struct {
	Metadata RawMetadata         `json:"metadata"`
	Profile  StandardizedProfile `json:"profile"`
	RawData  any                 `json:"raw_data"`
}

// RawMetadata describes the run that produced a raw artifact.
type RawMetadata struct {
	ExtractedAt   time.Time `json:"extracted_at"`
	Platform      string    `json:"platform"`
	Username      string    `json:"username"`
	MatchKeyword  string    `json:"match_keyword,omitempty"`
	MatchDateTime string    `json:"match_datetime,omitempty"`
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// SaveResult writes the raw result document and the profile-data.json for
// one scrape run. rawPath is the timestamp-keyed raw file; profileDir is the
// run's profile subdirectory.
func SaveResult(rawPath, profileDir string, doc RawDocument) error {
	if err := WriteJSON(rawPath, doc); err != nil {
		return err
	}
	if err := WriteJSON(ProfileDataPath(profileDir), doc.Profile); err != nil {
		return err
	}
	return nil
}

// ReadProfileData loads profile-data.json as a generic map, the shape the
// webhook payload carries in rawResult. A missing file returns (nil, nil).
func ReadProfileData(profileDir string) (map[string]any, error) {
	data, err := os.ReadFile(ProfileDataPath(profileDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile data: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile data: %w", err)
	}
	return raw, nil
}
