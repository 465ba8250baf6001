package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/glasscut/internal/gcode"
)

// DefaultProfilesPath returns the default file path for custom cutting
// table profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// SaveCustomProfiles saves custom profiles to a JSON file.
func SaveCustomProfiles(path string, profiles []gcode.Profile) error {
	return writeJSON(path, profiles)
}

// LoadCustomProfiles loads custom profiles from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]gcode.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []gcode.Profile{}, nil
		}
		return nil, err
	}

	var profiles []gcode.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].IsBuiltIn = false
	}
	return profiles, nil
}

// ImportProfile imports a single profile from a JSON file.
func ImportProfile(path string) (gcode.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gcode.Profile{}, err
	}

	var profile gcode.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return gcode.Profile{}, err
	}

	profile.IsBuiltIn = false
	if profile.Name == "" {
		return gcode.Profile{}, errors.New("imported profile has no name")
	}
	return profile, nil
}

// ExportProfile exports a single profile to a JSON file (for sharing).
func ExportProfile(path string, profile gcode.Profile) error {
	return writeJSON(path, profile)
}
