package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const ProfilesFileName = ".reportassistantcfg"

// Profile is one named backend deployment from the profiles file.
type Profile struct {
	Name       string
	APIBase    string
	ReportBase string
	Token      string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// DefaultProfilesPath is $HOME/.reportassistantcfg.
func DefaultProfilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home directory: %w", err)
	}
	return filepath.Join(home, ProfilesFileName), nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found: %w", name, err)
	}

	profile := &Profile{
		Name:       name,
		APIBase:    section.Key("api_base").String(),
		ReportBase: section.Key("report_base").String(),
		Token:      section.Key("token").String(),
	}
	if profile.APIBase == "" {
		return nil, fmt.Errorf("profile %s has no api_base", name)
	}
	return profile, nil
}
