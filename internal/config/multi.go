package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const appName = "panelfetch"

var ErrNoConfig = errors.New("no config selected")

func ConfigRoot() string {
	if dir := os.Getenv("PANELFETCH_HOME"); dir != "" {
		return dir
	}

	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ConfigPathByLabel(label string) string {
	return filepath.Join(ConfigsDir(), label+".yaml")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	if label == "" {
		return "", ErrNoConfig
	}

	return ConfigPathByLabel(label), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if _, err := os.Stat(ConfigPathByLabel(label)); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// InitDefaultConfig writes Default.yaml and makes it active. An existing
// file is kept and os.ErrExist returned.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	defPath := ConfigPathByLabel("Default")

	if _, err := os.Stat(defPath); err == nil {
		_ = os.WriteFile(CurrentLabelFile(), []byte("Default"), 0644)
		return defPath, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), defPath); err != nil {
		return "", err
	}

	if err := os.WriteFile(CurrentLabelFile(), []byte("Default"), 0644); err != nil {
		return "", err
	}

	return defPath, nil
}

// AddConfig saves cfg under a new label. Existing labels are not replaced.
func AddConfig(label string, cfg *Config) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) {
		return "", fmt.Errorf("invalid label %q", label)
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := ConfigPathByLabel(label)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := SaveYAML(cfg, path); err != nil {
		return "", err
	}

	return path, nil
}

// RemoveConfig deletes a config. Removing the active one falls back to
// Default.
func RemoveConfig(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if label == "Default" {
		return errors.New("cannot remove the Default config")
	}

	path := ConfigPathByLabel(label)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if _, err := os.Stat(ConfigPathByLabel("Default")); err == nil {
			if err := SwitchConfig("Default"); err != nil {
				return fmt.Errorf("failed switching to Default: %w", err)
			}
		} else if err := os.Remove(CurrentLabelFile()); err != nil {
			return err
		}
	}

	return os.Remove(path)
}
