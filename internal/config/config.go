// Package config loads the optional global settings for the llvm-installer
// tool from ~/.config/llvm-installer/config.yaml and the YB_LLVM_*
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	llvminstaller "github.com/yugabyte/llvm-installer"
)

// Config holds the user-tunable settings. Every field has a working
// default, so a missing config file is not an error.
type Config struct {
	// DownloadBaseURL points at the release download root for the LLVM
	// packages.
	DownloadBaseURL string `yaml:"download_base_url"`
	// PackageNamePrefix and PackageNameSuffix bracket the release tag in
	// artifact file names.
	PackageNamePrefix string `yaml:"package_name_prefix"`
	PackageNameSuffix string `yaml:"package_name_suffix"`
	// InstallRoot is the default destination directory for installs.
	InstallRoot string `yaml:"install_root"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DownloadBaseURL:   llvminstaller.DefaultDownloadBaseURL,
		PackageNamePrefix: llvminstaller.DefaultPackageNamePrefix,
		PackageNameSuffix: llvminstaller.DefaultPackageNameSuffix,
		InstallRoot:       defaultInstallRoot(),
	}
}

// Load reads the config file if present and applies environment overrides.
// A missing file yields the defaults; a malformed file is an error.
func Load() (*Config, error) {
	return load(configPath())
}

func load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- fixed path under the user's home
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("YB_LLVM_DOWNLOAD_BASE_URL"); v != "" {
		cfg.DownloadBaseURL = v
	}
	if v := os.Getenv("YB_LLVM_PACKAGE_NAME_PREFIX"); v != "" {
		cfg.PackageNamePrefix = v
	}
	if v := os.Getenv("YB_LLVM_PACKAGE_NAME_SUFFIX"); v != "" {
		cfg.PackageNameSuffix = v
	}
	if v := os.Getenv("YB_LLVM_INSTALL_ROOT"); v != "" {
		cfg.InstallRoot = v
	}
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "llvm-installer", "config.yaml")
}

func defaultInstallRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".yb-llvm"
	}
	return filepath.Join(home, ".yb-llvm")
}
