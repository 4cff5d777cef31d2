package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every fixed value the release pipeline uses.
type Config struct {
	// BackupFolder is the local directory where source tarballs are archived.
	// It must already exist; the pipeline never creates it.
	BackupFolder string `yaml:"backup_folder"`
	// RemoteHost is the user@host identity for secure-copy transfers.
	RemoteHost string `yaml:"remote_host"`
	// RemoteDistFolder is the remote path serving public distribution files.
	RemoteDistFolder string `yaml:"remote_dist_folder"`
	// RemoteBackupFolder is the remote path receiving backup tarballs.
	RemoteBackupFolder string `yaml:"remote_backup_folder"`
	// VersionFile is the release descriptor path, relative to the project root.
	VersionFile string `yaml:"version_file"`
	// ArchiveCommand builds the timestamped source tarball(s) in the project root.
	ArchiveCommand []string `yaml:"archive_command"`
	// DistCommand populates the dist subdirectory with installable files.
	DistCommand []string `yaml:"dist_command"`
	// RegisterCommand publishes release metadata to the package index.
	RegisterCommand []string `yaml:"register_command"`
	// UploadCommand is the secure-copy client; sources and target are appended per step.
	UploadCommand []string `yaml:"upload_command"`
}

const (
	// DefaultConfigFilename is the default filename for pipeline settings.
	DefaultConfigFilename = "shipper-settings.yaml"

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRemoteHostRequired is returned when the remote host is missing.
	errRemoteHostRequired = errors.New("remote host must be provided")
	// errBackupFolderRequired is returned when the backup folder is missing.
	errBackupFolderRequired = errors.New("backup folder must be provided")
	// errRemoteFoldersRequired is returned when a remote target path is missing.
	errRemoteFoldersRequired = errors.New("remote dist and backup folders must be provided")
	// errCommandRequired is returned when an external command vector is empty.
	errCommandRequired = errors.New("external command must not be empty")
)

// Default returns the hard-coded pipeline configuration.
func Default() *Config {
	return &Config{
		BackupFolder:       "~/shipper/backup",
		RemoteHost:         "release@dist.example.org",
		RemoteDistFolder:   "/var/www/dist",
		RemoteBackupFolder: "backup",
		VersionFile:        "version.cfg",
		ArchiveCommand:     []string{"make", "archive"},
		DistCommand:        []string{"make", "dist"},
		RegisterCommand:    []string{"make", "register"},
		UploadCommand:      []string{"scp"},
	}
}

// Load returns the defaults overlaid with the YAML file at path, validated and
// with the backup folder's home shorthand expanded. A missing file is only an
// error when the operator named it explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	expanded, err := ExpandHome(cfg.BackupFolder)
	if err != nil {
		return nil, fmt.Errorf("expand backup folder: %w", err)
	}

	cfg.BackupFolder = expanded

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BackupFolder == "" {
		return errBackupFolderRequired
	}

	if cfg.RemoteHost == "" {
		return errRemoteHostRequired
	}

	if cfg.RemoteDistFolder == "" || cfg.RemoteBackupFolder == "" {
		return errRemoteFoldersRequired
	}

	if cfg.VersionFile == "" {
		return errors.New("version file must be provided")
	}

	for name, command := range map[string][]string{
		"archive":  cfg.ArchiveCommand,
		"dist":     cfg.DistCommand,
		"register": cfg.RegisterCommand,
		"upload":   cfg.UploadCommand,
	} {
		if len(command) == 0 || command[0] == "" {
			return fmt.Errorf("%s: %w", name, errCommandRequired)
		}
	}

	return nil
}

// ExpandHome resolves a leading "~/" against the operator's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
