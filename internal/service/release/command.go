package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/shipper/internal/config"
	"github.com/oshokin/shipper/internal/logger"
	"github.com/oshokin/shipper/internal/metadata"
	"github.com/oshokin/shipper/internal/runner"
)

// Options contains inputs for the release entry point.
type Options struct {
	// ConfigPath is an optional path to a YAML settings file overriding the
	// hard-coded defaults.
	ConfigPath string
	// ProjectRoot is the checkout to release. Defaults to the current directory.
	ProjectRoot string
}

// pipeline executes the release steps against a resolved project root.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type pipeline struct {
	// cfg holds the backup folder, remote targets and external command vectors.
	cfg *config.Config
	// run spawns the external commands.
	run runner.Runner
	// root is the absolute project root, set by resolveRoot.
	root string
	// release carries descriptor fields, set by loadMetadata.
	release *metadata.Release
}

var (
	// ErrEnvironment indicates the project root failed validation.
	ErrEnvironment = errors.New("project root validation failed")
	// ErrBackup indicates a backup folder operation failed.
	ErrBackup = errors.New("backup folder operation failed")

	// errPipelineRunning indicates another shipper process is already active.
	errPipelineRunning = errors.New("another release is running now")
	// errNoTarballs indicates the archive step produced no tarball to relocate.
	errNoTarballs = errors.New("no tarballs produced by the archive step")
	// errDistEmpty indicates the dist folder holds nothing to upload.
	errDistEmpty = errors.New("dist folder is empty")
)

// tarballPattern matches source archives produced by the archive step.
const tarballPattern = "*.tar.gz"

// Run executes the full release pipeline.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "shipper")

	if isAnotherInstanceRunning(ctx) {
		return errPipelineRunning
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	p := &pipeline{
		cfg:  cfg,
		run:  runner.NewExecRunner(),
		root: opts.ProjectRoot,
	}

	if err = p.Run(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Release complete")

	return nil
}

// ExitCode maps a pipeline error to the process exit code.
// A failed external command propagates its own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}

	return 1
}

// Run walks the steps in order, aborting on the first failure.
// Each step assumes the filesystem state left by the previous one.
func (p *pipeline) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"resolve project root", p.resolveRoot},
		{"load release metadata", p.loadMetadata},
		{"build source archive", p.buildArchive},
		{"relocate archive", p.relocateArchive},
		{"build distribution files", p.buildDist},
		{"register release", p.register},
		{"upload distribution files", p.uploadDist},
		{"upload backup", p.uploadBackup},
	}

	for _, step := range steps {
		logger.InfoKV(ctx, "Running step", "step", step.name)

		if err := step.fn(ctx); err != nil {
			logger.ErrorKV(ctx, "Step failed, aborting release", "step", step.name, "error", err)

			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

// resolveRoot absolutizes the project root and checks its structural markers:
// the release descriptor and a Makefile must both exist.
func (p *pipeline) resolveRoot(ctx context.Context) error {
	if p.root == "" {
		p.root = "."
	}

	root, err := filepath.Abs(p.root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	for _, marker := range []string{p.cfg.VersionFile, "Makefile"} {
		if _, err = os.Stat(filepath.Join(root, marker)); err != nil {
			return fmt.Errorf("%w: missing %s: %w", ErrEnvironment, marker, err)
		}
	}

	p.root = root

	logger.InfoKV(ctx, "Project root resolved", "root", p.root)

	return nil
}

// loadMetadata reads the release descriptor and shows the version to the operator.
func (p *pipeline) loadMetadata(ctx context.Context) error {
	release, err := metadata.Load(filepath.Join(p.root, p.cfg.VersionFile))
	if err != nil {
		return err
	}

	p.release = release

	logger.InfoKV(ctx, "Releasing version", "version", p.release.Version)

	return nil
}

// buildArchive invokes the external archive builder in the project root.
// It is expected to leave timestamped tarballs there.
func (p *pipeline) buildArchive(ctx context.Context) error {
	return p.runCommand(ctx, p.root, p.cfg.ArchiveCommand)
}

// relocateArchive moves the produced tarballs into the backup folder.
// The backup folder must already exist; it is never created here.
func (p *pipeline) relocateArchive(ctx context.Context) error {
	info, err := os.Stat(p.cfg.BackupFolder)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackup, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrBackup, p.cfg.BackupFolder)
	}

	tarballs, err := filepath.Glob(filepath.Join(p.root, tarballPattern))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackup, err)
	}

	if len(tarballs) == 0 {
		return fmt.Errorf("%w: %w", ErrBackup, errNoTarballs)
	}

	for _, tarball := range tarballs {
		target := filepath.Join(p.cfg.BackupFolder, filepath.Base(tarball))
		if err = os.Rename(tarball, target); err != nil {
			return fmt.Errorf("%w: %w", ErrBackup, err)
		}

		logger.InfoKV(ctx, "Archived tarball", "target", target)
	}

	return nil
}

// buildDist invokes the external distribution builder.
// Only the exit code is checked; the dist contents are inspected at upload time.
func (p *pipeline) buildDist(ctx context.Context) error {
	return p.runCommand(ctx, p.root, p.cfg.DistCommand)
}

// register publishes release metadata to the package index.
// Re-registration semantics are index-specific, so this is never retried.
func (p *pipeline) register(ctx context.Context) error {
	return p.runCommand(ctx, p.root, p.cfg.RegisterCommand)
}

// uploadDist securely copies every file in dist to the remote public path.
func (p *pipeline) uploadDist(ctx context.Context) error {
	distFolder := filepath.Join(p.root, "dist")

	entries, err := os.ReadDir(distFolder)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return errDistEmpty
	}

	logger.InfoKV(ctx, "Uploading distribution files",
		"count", len(files), "target", p.remoteTarget(p.cfg.RemoteDistFolder))

	command := append(append([]string{}, p.cfg.UploadCommand...), files...)
	command = append(command, p.remoteTarget(p.cfg.RemoteDistFolder))

	return p.runCommand(ctx, distFolder, command)
}

// uploadBackup securely copies only the newest backup tarball to the remote
// backup path.
func (p *pipeline) uploadBackup(ctx context.Context) error {
	newest, err := newestTarball(p.cfg.BackupFolder)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackup, err)
	}

	logger.InfoKV(ctx, "Uploading backup tarball",
		"file", newest, "target", p.remoteTarget(p.cfg.RemoteBackupFolder))

	command := append(append([]string{}, p.cfg.UploadCommand...),
		newest, p.remoteTarget(p.cfg.RemoteBackupFolder))

	return p.runCommand(ctx, p.cfg.BackupFolder, command)
}

// runCommand executes a configured command vector in dir.
func (p *pipeline) runCommand(ctx context.Context, dir string, command []string) error {
	return p.run.Run(ctx, dir, command[0], command[1:]...)
}

// remoteTarget renders a host:path secure-copy destination.
func (p *pipeline) remoteTarget(path string) string {
	return p.cfg.RemoteHost + ":" + path
}
