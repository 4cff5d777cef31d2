package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/shipper/internal/config"
	"github.com/oshokin/shipper/internal/runner"
	"github.com/oshokin/shipper/internal/service/release"
)

// writeStub creates an executable shell script in dir and returns its path.
func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}

// newCheckout creates a releasable project root.
func newCheckout(t *testing.T, version string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "version.cfg"), []byte("version = \""+version+"\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Makefile"), []byte("all:\n"), 0o600))

	return root
}

// TestRelease_EndToEnd drives the whole pipeline with real stub executables
// and verifies artifacts and upload invocations.
func TestRelease_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub executables are POSIX shell scripts")
	}

	var (
		root      = newCheckout(t, "3.4.0")
		binFolder = t.TempDir()
		backup    = t.TempDir()
		uploadLog = filepath.Join(t.TempDir(), "uploads.log")
	)

	archive := writeStub(t, binFolder, "archive.sh", `echo tgz > proj-snapshot.tar.gz`)
	dist := writeStub(t, binFolder, "dist.sh", `mkdir -p dist && echo whl > dist/proj-3.4.0.whl`)
	register := writeStub(t, binFolder, "register.sh", `exit 0`)
	upload := writeStub(t, binFolder, "upload.sh", `echo "$@" >> `+uploadLog)

	cfg := config.Default()
	cfg.BackupFolder = backup
	cfg.RemoteHost = "release@host"
	cfg.ArchiveCommand = []string{archive}
	cfg.DistCommand = []string{dist}
	cfg.RegisterCommand = []string{register}
	cfg.UploadCommand = []string{upload}

	settingsPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(settingsPath, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := release.Run(ctx, &release.Options{
		ConfigPath:  settingsPath,
		ProjectRoot: root,
	})
	require.NoError(t, err)

	// The tarball was relocated into the backup folder.
	_, err = os.Stat(filepath.Join(backup, "proj-snapshot.tar.gz"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "proj-snapshot.tar.gz"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// Two uploads: dist contents to the public path, newest backup to the backup path.
	contents, err := os.ReadFile(uploadLog)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "proj-3.4.0.whl release@host:/var/www/dist", lines[0])
	require.Equal(t, "proj-snapshot.tar.gz release@host:backup", lines[1])
}

// TestRelease_RegistrationFailure verifies that a failing registration halts
// the run with its own exit code and no upload happens.
func TestRelease_RegistrationFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub executables are POSIX shell scripts")
	}

	var (
		root      = newCheckout(t, "3.4.0")
		binFolder = t.TempDir()
		uploadLog = filepath.Join(t.TempDir(), "uploads.log")
	)

	archive := writeStub(t, binFolder, "archive.sh", `echo tgz > proj-snapshot.tar.gz`)
	dist := writeStub(t, binFolder, "dist.sh", `mkdir -p dist && echo whl > dist/proj-3.4.0.whl`)
	register := writeStub(t, binFolder, "register.sh", `exit 9`)
	upload := writeStub(t, binFolder, "upload.sh", `echo "$@" >> `+uploadLog)

	cfg := config.Default()
	cfg.BackupFolder = t.TempDir()
	cfg.ArchiveCommand = []string{archive}
	cfg.DistCommand = []string{dist}
	cfg.RegisterCommand = []string{register}
	cfg.UploadCommand = []string{upload}

	settingsPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(settingsPath, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := release.Run(ctx, &release.Options{
		ConfigPath:  settingsPath,
		ProjectRoot: root,
	})
	require.Error(t, err)

	var cmdErr *runner.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 9, cmdErr.ExitCode)
	require.Equal(t, 9, release.ExitCode(err))

	// No upload was attempted after the failure.
	_, err = os.Stat(uploadLog)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRelease_MissingBackupFolder aborts before registration ever runs.
func TestRelease_MissingBackupFolder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub executables are POSIX shell scripts")
	}

	var (
		root        = newCheckout(t, "3.4.0")
		binFolder   = t.TempDir()
		registerLog = filepath.Join(t.TempDir(), "register.log")
	)

	archive := writeStub(t, binFolder, "archive.sh", `echo tgz > proj-snapshot.tar.gz`)
	dist := writeStub(t, binFolder, "dist.sh", `mkdir -p dist`)
	register := writeStub(t, binFolder, "register.sh", `echo ran >> `+registerLog)
	upload := writeStub(t, binFolder, "upload.sh", `exit 0`)

	cfg := config.Default()
	cfg.BackupFolder = filepath.Join(t.TempDir(), "absent")
	cfg.ArchiveCommand = []string{archive}
	cfg.DistCommand = []string{dist}
	cfg.RegisterCommand = []string{register}
	cfg.UploadCommand = []string{upload}

	settingsPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(settingsPath, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := release.Run(ctx, &release.Options{
		ConfigPath:  settingsPath,
		ProjectRoot: root,
	})
	require.ErrorIs(t, err, release.ErrBackup)

	// Registration never ran.
	_, err = os.Stat(registerLog)
	require.ErrorIs(t, err, os.ErrNotExist)
}
