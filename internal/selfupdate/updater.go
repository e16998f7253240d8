package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
)

const (
	binaryName    = "cramble"
	checksumsFile = "checksums.txt"
)

type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string // empty means latest
}

// Update downloads the release archive for this platform, verifies it
// against the published checksums, and swaps the running binary for the
// new one. Progress messages are reported through the callback.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(string)) error {
	if input.CurrentVersion == "(devel)" {
		return ErrDevBuild
	}

	tag := input.TargetVersion
	if tag == "" {
		progress("Checking for the latest release...")
		result, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !result.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = result.LatestVersion
	}

	asset, err := releaseAsset()
	if err != nil {
		return err
	}

	progress(fmt.Sprintf("Downloading %s...", tag))
	archive, err := c.get(ctx, c.releaseURL(tag, asset))
	if err != nil {
		return fmt.Errorf("download %s: %w", asset, err)
	}

	progress("Verifying checksum...")
	if err := c.verifyArchive(ctx, tag, asset, archive); err != nil {
		return err
	}

	progress("Extracting the new binary...")
	binary, err := binaryFromArchive(archive, asset)
	if err != nil {
		return err
	}

	progress("Installing...")
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	sum := sha256.Sum256(binary)
	if err := swapBinary(binary, target, sum[:]); err != nil {
		return fmt.Errorf("install %s: %w", tag, err)
	}

	progress(fmt.Sprintf("Updated to %s.", tag))
	return nil
}

// releaseURL builds the download URL for one file of a tagged release.
func (c *Checker) releaseURL(tag, file string) string {
	base := strings.TrimRight(c.downloadBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s", base, c.owner, c.repo, tag, file)
}

// releaseAsset names the goreleaser artifact for this platform.
func releaseAsset() (string, error) {
	return releaseAssetFor(runtime.GOOS, runtime.GOARCH)
}

func releaseAssetFor(goos, goarch string) (string, error) {
	if goos == "darwin" {
		// macOS releases ship one universal binary.
		return "cramble_Darwin_all.tar.gz", nil
	}

	arch, ok := map[string]string{
		"amd64": "x86_64",
		"arm64": "arm64",
		"386":   "i386",
	}[goarch]
	if !ok {
		return "", fmt.Errorf("no release build for architecture %s", goarch)
	}

	switch goos {
	case "linux":
		return fmt.Sprintf("cramble_Linux_%s.tar.gz", arch), nil
	case "windows":
		return fmt.Sprintf("cramble_Windows_%s.zip", arch), nil
	}
	return "", fmt.Errorf("no release build for %s", goos)
}

func (c *Checker) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// verifyArchive downloads the release's checksum manifest and checks
// the archive against its entry.
func (c *Checker) verifyArchive(ctx context.Context, tag, asset string, archive []byte) error {
	manifest, err := c.get(ctx, c.releaseURL(tag, checksumsFile))
	if err != nil {
		return fmt.Errorf("download %s: %w", checksumsFile, err)
	}

	want, ok := parseChecksums(manifest)[asset]
	if !ok {
		return fmt.Errorf("%s has no entry for %s", checksumsFile, asset)
	}

	sum := sha256.Sum256(archive)
	if got := hex.EncodeToString(sum[:]); got != want {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

// parseChecksums reads a goreleaser checksum manifest: one "<hex>  <file>"
// pair per line. Lines that don't fit the shape are skipped.
func parseChecksums(manifest []byte) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(string(manifest), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) != 2 {
			continue
		}
		sums[fields[1]] = fields[0]
	}
	return sums
}

func binaryFromArchive(archive []byte, asset string) ([]byte, error) {
	if strings.HasSuffix(asset, ".zip") {
		return unpackZip(archive, binaryName+".exe")
	}
	return unpackTarGz(archive, binaryName)
}

func unpackTarGz(archive []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return io.ReadAll(tr)
		}
	}
	return nil, fmt.Errorf("binary %q not found in archive", name)
}

func unpackZip(archive []byte, name string) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range r.File {
		if filepath.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("binary %q not found in archive", name)
}

// swapBinary writes the new binary next to the target, verifies the
// write, then moves the old binary aside and renames the new one into
// place. The aside-then-rename dance keeps the swap atomic on the same
// filesystem and works on Windows, where the running image can't be
// renamed over directly.
func swapBinary(binary []byte, target string, wantSum []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	staging, err := os.MkdirTemp(filepath.Dir(target), ".cramble-update-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	incoming := filepath.Join(staging, binaryName+".new")
	if err := os.WriteFile(incoming, binary, 0o600); err != nil {
		return fmt.Errorf("write new binary: %w", err)
	}

	// Re-read and compare before the swap: if the staged file doesn't
	// hash to what we extracted, something interfered with the write.
	written, err := os.ReadFile(incoming)
	if err != nil {
		return fmt.Errorf("re-read new binary: %w", err)
	}
	sum := sha256.Sum256(written)
	if !bytes.Equal(sum[:], wantSum) {
		return fmt.Errorf("%w: staged binary does not match extracted binary", ErrChecksum)
	}

	aside := target + ".old"
	_ = os.Remove(aside)
	if err := os.Rename(target, aside); err != nil {
		return fmt.Errorf("move current binary aside: %w", err)
	}
	if err := os.Rename(incoming, target); err != nil {
		// Put the old binary back so the install stays usable.
		_ = os.Rename(aside, target)
		return fmt.Errorf("install new binary: %w", err)
	}
	if err := os.Chmod(target, info.Mode()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	// Best effort: Windows keeps the running image locked, so the old
	// binary may linger until the next update.
	_ = os.Remove(aside)
	return nil
}
