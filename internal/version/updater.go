package version

import (
	"archive/tar"
	"archive/zip"
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

// downloadURLFormat builds release asset URLs: repo, tag, asset name.
const downloadURLFormat = "https://github.com/%s/releases/download/%s/%s"

// checksumsAsset is the checksum manifest goreleaser publishes with each
// release.
const checksumsAsset = "checksums.txt"

// errAssetMissing marks a 404 from the release download endpoint.
var errAssetMissing = errors.New("release asset not found")

// Updater fetches a release archive, verifies it against the release
// checksums, and swaps the running binary for the new one.
type Updater struct {
	HTTPClient *http.Client
	Repo       string
	// BaseURL is the asset endpoint format with %s verbs for repo, tag,
	// and asset name. Empty means the GitHub release download URL.
	BaseURL string
}

// NewUpdater creates an updater for the dotup repository.
func NewUpdater() *Updater {
	return &Updater{
		HTTPClient: http.DefaultClient,
		Repo:       GitHubRepo,
	}
}

// ArchiveName returns the release asset name for the current platform,
// following the goreleaser naming scheme (dotup_1.2.3_Darwin_arm64.tar.gz).
func ArchiveName(tag string) string {
	osNames := map[string]string{"darwin": "Darwin", "linux": "Linux", "windows": "Windows"}
	archNames := map[string]string{"amd64": "x86_64", "386": "i386"}

	osName := runtime.GOOS
	if mapped, ok := osNames[osName]; ok {
		osName = mapped
	}
	archName := runtime.GOARCH
	if mapped, ok := archNames[archName]; ok {
		archName = mapped
	}

	ext := "tar.gz"
	if runtime.GOOS == "windows" {
		ext = "zip"
	}

	return fmt.Sprintf("dotup_%s_%s_%s.%s", strings.TrimPrefix(tag, "v"), osName, archName, ext)
}

// assetURL returns the download URL for one asset of a release.
func (u *Updater) assetURL(tag, asset string) string {
	format := u.BaseURL
	if format == "" {
		format = downloadURLFormat
	}
	return fmt.Sprintf(format, u.Repo, tag, asset)
}

// get fetches one release asset into memory. A 404 is reported as
// errAssetMissing so callers can treat optional assets as absent.
func (u *Updater) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errAssetMissing, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download of %s failed with status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Fetch downloads the platform archive for the given release tag into
// destDir and verifies it against the release's checksum manifest. A
// release without a manifest is accepted unverified; a manifest that
// disagrees with the download is an error.
func (u *Updater) Fetch(ctx context.Context, tag, destDir string) (string, error) {
	asset := ArchiveName(tag)

	data, err := u.get(ctx, u.assetURL(tag, asset))
	if err != nil {
		return "", err
	}

	if err := u.verify(ctx, tag, asset, data); err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, asset)
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return destPath, nil
}

// verify checks the archive bytes against the release checksum manifest.
func (u *Updater) verify(ctx context.Context, tag, asset string, data []byte) error {
	manifest, err := u.get(ctx, u.assetURL(tag, checksumsAsset))
	if errors.Is(err, errAssetMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	want, ok := parseChecksums(manifest)[asset]
	if !ok {
		return fmt.Errorf("%s is not listed in %s", asset, checksumsAsset)
	}

	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", asset, got, want)
	}
	return nil
}

// parseChecksums reads a goreleaser checksum manifest: one
// "<sha256>  <asset>" pair per line.
func parseChecksums(data []byte) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			sums[fields[1]] = fields[0]
		}
	}
	return sums
}

// ExtractBinary pulls the dotup binary out of a release archive and
// returns its path.
func ExtractBinary(archivePath, destDir string) (string, error) {
	if strings.HasSuffix(archivePath, ".zip") {
		return binaryFromZip(archivePath, destDir)
	}
	return binaryFromTarGz(archivePath, destDir)
}

// isReleaseBinary reports whether an archive entry is the dotup binary.
func isReleaseBinary(name string) bool {
	base := filepath.Base(name)
	return base == "dotup" || base == "dotup.exe"
}

// writeBinary writes an extracted binary with executable permissions.
func writeBinary(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func binaryFromTarGz(archivePath, destDir string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return "", err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg || !isReleaseBinary(header.Name) {
			continue
		}

		path := filepath.Join(destDir, filepath.Base(header.Name))
		if err := writeBinary(path, tr); err != nil {
			return "", err
		}
		return path, nil
	}

	return "", fmt.Errorf("dotup binary not found in %s", filepath.Base(archivePath))
}

func binaryFromZip(archivePath, destDir string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isReleaseBinary(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		path := filepath.Join(destDir, filepath.Base(f.Name))
		err = writeBinary(path, rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return path, nil
	}

	return "", fmt.Errorf("dotup binary not found in %s", filepath.Base(archivePath))
}

// Install replaces installPath with the binary at binaryPath. The new
// binary is written beside the target and swapped in with a rename, so a
// failed write never leaves a half-replaced executable.
func Install(binaryPath, installPath string) error {
	src, err := os.Open(binaryPath)
	if err != nil {
		return fmt.Errorf("failed to read binary: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(installPath), ".dotup-install-*")
	if err != nil {
		return fmt.Errorf("failed to stage binary (may need sudo): %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage binary: %w", err)
	}
	if err := tmp.Chmod(0755); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), installPath); err != nil {
		return fmt.Errorf("failed to install binary (may need sudo): %w", err)
	}
	return nil
}

// CurrentExecutable returns the resolved path of the running dotup binary.
func CurrentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
