// Package fetch downloads and unpacks toolchain archives. Downloads stage
// through a .part file and extraction through a .extract directory, so an
// interrupted or failed attempt never leaves partial content at a final
// name and the next attempt simply overwrites the debris.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Progress receives byte counts as a transfer advances. total is -1 when
// the server does not announce a content length.
type Progress func(done, total int64)

// Download fetches url into dest. The body streams into dest.part which is
// renamed over dest only after a complete read, replacing any previous
// file. A non-empty sha256hex is verified before the rename; on mismatch
// the staged file is removed and an error returned.
func Download(ctx context.Context, url, dest, sha256hex string, progress Progress) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("stage download %s: %w", part, err)
	}

	hash := sha256.New()
	src := io.Reader(resp.Body)
	if progress != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}
	_, copyErr := io.Copy(io.MultiWriter(f, hash), src)
	closeErr := f.Close()
	if copyErr != nil {
		// The .part file stays behind; the next attempt truncates it.
		return fmt.Errorf("download %s: %w", url, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("finish %s: %w", part, closeErr)
	}

	if sha256hex != "" {
		got := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(got, sha256hex) {
			os.Remove(part)
			return fmt.Errorf("download %s: sha256 mismatch: got %s, want %s", url, got, sha256hex)
		}
	}

	if err := os.Rename(part, dest); err != nil {
		return fmt.Errorf("finalize %s: %w", dest, err)
	}
	return nil
}

type progressReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.fn(p.done, p.total)
	}
	return n, err
}

// CleanupPartials removes staged .part files and .extract directories left
// under dir by an interrupted run. Final artifacts are never touched.
func CleanupPartials(dir string) error {
	var firstErr error
	for _, pattern := range []string{"*.part", "*.extract"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("scan %s for %s: %w", dir, pattern, err)
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", m, err)
			}
		}
	}
	return firstErr
}
