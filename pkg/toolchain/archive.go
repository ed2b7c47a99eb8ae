package toolchain

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/ormasoftchile/mobup/pkg/fetch"
)

// fetchArchive downloads an archive into <root>/downloads and unpacks
// it into dest with the top-level directory stripped. A non-empty sha
// pins the archive digest. The archive is removed after a successful
// unpack; a failed attempt leaves debris the next attempt overwrites.
func (rt *Runtime) fetchArchive(ctx context.Context, step, rawURL, filename, dest, sha string) error {
	archive := filepath.Join(rt.Paths.Root, "downloads", filename)
	log := rt.Log.StepEntry(step)

	if rt.DryRun {
		log.Infof("dry-run: would download %s into %s", rawURL, dest)
		return nil
	}

	log.Infof("downloading %s", rawURL)
	if err := fetch.Download(ctx, rawURL, archive, sha, downloadProgress(log)); err != nil {
		return fmt.Errorf("download %s: %w", filename, err)
	}
	log.Infof("unpacking into %s", dest)
	if err := fetch.Unpack(ctx, archive, dest, true); err != nil {
		return fmt.Errorf("unpack %s: %w", filename, err)
	}
	if err := os.Remove(archive); err != nil {
		log.Warnf("keep archive: %v", err)
	}
	return nil
}

// downloadProgress logs transfer milestones at roughly each quarter.
func downloadProgress(log interface{ Debugf(string, ...interface{}) }) fetch.Progress {
	var lastQuarter int64 = -1
	return func(done, total int64) {
		if total <= 0 {
			return
		}
		quarter := done * 4 / total
		if quarter > lastQuarter {
			lastQuarter = quarter
			log.Debugf("downloaded %d%% (%d of %d bytes)", done*100/total, done, total)
		}
	}
}

// archiveBase extracts the filename from a download URL.
func archiveBase(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "", fmt.Errorf("no filename in url %s", rawURL)
	}
	return base, nil
}
