package fetch

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Unpack extracts archive into dest, replacing anything already there.
// When stripTop is set the archive's single top-level directory is dropped
// so dest itself becomes the component root (jdk-17.0.x/bin/java lands at
// dest/bin/java). Extraction happens in a dest.extract staging directory
// renamed over dest only after the full archive is written.
func Unpack(ctx context.Context, archive, dest string, stripTop bool) error {
	staging := dest + ".extract"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging %s: %w", staging, err)
	}
	defer os.RemoveAll(staging)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging %s: %w", staging, err)
	}

	var err error
	switch {
	case strings.HasSuffix(archive, ".zip"):
		err = unzip(ctx, archive, staging, stripTop)
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		err = untarCompressed(ctx, archive, staging, stripTop, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(archive, ".tar.xz"):
		err = untarCompressed(ctx, archive, staging, stripTop, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(bufio.NewReader(r))
		})
	default:
		return fmt.Errorf("unpack %s: unsupported archive format", archive)
	}
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return fmt.Errorf("move %s into place: %w", staging, err)
	}
	return nil
}

func unzip(ctx context.Context, archive, dest string, stripTop bool) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entryName(f.Name, stripTop)
		if name == "" {
			continue
		}
		target, err := secureJoin(dest, name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode(f.Mode())); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		if err := writeEntry(target, f.Mode(), func(w io.Writer) error {
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(w, rc)
			return err
		}); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func untarCompressed(ctx context.Context, archive, dest string, stripTop bool, wrap func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer f.Close()

	decompressed, err := wrap(f)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", archive, err)
	}
	if c, ok := decompressed.(io.Closer); ok {
		defer c.Close()
	}

	tr := tar.NewReader(decompressed)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", archive, err)
		}
		name := entryName(hdr.Name, stripTop)
		if name == "" {
			continue
		}
		target, err := secureJoin(dest, name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(hdr.FileInfo().Mode())); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, hdr.FileInfo().Mode(), func(w io.Writer) error {
				_, err := io.Copy(w, tr)
				return err
			}); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("extract %s: absolute symlink target %q", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			// Hard links and specials do not appear in toolchain archives.
		}
	}
}

// entryName normalizes an archive member path, optionally dropping the
// single top-level directory. Empty means skip the entry.
func entryName(name string, stripTop bool) string {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if name == "." || name == "/" {
		return ""
	}
	if stripTop {
		_, rest, found := strings.Cut(name, "/")
		if !found {
			return ""
		}
		name = rest
	}
	return name
}

// secureJoin resolves an archive member path under dest and rejects
// entries that would escape it.
func secureJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != filepath.Clean(dest) && !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, mode os.FileMode, fill func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(mode))
	if err != nil {
		return err
	}
	if err := fill(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// fileMode keeps executable bits from the archive, with a sane floor for
// archives produced without permissions.
func fileMode(m os.FileMode) os.FileMode {
	perm := m.Perm()
	if perm == 0 {
		perm = 0o644
	}
	return perm | 0o600
}

func dirMode(m os.FileMode) os.FileMode {
	perm := m.Perm()
	if perm == 0 {
		perm = 0o755
	}
	return perm | 0o700
}
