package mirror

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "reposcope/internal/platform/errors"
)

// unpack downloads the zipball to a temp file, extracts it next to dest, and
// renames into place, so a crash mid-extract never leaves dest half-written
func (m *Mirror) unpack(ctx context.Context, dest, owner, repo, branch string) error {
	body, err := m.dl.DownloadArchive(ctx, owner, repo, branch)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror mkdir failed")
	}

	// zip needs random access, so spool the body to disk first
	zf, err := os.CreateTemp(filepath.Dir(dest), "."+repo+"-*.zip")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror temp file failed")
	}
	defer func() {
		_ = zf.Close()
		_ = os.Remove(zf.Name())
	}()
	size, err := io.Copy(zf, body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "mirror download interrupted")
	}

	zr, err := zip.NewReader(zf, size)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror archive unreadable")
	}

	tmp, err := os.MkdirTemp(filepath.Dir(dest), "."+repo+"-extract-*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror temp dir failed")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	for _, f := range zr.File {
		if err := extractOne(tmp, f); err != nil {
			return err
		}
	}

	// hosted archives wrap everything in a single {repo}-{ref} directory;
	// promote its contents so dest is the tree root
	rootDir, err := singleDir(tmp)
	if err != nil {
		return err
	}
	_ = os.RemoveAll(dest)
	if err := os.Rename(rootDir, dest); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror rename failed")
	}
	return nil
}

// extractOne writes one archive entry under base, rejecting paths that would
// escape it
func extractOne(base string, f *zip.File) error {
	rel := filepath.Clean(filepath.FromSlash(f.Name))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(rel) {
		return perr.Validationf("archive entry %q escapes extraction root", f.Name)
	}
	target := filepath.Join(base, rel)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror mkdir failed")
	}
	rc, err := f.Open()
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror entry open failed")
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode().Perm()|0o200)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror entry create failed")
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror entry write failed")
	}
	return out.Close()
}

// singleDir returns the one directory inside base, or base itself when the
// archive had no wrapper
func singleDir(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "mirror extract dir unreadable")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(base, entries[0].Name()), nil
	}
	return base, nil
}
