package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/copy"
)

// Files returns the slash-separated paths, relative to root, of every
// non-directory entry below root, sorted. A root that does not exist has no
// files.
func Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// IsFile reports whether path names an existing non-directory entry.
func IsFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && !info.IsDir()
}

// IsExecutable reports whether path exists and has any execute bit set.
// A symbolic link is never executable; its target is not consulted.
func IsExecutable(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return false, nil
	}
	return info.Mode().Perm()&0o111 != 0, nil
}

// Symlink reports whether path is a symbolic link and, if so, its target.
// Dangling links are links like any other.
func Symlink(path string) (target string, ok bool, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", false, err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return "", false, nil
	}
	target, err = os.Readlink(path)
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}

// CopyTree copies the directory src into dst, preserving file modes and
// skipping version-control metadata directories.
func CopyTree(src, dst string) error {
	return copy.Copy(src, dst, copy.Options{
		Skip: func(_ os.FileInfo, src, _ string) (bool, error) {
			base := filepath.Base(src)
			return base == ".git" || base == ".hg" || base == ".svn", nil
		},
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		PermissionControl: copy.PerservePermission,
	})
}

// CopyFile copies the single file src to dst, creating parent directories.
func CopyFile(src, dst string) error {
	return copy.Copy(src, dst, copy.Options{PermissionControl: copy.PerservePermission})
}

// Join joins a slash-separated relative path onto root.
func Join(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}
