// Package manifest enumerates the files under a root directory as a
// deterministic ordered list. Only regular files make the list; the
// transfer pipeline never sees directories, symlinks or devices.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Item is one file to transfer.
type Item struct {
	// Path is the absolute on-disk location.
	Path string
	// RelPath is the root-relative path with forward slashes. It is the
	// name that travels on the wire, so it must be stable run-to-run.
	RelPath string
	// Size in bytes at scan time.
	Size int64
}

// Manifest is a scan result: items sorted by RelPath.
type Manifest struct {
	Root       string
	Items      []Item
	TotalBytes int64
	// Skipped collects entries the walk could not read. They are
	// reported, not fatal.
	Skipped []error
}

// Scan walks the tree rooted at rootPath. A rootPath naming a single
// regular file yields a one-item manifest.
func Scan(rootPath string) (Manifest, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("path does not exist: %s", rootPath)
		}
		return Manifest{}, fmt.Errorf("cannot access path: %w", err)
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("cannot get absolute path: %w", err)
	}

	m := Manifest{Root: absRoot}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return Manifest{}, fmt.Errorf("not a regular file: %s", rootPath)
		}
		m.Items = []Item{{
			Path:    absRoot,
			RelPath: filepath.Base(absRoot),
			Size:    info.Size(),
		}}
		m.TotalBytes = info.Size()
		return m, nil
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			relPath, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				relPath = path
			}
			m.Skipped = append(m.Skipped, fmt.Errorf("cannot read %s: %w", relPath, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			relPath, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				relPath = path
			}
			m.Skipped = append(m.Skipped, fmt.Errorf("cannot stat %s: %w", relPath, err))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("cannot compute relative path: %w", err)
		}
		m.Items = append(m.Items, Item{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
		})
		m.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("walking %s: %w", rootPath, err)
	}

	sort.Slice(m.Items, func(i, j int) bool {
		return m.Items[i].RelPath < m.Items[j].RelPath
	})
	return m, nil
}
