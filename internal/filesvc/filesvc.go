package filesvc

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unkn0wn-root/ember/internal/errdef"
)

const (
	extSource = ".ems"
	extLong   = ".ember"
	extExpect = ".out"
)

type FileEntry struct {
	Name string
	Path string
	// Expect is the golden file next to the source, empty when there is none.
	Expect string
}

func IsSourceFile(path string) bool {
	switch fileExt(path) {
	case extSource, extLong:
		return true
	default:
		return false
	}
}

// ExpectPath is where the golden output of a source lives: the same name
// with an .out extension.
func ExpectPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + extExpect
}

// ListSourceFiles returns the sources under root sorted by name. Hidden
// directories are skipped when walking recursively.
func ListSourceFiles(root string, recursive bool) ([]FileEntry, error) {
	var entries []FileEntry
	appendEntry := func(name, path string) {
		fe := FileEntry{Name: name, Path: path}
		if exp := ExpectPath(path); fileExists(exp) {
			fe.Expect = exp
		}
		entries = append(entries, fe)
	}

	if recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsSourceFile(d.Name()) {
				return nil
			}
			rel := d.Name()
			if r, relErr := filepath.Rel(root, path); relErr == nil {
				rel = r
			}
			appendEntry(rel, path)
			return nil
		})
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "list sources in %s", root)
		}
	} else {
		dirEntries, err := os.ReadDir(root)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "list sources in %s", root)
		}
		for _, entry := range dirEntries {
			if entry.IsDir() || !IsSourceFile(entry.Name()) {
				continue
			}
			appendEntry(entry.Name(), filepath.Join(root, entry.Name()))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fileExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
