// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandPaths turns a list of files, directories and doublestar glob
// patterns into a sorted, de-duplicated list of files. Directories
// contribute every file with one of the given extensions; explicitly named
// files are taken as they are. A pattern that matches nothing is an error.
func ExpandPaths(paths []string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	addDir := func(dir string) error {
		for _, ext := range extensions {
			found, err := FindFilesByExtension(dir, ext)
			if err != nil {
				return fmt.Errorf("failed to search directory %s: %w", dir, err)
			}
			for _, f := range found {
				add(f)
			}
		}
		return nil
	}

	for _, p := range paths {
		if isPattern(p) {
			matches, err := doublestar.FilepathGlob(p)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
			}
			matched := 0
			for _, m := range matches {
				if hasExtension(m, extensions) {
					add(m)
					matched++
				}
			}
			if matched == 0 {
				return nil, fmt.Errorf("pattern %q matched no files", p)
			}
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read path: %w", err)
		}
		if info.IsDir() {
			if err := addDir(p); err != nil {
				return nil, err
			}
			continue
		}
		add(p)
	}

	slices.Sort(files)
	return files, nil
}

func isPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func hasExtension(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
