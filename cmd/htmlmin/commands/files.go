package commands

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// parseExtensions splits a --file-ext value into dotted, lower-case
// extensions. An empty list matches every file.
func parseExtensions(s string) []string {
	var exts []string
	for _, e := range strings.Split(s, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func matchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// isWithin reports whether path is dir or below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// collectFiles walks inputDir and returns the files to minify in lexical
// order. outputDir is skipped when it sits inside inputDir.
func collectFiles(inputDir, outputDir string, exts []string) ([]string, error) {
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && path != inputDir && abs == absOut {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && matchesExtension(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// mirrorPath maps a file below inputDir to the same relative place below
// outputDir.
func mirrorPath(inputDir, outputDir, path string) (string, error) {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(outputDir, rel), nil
}
