package commands

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/htmlmin/internal/logger"
)

type watchAction int

const (
	watchIgnore watchAction = iota
	watchMinify
	watchRemove
	watchAddDir
)

// dirWatcher keeps outputDir in sync with changes below inputDir.
type dirWatcher struct {
	p         *processor
	inputDir  string
	outputDir string
	exts      []string
	fw        *fsnotify.Watcher
}

// watchDir blocks until ctx is done, re-minifying files as they change.
func watchDir(ctx context.Context, p *processor, inputDir, outputDir string, exts []string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	w := &dirWatcher{p: p, inputDir: inputDir, outputDir: outputDir, exts: exts, fw: fw}
	if err := w.addTree(inputDir); err != nil {
		return err
	}
	logger.InfoContext(ctx, "watching for changes", "dir", inputDir)

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "stopped watching", "dir", inputDir, "failed", p.failures())
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.ErrorContext(ctx, "watch error", "error", err)
		}
	}
}

// addTree watches dir and every directory below it except outputDir.
func (w *dirWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isWithin(path, w.outputDir) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// classify decides what an event means for the mirror.
func (w *dirWatcher) classify(ev fsnotify.Event) watchAction {
	if isWithin(ev.Name, w.outputDir) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return watchIgnore
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if matchesExtension(ev.Name, w.exts) {
			return watchRemove
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return watchIgnore
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) {
				return watchAddDir
			}
			return watchIgnore
		}
		if info.Mode().IsRegular() && matchesExtension(ev.Name, w.exts) {
			return watchMinify
		}
	}
	return watchIgnore
}

func (w *dirWatcher) handle(ctx context.Context, ev fsnotify.Event) {
	action := w.classify(ev)
	if action == watchIgnore {
		return
	}

	switch action {
	case watchAddDir:
		if err := w.addTree(ev.Name); err != nil {
			logger.ErrorContext(ctx, "failed to watch directory", "dir", ev.Name, "error", err)
			return
		}
		// Files may have landed before the watch was added.
		files, err := collectFiles(ev.Name, w.outputDir, w.exts)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list directory", "dir", ev.Name, "error", err)
			return
		}
		for _, f := range files {
			w.minify(ctx, f)
		}
	case watchMinify:
		w.minify(ctx, ev.Name)
	case watchRemove:
		dst, err := mirrorPath(w.inputDir, w.outputDir, ev.Name)
		if err != nil {
			return
		}
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			logger.ErrorContext(ctx, "failed to remove output", "file", dst, "error", err)
			return
		}
		logger.InfoContext(ctx, "removed", "file", dst)
	}
}

func (w *dirWatcher) minify(ctx context.Context, src string) {
	dst, err := mirrorPath(w.inputDir, w.outputDir, src)
	if err == nil {
		err = w.p.processFile(src, dst)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to minify file", "file", src, "error", err)
		return
	}
	logger.InfoContext(ctx, "minified", "file", src, "output", dst)
}
