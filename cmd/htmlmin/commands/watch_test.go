package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDirWatcher_Classify(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "site")
	out := filepath.Join(in, "dist")
	writeFile(t, filepath.Join(in, "index.html"), "<p>a</p>")
	writeFile(t, filepath.Join(in, "style.css"), "p{}")
	writeFile(t, filepath.Join(in, ".index.html.swp"), "x")
	writeFile(t, filepath.Join(out, "index.html"), "<p>a</p>")
	if err := os.Mkdir(filepath.Join(in, "blog"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w := &dirWatcher{inputDir: in, outputDir: out, exts: parseExtensions("html")}

	tests := []struct {
		name     string
		path     string
		op       fsnotify.Op
		expected watchAction
	}{
		{"write html", "index.html", fsnotify.Write, watchMinify},
		{"create html", "index.html", fsnotify.Create, watchMinify},
		{"write other extension", "style.css", fsnotify.Write, watchIgnore},
		{"chmod", "index.html", fsnotify.Chmod, watchIgnore},
		{"remove html", "gone.html", fsnotify.Remove, watchRemove},
		{"rename html", "gone.html", fsnotify.Rename, watchRemove},
		{"remove other extension", "gone.css", fsnotify.Remove, watchIgnore},
		{"create directory", "blog", fsnotify.Create, watchAddDir},
		{"hidden file", ".index.html.swp", fsnotify.Write, watchIgnore},
		{"inside output dir", filepath.Join("dist", "index.html"), fsnotify.Write, watchIgnore},
		{"vanished before stat", "missing.html", fsnotify.Create, watchIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fsnotify.Event{Name: filepath.Join(in, tt.path), Op: tt.op}
			if got := w.classify(ev); got != tt.expected {
				t.Errorf("expected action %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestDirWatcher_HandleRemove(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "site")
	out := filepath.Join(root, "dist")
	writeFile(t, filepath.Join(out, "old.html"), "<p>a</p>")

	w := &dirWatcher{inputDir: in, outputDir: out}
	w.handle(context.Background(), fsnotify.Event{Name: filepath.Join(in, "old.html"), Op: fsnotify.Remove})

	if _, err := os.Stat(filepath.Join(out, "old.html")); !os.IsNotExist(err) {
		t.Errorf("expected mirrored file to be removed, got %v", err)
	}
}

func waitForFile(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(path); err == nil && strings.Contains(string(b), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s to contain %q", path, want)
}

func TestWatchDir(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "site")
	out := filepath.Join(root, "dist")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	p, _ := newTestProcessor(t, processorConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchDir(ctx, p, in, out, parseExtensions("html")) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(in, "index.html"), "<p>  first  </p>")
	waitForFile(t, filepath.Join(out, "index.html"), "<p>first")

	writeFile(t, filepath.Join(in, "blog", "post.html"), "<p>  nested  </p>")
	waitForFile(t, filepath.Join(out, "blog", "post.html"), "<p>nested")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for watcher to stop")
	}
}
