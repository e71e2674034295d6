package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withVars(t *testing.T, version, commit, dirty, date string) {
	t.Helper()
	v, c, d, b := Version, Commit, Dirty, BuildDate
	Version, Commit, Dirty, BuildDate = version, commit, dirty, date
	t.Cleanup(func() { Version, Commit, Dirty, BuildDate = v, c, d, b })
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		vars     [4]string
		bi       *debug.BuildInfo
		expected Info
	}{
		{
			name:     "ldflags win",
			vars:     [4]string{"1.2.0", "abc123", "false", "2026-01-02T03:04:05Z"},
			bi:       &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}},
			expected: Info{Version: "1.2.0", Commit: "abc123", BuildDate: "2026-01-02T03:04:05Z"},
		},
		{
			name: "build info fallback",
			vars: [4]string{"dev", "unknown", "false", "unknown"},
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "def456"},
					{Key: "vcs.time", Value: "2026-02-03T00:00:00Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			expected: Info{Version: "0.3.1", Commit: "def456", Dirty: true, BuildDate: "2026-02-03T00:00:00Z"},
		},
		{
			name:     "devel module version ignored",
			vars:     [4]string{"dev", "unknown", "false", "unknown"},
			bi:       &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			expected: Info{Version: "dev", Commit: "unknown", BuildDate: "unknown"},
		},
		{
			name:     "no build info",
			vars:     [4]string{"dev", "unknown", "true", "unknown"},
			expected: Info{Version: "dev", Commit: "unknown", Dirty: true, BuildDate: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVars(t, tt.vars[0], tt.vars[1], tt.vars[2], tt.vars[3])
			withBuildInfo(t, tt.bi)

			got := Get()
			got.GoVersion, got.Platform = "", ""
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestString(t *testing.T) {
	withBuildInfo(t, nil)

	withVars(t, "1.0.0", "abc", "true", "now")
	if got := String(); got != "1.0.0-dirty" {
		t.Errorf("expected 1.0.0-dirty, got %q", got)
	}

	withVars(t, "1.0.0", "abc", "false", "now")
	if got := String(); got != "1.0.0" {
		t.Errorf("expected 1.0.0, got %q", got)
	}
}

func TestFull(t *testing.T) {
	withBuildInfo(t, nil)
	withVars(t, "1.0.0", "abc123", "false", "2026-01-01")

	full := Full()
	for _, want := range []string{"htmlmin 1.0.0\n", "Commit:     abc123", "Built:      2026-01-01", "OS/Arch:"} {
		if !strings.Contains(full, want) {
			t.Errorf("expected %q in %q", want, full)
		}
	}
	if strings.Contains(full, "Dirty") {
		t.Errorf("expected no dirty line, got %q", full)
	}
}
