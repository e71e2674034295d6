package htmlmin

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func withPlaceholderIDs(t *testing.T, ids ...string) {
	t.Helper()
	orig := newPlaceholderID
	i := 0
	newPlaceholderID = func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
	t.Cleanup(func() { newPlaceholderID = orig })
}

func TestUniqueID(t *testing.T) {
	withPlaceholderIDs(t, "hused", "hfree")

	id, err := uniqueID("text with hused inside")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "hfree" {
		t.Errorf("expected hfree, got %q", id)
	}
}

func TestUniqueID_Exhausted(t *testing.T) {
	withPlaceholderIDs(t, "hused")

	_, err := uniqueID("hused")
	if !errors.Is(err, ErrPlaceholderExhausted) {
		t.Errorf("expected ErrPlaceholderExhausted, got %v", err)
	}
}

func TestMinify_PlaceholderExhausted(t *testing.T) {
	withPlaceholderIDs(t, "hcollide")

	_, err := Minify(`<p>hcollide</p><!-- htmlmin:ignore -->x<!-- htmlmin:ignore -->`, nil)
	if !errors.Is(err, ErrPlaceholderExhausted) {
		t.Errorf("expected ErrPlaceholderExhausted, got %v", err)
	}

	_, err = Minify(`<p>hcollide <% x %></p>`, nil)
	if !errors.Is(err, ErrPlaceholderExhausted) {
		t.Errorf("expected ErrPlaceholderExhausted for fragments, got %v", err)
	}
}

func TestPlaceholders_Substitute(t *testing.T) {
	withPlaceholderIDs(t, "hign", "hfrag")

	ph := &placeholders{}
	stats := &Stats{}
	fragments := mustFragments(t)

	input := `<!-- htmlmin:ignore --> a <!-- htmlmin:ignore --><!-- htmlmin:remove -->gone<!-- htmlmin:remove --><p><?= $x ?></p>`
	got, err := ph.substitute(input, fragments, stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "<!--hign0--><p>\thfrag0hfrag\t</p>"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if stats.IgnoredBlocks != 1 || stats.RemovedBlocks != 1 || stats.CustomFragments != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !ph.ignoredComment.MatchString("hign0") {
		t.Error("expected ignored comment matcher to match the placeholder")
	}

	restored := ph.restoreIgnored(ph.restoreFragments(got, DefaultOptions()))
	if restored != " a <p><?= $x ?></p>" {
		t.Errorf("unexpected restore result %q", restored)
	}
}

func TestPlaceholders_NoMarkers(t *testing.T) {
	ph := &placeholders{}
	stats := &Stats{}
	input := "<p>plain</p>"
	got, err := ph.substitute(input, mustFragments(t), stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != input {
		t.Errorf("expected input unchanged, got %q", got)
	}
	if ph.ignoreID != "" || ph.fragmentID != "" {
		t.Error("expected no placeholder ids to be allocated")
	}
	if out := ph.restoreIgnored(ph.restoreFragments(got, DefaultOptions())); out != input {
		t.Errorf("expected restore to be a no-op, got %q", out)
	}
}

func mustFragments(t *testing.T) *regexp.Regexp {
	t.Helper()
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if m.fragments == nil || !strings.Contains(m.fragments.String(), `<\?`) {
		t.Fatal("expected default fragment pattern to be compiled")
	}
	return m.fragments
}
