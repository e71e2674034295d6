package assets

import (
	"fmt"
	"net/url"
	"strings"
)

// URLMinifier rewrites absolute URLs relative to the page they appear on.
type URLMinifier struct {
	base *url.URL
	dir  []string
}

// NewURL creates a URL minifier for a page served at base, which must be an
// absolute http(s) URL.
func NewURL(base string) (*URLMinifier, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", base)
	}

	p := u.EscapedPath()
	dir := p[:strings.LastIndex(p, "/")+1]
	var segs []string
	if d := strings.Trim(dir, "/"); d != "" {
		segs = strings.Split(d, "/")
	}
	return &URLMinifier{base: u, dir: segs}, nil
}

// MinifyURL returns the shortest form of raw that resolves to the same
// location from the base page. Relative and opaque URLs (mailto:, data:,
// javascript:) are returned unchanged, as are URLs on another scheme.
func (m *URLMinifier) MinifyURL(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if ref.Opaque != "" || ref.User != nil || (ref.Scheme == "" && ref.Host == "") {
		return raw, nil
	}

	abs := m.base.ResolveReference(ref)
	if !strings.EqualFold(abs.Scheme, m.base.Scheme) {
		return raw, nil
	}

	suffix := ""
	if abs.RawQuery != "" {
		suffix += "?" + abs.RawQuery
	}
	if abs.Fragment != "" {
		suffix += "#" + abs.EscapedFragment()
	}

	path := abs.EscapedPath()
	if path == "" {
		path = "/"
	}

	if !strings.EqualFold(abs.Host, m.base.Host) {
		return "//" + abs.Host + path + suffix, nil
	}

	root := path + suffix
	rel := m.relative(path) + suffix
	if len(rel) < len(root) {
		return rel, nil
	}
	return root, nil
}

// relative returns target, an absolute path, relative to the base directory.
func (m *URLMinifier) relative(target string) string {
	segs := strings.Split(strings.TrimPrefix(target, "/"), "/")

	i := 0
	for i < len(m.dir) && i < len(segs)-1 && m.dir[i] == segs[i] {
		i++
	}

	var sb strings.Builder
	for range len(m.dir) - i {
		sb.WriteString("../")
	}
	rest := strings.Join(segs[i:], "/")
	if rest == "" {
		if sb.Len() == 0 {
			return "./"
		}
		return sb.String()
	}
	// A colon in the first segment would be read as a scheme.
	if sb.Len() == 0 && strings.Contains(segs[i], ":") {
		sb.WriteString("./")
	}
	sb.WriteString(rest)
	return sb.String()
}

// Name returns the minifier type.
func (m *URLMinifier) Name() string {
	return "url"
}
