package htmlmin

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

const maxPlaceholderAttempts = 16

var (
	reIgnoreBlock = regexp.MustCompile(`(?s)<!-- htmlmin:ignore -->(.*?)<!-- htmlmin:ignore -->`)
	reRemoveBlock = regexp.MustCompile(`(?s)<!-- htmlmin:remove -->.*?<!-- htmlmin:remove -->`)
)

// newPlaceholderID returns a random lower-case base-36 id.
var newPlaceholderID = func() string {
	return "h" + strconv.FormatUint(rand.Uint64(), 36)
}

// uniqueID returns an id that does not occur anywhere in doc.
func uniqueID(doc string) (string, error) {
	for range maxPlaceholderAttempts {
		id := newPlaceholderID()
		if !strings.Contains(doc, id) {
			return id, nil
		}
	}
	return "", ErrPlaceholderExhausted
}

// placeholders swaps regions that must survive minification verbatim for
// short tokens, and swaps them back afterwards.
type placeholders struct {
	ignoreID string
	ignored  []string

	// Matches the body of a comment standing in for an ignore block.
	ignoredComment *regexp.Regexp

	fragmentID string
	fragments  []string
}

// substitute replaces ignore blocks with ignored comments, deletes remove
// blocks and replaces custom fragments with attribute-safe tokens.
func (p *placeholders) substitute(input string, fragments *regexp.Regexp, stats *Stats) (string, error) {
	if strings.Contains(input, "<!-- htmlmin:ignore -->") {
		id, err := uniqueID(input)
		if err != nil {
			return "", err
		}
		p.ignoreID = id
		p.ignoredComment = regexp.MustCompile(`^` + id + `[0-9]+$`)
		input = reIgnoreBlock.ReplaceAllStringFunc(input, func(m string) string {
			raw := m[len("<!-- htmlmin:ignore -->") : len(m)-len("<!-- htmlmin:ignore -->")]
			p.ignored = append(p.ignored, raw)
			return "<!--" + id + strconv.Itoa(len(p.ignored)-1) + "-->"
		})
		stats.IgnoredBlocks += len(p.ignored)
	}

	if strings.Contains(input, "<!-- htmlmin:remove -->") {
		stats.RemovedBlocks += len(reRemoveBlock.FindAllStringIndex(input, -1))
		input = reRemoveBlock.ReplaceAllString(input, "")
	}

	if fragments != nil && fragments.MatchString(input) {
		id, err := uniqueID(input)
		if err != nil {
			return "", err
		}
		p.fragmentID = id
		input = fragments.ReplaceAllStringFunc(input, func(m string) string {
			p.fragments = append(p.fragments, m)
			return "\t" + id + strconv.Itoa(len(p.fragments)-1) + id + "\t"
		})
		stats.CustomFragments += len(p.fragments)
	}

	return input, nil
}

// restoreFragments splices custom fragments back into output. Whitespace
// around a fragment is collapsed like text when collapsing is on.
func (p *placeholders) restoreFragments(output string, opts *Options) string {
	if p.fragmentID == "" {
		return output
	}
	re := regexp.MustCompile(`(\s*)` + p.fragmentID + `([0-9]+)` + p.fragmentID + `(\s*)`)
	mode := collapseMode{
		conservative:       !opts.TrimCustomFragments,
		preserveLineBreaks: opts.PreserveLineBreaks,
	}
	return re.ReplaceAllStringFunc(output, func(m string) string {
		sub := re.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[2])
		if err != nil || n >= len(p.fragments) {
			return m
		}
		if opts.RemoveIgnored {
			return ""
		}
		chunk := p.fragments[n]
		if !opts.CollapseWhitespace {
			return chunk
		}
		if sub[1] != "\t" {
			chunk = sub[1] + chunk
		}
		if sub[3] != "\t" {
			chunk += sub[3]
		}
		return collapse(chunk, mode, startsWithSpace(chunk), endsWithSpace(chunk), false)
	})
}

// restoreIgnored splices ignore block contents back into output.
func (p *placeholders) restoreIgnored(output string) string {
	if p.ignoreID == "" {
		return output
	}
	re := regexp.MustCompile(`<!--` + p.ignoreID + `([0-9]+)-->`)
	return re.ReplaceAllStringFunc(output, func(m string) string {
		n, err := strconv.Atoi(m[len("<!--")+len(p.ignoreID) : len(m)-len("-->")])
		if err != nil || n >= len(p.ignored) {
			return m
		}
		return p.ignored[n]
	})
}
