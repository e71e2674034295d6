package htmlmin

import "strings"

// joinFragments concatenates fragments, greedily starting a new line before
// a fragment that would push the current line past maxLineLength. Fragments
// are never split except at their own line breaks. maxLineLength <= 0
// disables wrapping.
func joinFragments(frags []string, maxLineLength int) string {
	if maxLineLength <= 0 {
		return strings.Join(frags, "")
	}

	var lines []string
	line := ""
	for _, frag := range frags {
		if frag == "" {
			continue
		}
		head, _, _ := strings.Cut(frag, "\n")
		if line != "" && len(line)+len(head) > maxLineLength {
			lines = append(lines, line)
			line = ""
		}
		parts := strings.Split(frag, "\n")
		if len(parts) > 1 {
			lines = append(lines, line+parts[0])
			lines = append(lines, parts[1:len(parts)-1]...)
			line = parts[len(parts)-1]
			continue
		}
		line += frag
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
