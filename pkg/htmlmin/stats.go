package htmlmin

import (
	"fmt"
	"strings"
	"time"
)

// Stats captures metrics about what the minifier did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`

	// Removals
	CommentsRemoved      int `json:"comments_removed" yaml:"comments_removed"`
	AttributesRemoved    int `json:"attributes_removed" yaml:"attributes_removed"`
	OptionalTagsRemoved  int `json:"optional_tags_removed" yaml:"optional_tags_removed"`
	EmptyElementsRemoved int `json:"empty_elements_removed" yaml:"empty_elements_removed"`
	RemovedBlocks        int `json:"removed_blocks" yaml:"removed_blocks"`

	// Placeholders
	IgnoredBlocks   int `json:"ignored_blocks" yaml:"ignored_blocks"`
	CustomFragments int `json:"custom_fragments" yaml:"custom_fragments"`

	// Collaborator calls that failed and kept their input
	CollaboratorFailures int `json:"collaborator_failures" yaml:"collaborator_failures"`

	// Timing
	SubstituteDuration time.Duration `json:"substitute_duration_ms" yaml:"substitute_duration_ms"`
	MinifyDuration     time.Duration `json:"minify_duration_ms" yaml:"minify_duration_ms"`
	OutputDuration     time.Duration `json:"output_duration_ms" yaml:"output_duration_ms"`
	TotalDuration      time.Duration `json:"total_duration_ms" yaml:"total_duration_ms"`
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent()))

	if s.CommentsRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Comments removed: %d\n", s.CommentsRemoved))
	}
	if s.AttributesRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Attributes removed: %d\n", s.AttributesRemoved))
	}
	if s.OptionalTagsRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Optional tags removed: %d\n", s.OptionalTagsRemoved))
	}
	if s.EmptyElementsRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Empty elements removed: %d\n", s.EmptyElementsRemoved))
	}
	if s.IgnoredBlocks > 0 || s.CustomFragments > 0 {
		sb.WriteString(fmt.Sprintf("Preserved: %d ignored blocks, %d custom fragments\n",
			s.IgnoredBlocks, s.CustomFragments))
	}
	if s.CollaboratorFailures > 0 {
		sb.WriteString(fmt.Sprintf("Collaborator failures: %d\n", s.CollaboratorFailures))
	}

	sb.WriteString(fmt.Sprintf("Timing: substitute=%v, minify=%v, output=%v, total=%v\n",
		s.SubstituteDuration.Round(time.Microsecond),
		s.MinifyDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during minification.
type Warning struct {
	Phase   string `json:"phase" yaml:"phase"`     // "js", "css", "url", "html"
	Message string `json:"message" yaml:"message"` // Human-readable description
	Context string `json:"context" yaml:"context"` // Fragment that was kept unminified
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a minification.
type Result struct {
	// Content is the minified document.
	Content string `json:"content" yaml:"content"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats" yaml:"stats"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
