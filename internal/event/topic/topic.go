// Package topic provides hierarchical event topics with wildcard matching.
//
// Topics use dot notation ("layer.selected", "document.changed"). Patterns
// may contain "*", which matches exactly one segment, and "**", which
// matches zero or more segments.
package topic

import "strings"

// Topic is a hierarchical event type using dot notation.
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Parent returns the topic without its last segment.
//
// Example: "panel.sticker.category" -> "panel.sticker"
func (t Topic) Parent() Topic {
	idx := strings.LastIndex(string(t), Separator)
	if idx < 0 {
		return ""
	}
	return t[:idx]
}

// Child appends a segment.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return Topic(string(t) + Separator + segment)
}

// Base returns the last segment of the topic.
func (t Topic) Base() string {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// IsWildcard returns true if the topic contains any wildcard.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), WildcardSingle)
}

// IsValid returns true if the topic is non-empty and has no empty
// segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches returns true if this topic matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			for ; ti <= len(topic); ti++ {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		}

		if ti >= len(topic) {
			return false
		}
		if pattern[pi] != WildcardSingle && pattern[pi] != topic[ti] {
			return false
		}
		ti++
		pi++
	}

	return ti == len(topic)
}

// Join joins segments into a topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
