package topic

import "testing"

func TestTopicSegments(t *testing.T) {
	tp := Topic("panel.sticker.category")
	if got := tp.Segments(); len(got) != 3 || got[1] != "sticker" {
		t.Errorf("Segments = %v", got)
	}
	if tp.Parent() != "panel.sticker" {
		t.Errorf("Parent = %q", tp.Parent())
	}
	if tp.Base() != "category" {
		t.Errorf("Base = %q", tp.Base())
	}
	if Topic("layer").Parent() != "" {
		t.Error("single segment should have no parent")
	}
	if Topic("layer").Child("added") != "layer.added" {
		t.Error("Child failed")
	}
	if Topic("").Child("layer") != "layer" {
		t.Error("Child of empty topic failed")
	}
	if Join("a", "b") != "a.b" {
		t.Error("Join failed")
	}
}

func TestTopicIsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"layer.added", true},
		{"layer", true},
		{"", false},
		{".layer", false},
		{"layer.", false},
		{"layer..added", false},
	}
	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"layer.added", "layer.added", true},
		{"layer.added", "layer.*", true},
		{"layer.added", "*", false},
		{"layer.added", "**", true},
		{"panel.sticker.category", "panel.**", true},
		{"panel", "panel.**", true},
		{"panel.sticker.category", "panel.*", false},
		{"panel.sticker.category", "**.category", true},
		{"layer.added", "layer.deleted", false},
		{"layer", "layer.*", false},
	}
	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
		}
	}
	if !Topic("layer.*").IsWildcard() || Topic("layer.added").IsWildcard() {
		t.Error("IsWildcard failed")
	}
}
