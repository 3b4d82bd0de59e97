package render

import (
	"strings"
	"testing"
)

func TestSplit_ExactSegments(t *testing.T) {
	text := strings.Repeat("x", 5000)

	segments := Split(text, 1994)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	wantLengths := []int{1994, 1994, 1012}
	for i, segment := range segments {
		if len(segment) != wantLengths[i] {
			t.Errorf("segment %d: got length %d, want %d", i, len(segment), wantLengths[i])
		}
	}

	if strings.Join(segments, "") != text {
		t.Error("characters lost or reordered across segments")
	}
}

func TestSplit_Empty(t *testing.T) {
	if segments := Split("", 1994); segments != nil {
		t.Errorf("expected no segments for empty text, got %v", segments)
	}
}

func TestSplit_ShortText(t *testing.T) {
	segments := Split("short", 1994)

	if len(segments) != 1 || segments[0] != "short" {
		t.Errorf("expected single segment, got %v", segments)
	}
}

func TestSplit_RuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 10)

	segments := Split(text, 3)

	if len(segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segments))
	}

	if strings.Join(segments, "") != text {
		t.Error("multi-byte runes corrupted by splitting")
	}

	for i, segment := range segments {
		if count := len([]rune(segment)); count > 3 {
			t.Errorf("segment %d has %d runes, limit 3", i, count)
		}
	}
}
