// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultQuestions(t *testing.T) {
	r, err := NewRegistry(DefaultQuestions(), 16)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if r.Count() != 5 {
		t.Fatalf("Expected 5 questions, got %d", r.Count())
	}

	want := []int{4, 4, 4, 3, 3}
	for id, n := range want {
		got, err := r.OptionCount(id)
		if err != nil {
			t.Fatalf("OptionCount(%d) failed: %v", id, err)
		}
		if got != n {
			t.Errorf("OptionCount(%d) = %d, want %d", id, got, n)
		}
	}
}

func TestRegistryOutOfRange(t *testing.T) {
	r, _ := NewRegistry(DefaultQuestions(), 16)

	for _, id := range []int{-1, 5, 100} {
		if _, err := r.Question(id); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Question(%d) error = %v, want ErrOutOfRange", id, err)
		}
		if _, err := r.OptionCount(id); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("OptionCount(%d) error = %v, want ErrOutOfRange", id, err)
		}
	}
}

func TestRegistryIsImmutable(t *testing.T) {
	questions := DefaultQuestions()
	r, _ := NewRegistry(questions, 16)

	questions[0].Prompt = "changed"
	questions[0].Options[0] = "changed"

	q, _ := r.Question(0)
	q.Options[1] = "changed"

	again, _ := r.Question(0)
	if again.Prompt == "changed" || again.Options[0] == "changed" || again.Options[1] == "changed" {
		t.Errorf("Registry was mutated through a caller's slice: %+v", again)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name       string
		questions  []Question
		maxOptions int
	}{
		{"no questions", nil, 16},
		{"empty prompt", []Question{{Prompt: " ", Options: []string{"a", "b"}}}, 16},
		{"one option", []Question{{Prompt: "q", Options: []string{"a"}}}, 16},
		{"empty option", []Question{{Prompt: "q", Options: []string{"a", ""}}}, 16},
		{"too many options", []Question{{Prompt: "q", Options: []string{"a", "b", "c"}}}, 2},
		{"limit too large", DefaultQuestions(), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.questions, tt.maxOptions); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	data := `[{"prompt":"Tabs or spaces?","options":["Tabs","Spaces"]}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	questions, err := LoadQuestions(path)
	if err != nil {
		t.Fatalf("LoadQuestions failed: %v", err)
	}
	if len(questions) != 1 || questions[0].Prompt != "Tabs or spaces?" || len(questions[0].Options) != 2 {
		t.Errorf("Unexpected questions: %+v", questions)
	}

	if _, err := LoadQuestions(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
