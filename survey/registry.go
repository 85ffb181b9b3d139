// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/danielhkuo/sealed-survey/inputproof"
)

// Question is one multiple-choice prompt.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

func (q Question) clone() Question {
	return Question{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
}

// Registry is the fixed, ordered list of questions. It never changes after
// construction.
type Registry struct {
	questions []Question
}

// NewRegistry validates questions and takes a private copy of them.
// maxOptions bounds the per-vote cost, which grows with the option count.
func NewRegistry(questions []Question, maxOptions int) (*Registry, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("at least one question is required")
	}
	if maxOptions < 2 || maxOptions > inputproof.MaxOptions {
		return nil, fmt.Errorf("max options must be between 2 and %d, got %d", inputproof.MaxOptions, maxOptions)
	}

	r := &Registry{questions: make([]Question, len(questions))}
	for i, q := range questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, fmt.Errorf("question %d: prompt is required", i)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: at least 2 options are required", i)
		}
		if len(q.Options) > maxOptions {
			return nil, fmt.Errorf("question %d: %d options exceeds the limit of %d", i, len(q.Options), maxOptions)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, fmt.Errorf("question %d: option %d is empty", i, j)
			}
		}
		r.questions[i] = q.clone()
	}
	return r, nil
}

// Question returns the prompt and options of question id.
func (r *Registry) Question(id int) (Question, error) {
	if id < 0 || id >= len(r.questions) {
		return Question{}, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return r.questions[id].clone(), nil
}

func (r *Registry) OptionCount(id int) (int, error) {
	if id < 0 || id >= len(r.questions) {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return len(r.questions[id].Options), nil
}

func (r *Registry) Count() int {
	return len(r.questions)
}

func (r *Registry) All() []Question {
	out := make([]Question, len(r.questions))
	for i, q := range r.questions {
		out[i] = q.clone()
	}
	return out
}

// DefaultQuestions is the built-in five question catalogue.
func DefaultQuestions() []Question {
	return []Question{
		{
			Prompt:  "How familiar are you with Zama and FHE?",
			Options: []string{"Just getting started", "Built a small demo", "Integrating in a product", "Running in production"},
		},
		{
			Prompt:  "Which Zama resource do you rely on most?",
			Options: []string{"Docs", "Examples on GitHub", "Community answers", "Workshops or talks"},
		},
		{
			Prompt:  "What excites you most about Zama FHEVM?",
			Options: []string{"Private voting", "Confidential DeFi", "User-owned data", "Compliance-friendly privacy"},
		},
		{
			Prompt:  "Where do you plan to deploy first?",
			Options: []string{"Sepolia testnet", "Mainnet", "Private chain"},
		},
		{
			Prompt:  "What do you need next from Zama?",
			Options: []string{"More tutorials", "SDK improvements", "Easier deployments"},
		},
	}
}

// LoadQuestions reads a JSON array of questions from path.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse questions file: %w", err)
	}
	return questions, nil
}
