package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"quiz-duel-service/internal/domain"
)

//go:embed questions.yaml
var defaultYAML []byte

// Theme is one themed block of seed questions.
type Theme struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

// Question is one seed question.
type Question struct {
	Type   string   `yaml:"type"`
	Prompt string   `yaml:"prompt"`
	Answer string   `yaml:"answer"`
	Wrong  []string `yaml:"wrong,omitempty"`
}

type seedFile struct {
	Themes []Theme `yaml:"themes"`
}

// Default returns the embedded question set.
func Default() ([]Theme, error) {
	return Parse(defaultYAML)
}

// Parse reads a seed file and validates question types and option counts.
func Parse(data []byte) ([]Theme, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for _, theme := range file.Themes {
		if theme.Name == "" {
			return nil, fmt.Errorf("seed file: theme without a name")
		}
		for _, q := range theme.Questions {
			qt := domain.QuestionType(q.Type)
			if !qt.Valid() {
				return nil, fmt.Errorf("seed file: theme %q: unknown question type %q", theme.Name, q.Type)
			}
			if err := checkWrongCount(qt, len(q.Wrong)); err != nil {
				return nil, fmt.Errorf("seed file: theme %q, question %q: %w", theme.Name, q.Prompt, err)
			}
		}
	}
	return file.Themes, nil
}

func checkWrongCount(qt domain.QuestionType, wrong int) error {
	switch qt {
	case domain.BinaryChoice:
		if wrong != 1 {
			return fmt.Errorf("binary-choice questions need exactly 1 wrong answer, got %d", wrong)
		}
	case domain.FourChoice:
		if wrong != 3 {
			return fmt.Errorf("four-choice questions need exactly 3 wrong answers, got %d", wrong)
		}
	case domain.OpenEnded:
		if wrong != 0 {
			return fmt.Errorf("open-ended questions take no wrong answers, got %d", wrong)
		}
	}
	return nil
}
