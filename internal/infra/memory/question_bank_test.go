package memory

import (
	"context"
	"fmt"
	"testing"

	"quiz-duel-service/internal/domain"
)

func fillBank(bank *QuestionBank, themeID int64, qt domain.QuestionType, n int) {
	for i := 0; i < n; i++ {
		q := domain.Question{
			ThemeID: themeID,
			Type:    qt,
			Prompt:  fmt.Sprintf("%s question %d", qt, i),
			Answer:  "right",
		}
		switch qt {
		case domain.BinaryChoice:
			q.WrongAnswers = []string{"wrong"}
		case domain.FourChoice:
			q.WrongAnswers = []string{"a", "b", "c"}
		}
		bank.AddQuestion(q)
	}
}

func TestSelectBatchRespectsCaps(t *testing.T) {
	bank := NewQuestionBank()
	themeID := bank.AddTheme("Sciences")
	fillBank(bank, themeID, domain.BinaryChoice, 30)
	fillBank(bank, themeID, domain.FourChoice, 12)
	fillBank(bank, themeID, domain.OpenEnded, 7)

	batch, err := bank.SelectBatch(context.Background(), themeID)
	if err != nil {
		t.Fatalf("select batch: %v", err)
	}
	if len(batch.Binary) != 20 {
		t.Fatalf("expected 20 binary questions, got %d", len(batch.Binary))
	}
	if len(batch.Four) != 10 {
		t.Fatalf("expected 10 four-choice questions, got %d", len(batch.Four))
	}
	if len(batch.Open) != 5 {
		t.Fatalf("expected 5 open questions, got %d", len(batch.Open))
	}
}

func TestSelectBatchIgnoresOtherThemes(t *testing.T) {
	bank := NewQuestionBank()
	sciences := bank.AddTheme("Sciences")
	histoire := bank.AddTheme("Histoire")
	fillBank(bank, sciences, domain.OpenEnded, 3)
	fillBank(bank, histoire, domain.OpenEnded, 2)

	batch, err := bank.SelectBatch(context.Background(), histoire)
	if err != nil {
		t.Fatalf("select batch: %v", err)
	}
	if len(batch.Open) != 2 {
		t.Fatalf("expected 2 questions from histoire, got %d", len(batch.Open))
	}
	for _, q := range batch.Open {
		if q.ThemeID != histoire {
			t.Fatalf("question %d leaked from theme %d", q.ID, q.ThemeID)
		}
	}
}

func TestSelectBatchPrefersLeastUsed(t *testing.T) {
	bank := NewQuestionBank()
	themeID := bank.AddTheme("Sciences")
	fillBank(bank, themeID, domain.OpenEnded, 8)

	first, err := bank.SelectBatch(context.Background(), themeID)
	if err != nil {
		t.Fatalf("first select: %v", err)
	}
	used := make(map[int64]bool)
	for _, q := range first.Open {
		if q.UsedCount != 1 {
			t.Fatalf("expected usage bumped to 1, got %d", q.UsedCount)
		}
		used[q.ID] = true
	}

	// The three questions left out of the first batch have a lower usage
	// count, so the second batch must contain all of them.
	second, err := bank.SelectBatch(context.Background(), themeID)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	fresh := 0
	for _, q := range second.Open {
		if !used[q.ID] {
			fresh++
		}
	}
	if fresh != 3 {
		t.Fatalf("expected the 3 unused questions in the second batch, got %d", fresh)
	}
}

func TestAddThemeIsIdempotentByName(t *testing.T) {
	bank := NewQuestionBank()
	a := bank.AddTheme("Sciences")
	b := bank.AddTheme("Sciences")
	if a != b {
		t.Fatalf("expected same theme id, got %d and %d", a, b)
	}

	themes, err := bank.ListThemes(context.Background())
	if err != nil {
		t.Fatalf("list themes: %v", err)
	}
	if len(themes) != 1 {
		t.Fatalf("expected a single theme, got %d", len(themes))
	}
}
