package app

import (
	"math"
	"math/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"quiz-duel-service/internal/domain"
)

const (
	// answerWindow is the number of seconds after which a correct answer
	// earns no time bonus.
	answerWindow = 30.0
	// maxTimeBonus is the bonus fraction for an instant correct answer.
	maxTimeBonus = 0.2
)

// foldAnswer lowercases s and strips combining marks, so "ÉGYPTIENS" and
// "égyptiens" compare equal.
func foldAnswer(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// evaluateAnswer compares a submitted answer to the expected one and computes
// awarded points. A nil answer is always wrong regardless of timing. A correct
// answer earns floor(basePoints * (1 + bonus)) where bonus scales linearly
// from maxTimeBonus at 0s down to zero at answerWindow seconds; out-of-range
// timings are clamped to [0, maxTimeBonus].
func evaluateAnswer(submitted *string, expected string, basePoints int, secondsTaken float64) (bool, int) {
	if submitted == nil {
		return false, 0
	}
	if foldAnswer(*submitted) != foldAnswer(expected) {
		return false, 0
	}

	bonus := (answerWindow - secondsTaken) / answerWindow * maxTimeBonus
	if bonus < 0 {
		bonus = 0
	}
	if bonus > maxTimeBonus {
		bonus = maxTimeBonus
	}
	return true, int(math.Floor(float64(basePoints) * (1 + bonus)))
}

// viewQuestion builds the client-facing shape of q. For choice questions the
// correct answer is shuffled in with the wrong ones; the caller owns rnd.
func viewQuestion(q domain.Question, rnd *rand.Rand) domain.QuestionView {
	view := domain.QuestionView{
		ID:     q.ID,
		Type:   q.Type,
		Points: q.Points(),
		Prompt: q.Prompt,
	}
	if q.Type != domain.OpenEnded {
		options := make([]string, 0, len(q.WrongAnswers)+1)
		options = append(options, q.Answer)
		options = append(options, q.WrongAnswers...)
		rnd.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		view.Options = options
	}
	return view
}

// dedupeByPrompt drops questions whose prompt text already appeared earlier in
// the batch, so accidental duplicate rows in a theme pool cannot put the same
// question into one game twice.
func dedupeByPrompt(questions []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(questions))
	out := questions[:0]
	for _, q := range questions {
		key := foldAnswer(q.Prompt)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
