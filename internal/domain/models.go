package domain

import "time"

// QuestionType classifies a question by how many answer choices it carries.
type QuestionType string

const (
	// BinaryChoice questions offer two options and are worth 1 point.
	BinaryChoice QuestionType = "binary"
	// FourChoice questions offer four options and are worth 3 points.
	FourChoice QuestionType = "four"
	// OpenEnded questions have no options and are worth 5 points.
	OpenEnded QuestionType = "open"
)

// Points returns the base point value of the type. Point value is fully
// determined by the type today, but the two are kept separate so they can
// diverge without a schema change.
func (t QuestionType) Points() int {
	switch t {
	case BinaryChoice:
		return 1
	case FourChoice:
		return 3
	case OpenEnded:
		return 5
	}
	return 0
}

// BatchCap returns how many questions of this type a single game batch may hold.
func (t QuestionType) BatchCap() int {
	switch t {
	case BinaryChoice:
		return 20
	case FourChoice:
		return 10
	case OpenEnded:
		return 5
	}
	return 0
}

// Valid reports whether t is one of the three known types.
func (t QuestionType) Valid() bool {
	return t == BinaryChoice || t == FourChoice || t == OpenEnded
}

// QuestionTypes lists the three types in batch-assembly order.
func QuestionTypes() []QuestionType {
	return []QuestionType{OpenEnded, FourChoice, BinaryChoice}
}

// Question is a single trivia question row.
type Question struct {
	ID           int64
	ThemeID      int64
	Type         QuestionType
	Prompt       string
	Answer       string
	WrongAnswers []string
	UsedCount    int
	LastUsed     time.Time
}

// Points returns the base point value of the question.
func (q Question) Points() int { return q.Type.Points() }

// Batch groups the questions selected for one game by type.
type Batch struct {
	Open   []Question
	Four   []Question
	Binary []Question
}

// Empty reports whether no questions of any type were selected.
func (b Batch) Empty() bool {
	return len(b.Open) == 0 && len(b.Four) == 0 && len(b.Binary) == 0
}

// Flatten returns all selected questions as a single slice.
func (b Batch) Flatten() []Question {
	qs := make([]Question, 0, len(b.Open)+len(b.Four)+len(b.Binary))
	qs = append(qs, b.Open...)
	qs = append(qs, b.Four...)
	qs = append(qs, b.Binary...)
	return qs
}

// Theme is a question category.
type Theme struct {
	ID   int64  `json:"theme_id"`
	Name string `json:"theme_name"`
}

// QuestionView is the client-facing shape of a question. Choice options are
// shuffled together with the correct answer; the correct answer itself is
// never attached.
type QuestionView struct {
	ID      int64        `json:"question_id"`
	Type    QuestionType `json:"type"`
	Points  int          `json:"points"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
}

// AnswerRecord is one entry in a session's answer history.
type AnswerRecord struct {
	Prompt        string  `json:"question"`
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	Correct       bool    `json:"is_correct"`
	Points        int     `json:"points"`
	TimeTaken     float64 `json:"time_taken"`
}

// RoomStatus is the lifecycle state of a duel room.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
)

// PlayerInfo is a duel room member as seen by polling clients.
type PlayerInfo struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Host     bool   `json:"is_host"`
}

// ScoreRow is one ranked leaderboard entry.
type ScoreRow struct {
	Username  string  `json:"username"`
	Theme     string  `json:"theme_name"`
	Score     int     `json:"score"`
	TotalTime float64 `json:"total_time"`
}
