package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
)

// Handler maps the JSON API onto the core services. Every response is an
// envelope of {"status": "success"|"error", ...}.
type Handler struct {
	games  *app.GameService
	duels  *app.DuelService
	users  app.CredentialStore
	themes app.ThemeCatalog
	scores app.ScoreArchive
}

func NewHandler(games *app.GameService, duels *app.DuelService, users app.CredentialStore, themes app.ThemeCatalog, scores app.ScoreArchive) *Handler {
	return &Handler{
		games:  games,
		duels:  duels,
		users:  users,
		themes: themes,
		scores: scores,
	}
}

// Register wires the API routes onto the engine.
func (h *Handler) Register(e *gin.Engine) {
	api := e.Group("/api")
	api.POST("/login", h.login)
	api.POST("/register", h.register)
	api.GET("/themes", h.listThemes)
	api.POST("/start_game", h.startGame)
	api.POST("/submit_answer", h.submitAnswer)
	api.GET("/leaderboard", h.leaderboard)
	api.POST("/create_duel_room", h.createDuelRoom)
	api.POST("/join_duel_room", h.joinDuelRoom)
	api.GET("/room_players", h.roomPlayers)
	api.POST("/start_duel", h.startDuel)
}

func ok(c *gin.Context, payload gin.H) {
	body := gin.H{"status": "success"}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case domain.KindConflict:
		status, message = http.StatusConflict, err.Error()
	case domain.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case domain.KindInvalidState:
		status, message = http.StatusConflict, err.Error()
	case domain.KindInsufficientContent:
		status, message = http.StatusUnprocessableEntity, err.Error()
	case domain.KindUnauthorized:
		status, message = http.StatusUnauthorized, err.Error()
	}
	c.JSON(status, gin.H{"status": "error", "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": message})
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing username or password")
		return
	}
	userID, err := h.users.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user_id": userID})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing username or password")
		return
	}
	userID, err := h.users.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user_id": userID})
}

func (h *Handler) listThemes(c *gin.Context) {
	themes, err := h.themes.ListThemes(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"themes": themes})
}

type startGameRequest struct {
	ThemeID int64  `json:"theme_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

func (h *Handler) startGame(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing theme_id or user_id")
		return
	}
	started, err := h.games.Start(c.Request.Context(), req.ThemeID, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"game_id":         started.SessionID,
		"question":        started.Question,
		"total_questions": started.TotalQuestions,
	})
}

type submitAnswerRequest struct {
	GameID    string   `json:"game_id" binding:"required"`
	Answer    *string  `json:"answer"`
	TimeTaken *float64 `json:"time_taken"`
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing game_id")
		return
	}
	result, err := h.games.SubmitAnswer(c.Request.Context(), req.GameID, req.Answer, req.TimeTaken)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"is_correct":     result.Correct,
		"correct_answer": result.CorrectAnswer,
		"points":         result.Points,
		"score":          result.Score,
		"time_taken":     result.TimeTaken,
		"next_question":  result.NextQuestion,
		"game_finished":  result.Finished,
	})
}

func (h *Handler) leaderboard(c *gin.Context) {
	var themeID int64
	if raw := c.Query("theme"); raw != "" && raw != "general" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid theme")
			return
		}
		themeID = parsed
	}
	rows, err := h.scores.TopScores(c.Request.Context(), themeID, 10)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"scores": rows})
}

type createRoomRequest struct {
	ThemeID int64  `json:"theme_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

func (h *Handler) createDuelRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing theme_id or user_id")
		return
	}
	code, err := h.duels.CreateRoom(c.Request.Context(), req.ThemeID, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"room_code": code})
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
}

func (h *Handler) joinDuelRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing room_code or user_id")
		return
	}
	if err := h.duels.JoinRoom(c.Request.Context(), req.RoomCode, req.UserID); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{})
}

func (h *Handler) roomPlayers(c *gin.Context) {
	code := c.Query("room_code")
	userID := c.Query("user_id")
	if code == "" {
		badRequest(c, "missing room_code")
		return
	}
	roster, err := h.duels.ListPlayers(c.Request.Context(), code, userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"players":      roster.Players,
		"is_host":      roster.IsHost,
		"game_started": roster.Started,
	})
}

func (h *Handler) startDuel(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing room_code or user_id")
		return
	}
	started, err := h.duels.StartDuel(c.Request.Context(), req.RoomCode, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"first_question":  started.Question,
		"total_questions": started.TotalQuestions,
	})
}
