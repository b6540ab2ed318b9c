package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/service"
)

const (
	userDashboardPath = "/user/dashboard"
	answerFieldPrefix = "question_"
)

// UserHandler страницы пользователя: дашборд, попытка, результаты, сводка
type UserHandler struct {
	quizService    *service.QuizService
	subjectService *service.SubjectService
	attemptService *service.AttemptService
	statsService   *service.StatsService
	render         *Renderer
	log            *logger.Logger
}

// NewUserHandler создает обработчик страниц пользователя
func NewUserHandler(
	quizService *service.QuizService,
	subjectService *service.SubjectService,
	attemptService *service.AttemptService,
	statsService *service.StatsService,
	render *Renderer,
	log *logger.Logger,
) *UserHandler {
	return &UserHandler{
		quizService:    quizService,
		subjectService: subjectService,
		attemptService: attemptService,
		statsService:   statsService,
		render:         render,
		log:            log.Component("UserHandler"),
	}
}

// Dashboard GET /user/dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	id, _ := middleware.Identity(c)

	quizzes, err := h.quizService.ListAvailable(ctx)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	scores, err := h.attemptService.History(ctx, id)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	subjects, err := h.subjectService.List(ctx)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	attempted := make(map[uint]bool, len(scores))
	for _, s := range scores {
		attempted[s.QuizID] = true
	}
	h.render.HTML(c, http.StatusOK, "user_dashboard.html", view.UserDashboard{
		Page:          h.render.Page(c, "Dashboard"),
		Quizzes:       quizzes,
		Attempted:     attempted,
		PastScores:    scores,
		TotalAttempts: len(scores),
		Subjects:      subjects,
	})
}

// AttemptPage GET /user/quiz/:id/attempt
func (h *UserHandler) AttemptPage(c *gin.Context) {
	id, _ := middleware.Identity(c)
	quizID := middleware.UintParam(c, idKey)

	session, err := h.attemptService.Open(c.Request.Context(), id, quizID)
	if err != nil {
		h.admissionFailure(c, quizID, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "quiz_attempt.html", view.QuizAttempt{
		Page:    h.render.Page(c, session.Quiz.QuizName),
		Quiz:    session.Quiz,
		EndTime: session.EndTime,
		IsOpen:  session.IsOpen,
	})
}

// SubmitAttempt POST /user/quiz/:id/attempt
func (h *UserHandler) SubmitAttempt(c *gin.Context) {
	id, _ := middleware.Identity(c)
	quizID := middleware.UintParam(c, idKey)

	score, err := h.attemptService.Submit(c.Request.Context(), id, quizID, answersFromForm(c))
	if err != nil {
		var notStarted *service.QuizNotStartedError
		switch {
		case errors.Is(err, service.ErrQuizExpired):
			h.render.Redirect(c, userDashboardPath, view.FlashDanger, "Quiz expired!")
		case errors.As(err, &notStarted), errors.Is(err, service.ErrAlreadyAttempted),
			errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnauthorized):
			h.admissionFailure(c, quizID, err)
		default:
			// ответы не сохранены, пользователь возвращается на дашборд
			h.log.Error("Submission failed", "user_id", id.UserID, "quiz_id", quizID, "error", err)
			h.render.Redirect(c, userDashboardPath, view.FlashDanger, "Submission failed")
		}
		return
	}

	message := fmt.Sprintf("Score: %d/%d", score.TotalScored, len(score.Quiz.Questions))
	h.render.Redirect(c, resultsPath(quizID), view.FlashSuccess, message)
}

// Results GET /user/quiz/:id/results
func (h *UserHandler) Results(c *gin.Context) {
	id, _ := middleware.Identity(c)
	result, err := h.attemptService.Result(c.Request.Context(), id, middleware.UintParam(c, idKey))
	if err != nil {
		if errors.Is(err, service.ErrNoAttempt) {
			h.render.Redirect(c, userDashboardPath, view.FlashWarning, "No attempt found for this quiz")
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "results.html", view.Results{Page: h.render.Page(c, "Results"), Result: result})
}

// Summary GET /user/summary
func (h *UserHandler) Summary(c *gin.Context) {
	id, _ := middleware.Identity(c)
	summary, err := h.statsService.UserSummary(c.Request.Context(), id.UserID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "summary.html", view.Summary{Page: h.render.Page(c, "Summary"), Summary: summary})
}

// AttemptHistory GET /user/attempt-history
func (h *UserHandler) AttemptHistory(c *gin.Context) {
	h.history(c, "attempt_history.html", "Attempt History")
}

// Scores GET /user/scores
func (h *UserHandler) Scores(c *gin.Context) {
	h.history(c, "scores.html", "Scores")
}

func (h *UserHandler) history(c *gin.Context, name, title string) {
	id, _ := middleware.Identity(c)
	scores, err := h.attemptService.History(c.Request.Context(), id)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, name, view.History{Page: h.render.Page(c, title), Scores: scores})
}

// admissionFailure переводит отказ в допуске в редирект с сообщением
func (h *UserHandler) admissionFailure(c *gin.Context, quizID uint, err error) {
	var notStarted *service.QuizNotStartedError
	switch {
	case errors.As(err, &notStarted):
		opens := notStarted.StartTime.In(h.quizService.Location()).Format(displayLayout)
		h.render.Redirect(c, userDashboardPath, view.FlashWarning, "Quiz opens at "+opens)
	case errors.Is(err, service.ErrAlreadyAttempted):
		h.render.Redirect(c, resultsPath(quizID), view.FlashInfo, "Already attempted")
	default:
		h.render.Error(c, err)
	}
}

// answersFromForm собирает поля question_<id>. Нечисловые значения пропускаются,
// лишние вопросы и варианты вне 1..4 отбрасывает сервис.
func answersFromForm(c *gin.Context) entity.Answers {
	answers := entity.Answers{}
	if err := c.Request.ParseForm(); err != nil {
		return answers
	}
	for key, values := range c.Request.PostForm {
		if !strings.HasPrefix(key, answerFieldPrefix) || len(values) == 0 {
			continue
		}
		qid, err := strconv.ParseUint(strings.TrimPrefix(key, answerFieldPrefix), 10, 64)
		if err != nil || qid == 0 {
			continue
		}
		opt, err := strconv.Atoi(values[0])
		if err != nil {
			continue
		}
		answers[uint(qid)] = opt
	}
	return answers
}

func resultsPath(quizID uint) string {
	return fmt.Sprintf("/user/quiz/%d/results", quizID)
}
