package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/service"
)

// Ключ контекста для :id, извлекаемого middleware.ExtractUintParam
const idKey = "id"

var (
	subjectFields  = []string{"name", "description"}
	quizFields     = []string{"quiz_name", "start_time", "duration", "remarks"}
	questionFields = []string{"question_statement", "option1", "option2", "option3", "option4", "correct_option"}
)

// AdminHandler страницы администратора: каталог, пользователи, попытки
type AdminHandler struct {
	userService     *service.UserService
	subjectService  *service.SubjectService
	chapterService  *service.ChapterService
	quizService     *service.QuizService
	questionService *service.QuestionService
	statsService    *service.StatsService
	render          *Renderer
	log             *logger.Logger
}

// NewAdminHandler создает обработчик страниц администратора
func NewAdminHandler(
	userService *service.UserService,
	subjectService *service.SubjectService,
	chapterService *service.ChapterService,
	quizService *service.QuizService,
	questionService *service.QuestionService,
	statsService *service.StatsService,
	render *Renderer,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		subjectService:  subjectService,
		chapterService:  chapterService,
		quizService:     quizService,
		questionService: questionService,
		statsService:    statsService,
		render:          render,
		log:             log.Component("AdminHandler"),
	}
}

// Dashboard GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	counts, err := h.userService.DashboardCounts(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_dashboard.html", view.AdminDashboard{Page: h.render.Page(c, "Admin Dashboard"), Counts: counts})
}

// Users GET /admin/users
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_users.html", view.Users{Page: h.render.Page(c, "Users"), Users: users})
}

// DeleteUser POST /admin/users/:id/delete
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	user, err := h.userService.Delete(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			h.render.Redirect(c, "/admin/users", view.FlashDanger, "Admin accounts cannot be deleted.")
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, "/admin/users", view.FlashSuccess, fmt.Sprintf("User %s deleted.", user.Username))
}

// Subjects GET /admin/subjects
func (h *AdminHandler) Subjects(c *gin.Context) {
	h.renderSubjects(c, http.StatusOK, view.NewForm())
}

// CreateSubject POST /admin/subjects
func (h *AdminHandler) CreateSubject(c *gin.Context) {
	var in service.SubjectInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	if _, err := h.subjectService.Create(c.Request.Context(), in); err != nil {
		form := formFrom(c, subjectFields...)
		if h.formFailure(c, &form, err) {
			h.renderSubjects(c, http.StatusOK, form)
		}
		return
	}
	h.render.Redirect(c, "/admin/subjects", view.FlashSuccess, "Subject created successfully!")
}

// EditSubjectPage GET /admin/subjects/:id/edit
func (h *AdminHandler) EditSubjectPage(c *gin.Context) {
	subject, err := h.subjectService.Get(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	form := view.NewForm()
	form.Values["name"] = subject.Name
	form.Values["description"] = subject.Description
	h.render.HTML(c, http.StatusOK, "admin_subject_edit.html", view.SubjectEdit{Page: h.render.Page(c, "Edit Subject"), Subject: subject, Form: form})
}

// UpdateSubject POST /admin/subjects/:id/edit
func (h *AdminHandler) UpdateSubject(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.UintParam(c, idKey)
	var in service.SubjectInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	if _, err := h.subjectService.Update(ctx, id, in); err != nil {
		form := formFrom(c, subjectFields...)
		if !h.formFailure(c, &form, err) {
			return
		}
		subject, err := h.subjectService.Get(ctx, id)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "admin_subject_edit.html", view.SubjectEdit{Page: h.render.Page(c, "Edit Subject"), Subject: subject, Form: form})
		return
	}
	h.render.Redirect(c, "/admin/subjects", view.FlashSuccess, "Subject updated successfully!")
}

// DeleteSubject POST /admin/subjects/:id/delete
func (h *AdminHandler) DeleteSubject(c *gin.Context) {
	if err := h.subjectService.Delete(c.Request.Context(), middleware.UintParam(c, idKey)); err != nil {
		h.deleteFailure(c, err, "/admin/subjects")
		return
	}
	h.render.Redirect(c, "/admin/subjects", view.FlashSuccess, "Subject deleted successfully!")
}

// Chapters GET /admin/subjects/:id/chapters
func (h *AdminHandler) Chapters(c *gin.Context) {
	h.renderChapters(c, view.NewForm())
}

// CreateChapter POST /admin/subjects/:id/chapters
func (h *AdminHandler) CreateChapter(c *gin.Context) {
	subjectID := middleware.UintParam(c, idKey)
	var in service.ChapterInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	if _, err := h.chapterService.Create(c.Request.Context(), subjectID, in); err != nil {
		form := formFrom(c, subjectFields...)
		if h.formFailure(c, &form, err) {
			h.renderChapters(c, form)
		}
		return
	}
	h.render.Redirect(c, chaptersPath(subjectID), view.FlashSuccess, "Chapter added successfully!")
}

// EditChapterPage GET /admin/chapters/:id/edit
func (h *AdminHandler) EditChapterPage(c *gin.Context) {
	chapter, err := h.chapterService.Get(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	form := view.NewForm()
	form.Values["name"] = chapter.Name
	form.Values["description"] = chapter.Description
	h.render.HTML(c, http.StatusOK, "admin_chapter_edit.html", view.ChapterEdit{Page: h.render.Page(c, "Edit Chapter"), Chapter: chapter, Form: form})
}

// UpdateChapter POST /admin/chapters/:id/edit
func (h *AdminHandler) UpdateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.UintParam(c, idKey)
	var in service.ChapterInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	chapter, err := h.chapterService.Update(ctx, id, in)
	if err != nil {
		form := formFrom(c, subjectFields...)
		if !h.formFailure(c, &form, err) {
			return
		}
		current, err := h.chapterService.Get(ctx, id)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "admin_chapter_edit.html", view.ChapterEdit{Page: h.render.Page(c, "Edit Chapter"), Chapter: current, Form: form})
		return
	}
	h.render.Redirect(c, chaptersPath(chapter.SubjectID), view.FlashSuccess, "Chapter updated successfully!")
}

// DeleteChapter POST /admin/chapters/:id/delete
func (h *AdminHandler) DeleteChapter(c *gin.Context) {
	chapter, err := h.chapterService.Delete(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.deleteFailure(c, err, "/admin/subjects")
		return
	}
	h.render.Redirect(c, chaptersPath(chapter.SubjectID), view.FlashSuccess, "Chapter deleted successfully!")
}

// Quizzes GET /admin/chapters/:id/quizzes
func (h *AdminHandler) Quizzes(c *gin.Context) {
	chapter, quizzes, err := h.quizService.ListByChapter(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_quizzes.html", view.Quizzes{Page: h.render.Page(c, "Quizzes"), Chapter: chapter, Quizzes: quizzes})
}

// NewQuizPage GET /admin/chapters/:id/quizzes/new
func (h *AdminHandler) NewQuizPage(c *gin.Context) {
	chapterID := middleware.UintParam(c, idKey)
	chapter, err := h.chapterService.Get(c.Request.Context(), chapterID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_quiz_form.html", view.QuizForm{
		Page:    h.render.Page(c, "New Quiz"),
		Chapter: chapter,
		Form:    view.NewForm(),
		Action:  fmt.Sprintf("/admin/chapters/%d/quizzes/new", chapterID),
	})
}

// CreateQuiz POST /admin/chapters/:id/quizzes/new
func (h *AdminHandler) CreateQuiz(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := middleware.UintParam(c, idKey)
	var in service.QuizInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	if _, err := h.quizService.Create(ctx, chapterID, in); err != nil {
		form := formFrom(c, quizFields...)
		if !h.formFailure(c, &form, err) {
			return
		}
		chapter, err := h.chapterService.Get(ctx, chapterID)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "admin_quiz_form.html", view.QuizForm{
			Page:    h.render.Page(c, "New Quiz"),
			Chapter: chapter,
			Form:    form,
			Action:  fmt.Sprintf("/admin/chapters/%d/quizzes/new", chapterID),
		})
		return
	}
	h.render.Redirect(c, quizzesPath(chapterID), view.FlashSuccess, "Quiz added successfully!")
}

// EditQuizPage GET /admin/quizzes/:id/edit
func (h *AdminHandler) EditQuizPage(c *gin.Context) {
	quiz, err := h.quizService.Get(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	form := view.NewForm()
	form.Values["quiz_name"] = quiz.QuizName
	form.Values["start_time"] = quiz.StartTime.In(h.quizService.Location()).Format(formLayout)
	form.Values["duration"] = quiz.DurationHHMM()
	form.Values["remarks"] = quiz.Remarks
	h.renderQuizEdit(c, quiz, form)
}

// UpdateQuiz POST /admin/quizzes/:id/edit
func (h *AdminHandler) UpdateQuiz(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.UintParam(c, idKey)
	var in service.QuizInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	quiz, err := h.quizService.Update(ctx, id, in)
	if err != nil {
		form := formFrom(c, quizFields...)
		if !h.formFailure(c, &form, err) {
			return
		}
		current, err := h.quizService.Get(ctx, id)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.renderQuizEdit(c, current, form)
		return
	}
	h.render.Redirect(c, quizzesPath(quiz.ChapterID), view.FlashSuccess, "Quiz updated successfully!")
}

// DeleteQuiz POST /admin/quizzes/:id/delete
func (h *AdminHandler) DeleteQuiz(c *gin.Context) {
	quiz, err := h.quizService.Delete(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.deleteFailure(c, err, "/admin/subjects")
		return
	}
	h.render.Redirect(c, quizzesPath(quiz.ChapterID), view.FlashSuccess, "Quiz deleted successfully!")
}

// Questions GET /admin/quizzes/:id/questions
func (h *AdminHandler) Questions(c *gin.Context) {
	h.renderQuestions(c, view.NewForm())
}

// CreateQuestion POST /admin/quizzes/:id/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	quizID := middleware.UintParam(c, idKey)
	in := bindQuestion(c)
	if _, err := h.questionService.Create(c.Request.Context(), quizID, in); err != nil {
		form := formFrom(c, questionFields...)
		if h.formFailure(c, &form, err) {
			h.renderQuestions(c, form)
		}
		return
	}
	h.render.Redirect(c, questionsPath(quizID), view.FlashSuccess, "Question added successfully!")
}

// EditQuestionPage GET /admin/questions/:id/edit
func (h *AdminHandler) EditQuestionPage(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	form := view.NewForm()
	form.Values["question_statement"] = question.Statement
	form.Values["option1"] = question.Option1
	form.Values["option2"] = question.Option2
	form.Values["option3"] = question.Option3
	form.Values["option4"] = question.Option4
	form.Values["correct_option"] = strconv.Itoa(question.CorrectOption)
	h.render.HTML(c, http.StatusOK, "admin_question_edit.html", view.QuestionEdit{Page: h.render.Page(c, "Edit Question"), Question: question, Form: form})
}

// UpdateQuestion POST /admin/questions/:id/edit
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.UintParam(c, idKey)
	in := bindQuestion(c)
	question, err := h.questionService.Update(ctx, id, in)
	if err != nil {
		form := formFrom(c, questionFields...)
		if !h.formFailure(c, &form, err) {
			return
		}
		current, err := h.questionService.Get(ctx, id)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "admin_question_edit.html", view.QuestionEdit{Page: h.render.Page(c, "Edit Question"), Question: current, Form: form})
		return
	}
	h.render.Redirect(c, questionsPath(question.QuizID), view.FlashSuccess, "Question updated successfully!")
}

// DeleteQuestion POST /admin/questions/:id/delete
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	question, err := h.questionService.Delete(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.deleteFailure(c, err, "/admin/subjects")
		return
	}
	h.render.Redirect(c, questionsPath(question.QuizID), view.FlashSuccess, "Question deleted successfully!")
}

// Attempts GET /admin/attempts
func (h *AdminHandler) Attempts(c *gin.Context) {
	scores, err := h.statsService.AllAttempts(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_attempts.html", view.Attempts{Page: h.render.Page(c, "User Attempts"), Attempts: scores})
}

// AttemptDetails GET /admin/attempts/:id
func (h *AdminHandler) AttemptDetails(c *gin.Context) {
	score, quiz, err := h.statsService.AttemptDetails(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_attempt_details.html", view.AttemptDetails{Page: h.render.Page(c, "Attempt Details"), Score: score, Quiz: quiz})
}

// QuizAttempts GET /admin/quizzes/:id/attempts
func (h *AdminHandler) QuizAttempts(c *gin.Context) {
	quiz, rows, err := h.statsService.QuizAttempts(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_quiz_attempts.html", view.QuizAttempts{Page: h.render.Page(c, "Quiz Attempts"), Quiz: quiz, Rows: rows})
}

// bindQuestion читает форму вопроса. Пустой или нечисловой correct_option
// превращается в ошибку поля, а не в 400.
func bindQuestion(c *gin.Context) service.QuestionInput {
	in := service.QuestionInput{
		Statement: c.PostForm("question_statement"),
		Option1:   c.PostForm("option1"),
		Option2:   c.PostForm("option2"),
		Option3:   c.PostForm("option3"),
		Option4:   c.PostForm("option4"),
	}
	if raw := c.PostForm("correct_option"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = -1
		}
		in.CorrectOption = n
	}
	return in
}

// formFailure обрабатывает ошибку сохранения формы. true означает, что форму
// нужно показать снова: ошибки полей или конфликт уже записаны в форму и flash.
func (h *AdminHandler) formFailure(c *gin.Context, form *view.Form, err error) bool {
	switch {
	case withErrors(form, err):
		return true
	case errors.Is(err, apperrors.ErrConflict):
		h.render.AddFlash(c, view.FlashDanger, reason(err, apperrors.ErrConflict))
		return true
	default:
		h.render.Error(c, err)
		return false
	}
}

// deleteFailure: 404 для отсутствующей записи, иначе откат и общее сообщение
func (h *AdminHandler) deleteFailure(c *gin.Context, err error, back string) {
	if errors.Is(err, apperrors.ErrNotFound) {
		h.render.Error(c, err)
		return
	}
	h.log.Error("Delete failed", "path", c.Request.URL.Path, "error", err)
	h.render.Redirect(c, back, view.FlashDanger, "Something went wrong. Nothing was deleted.")
}

func (h *AdminHandler) renderSubjects(c *gin.Context, status int, form view.Form) {
	subjects, err := h.subjectService.List(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, status, "admin_subjects.html", view.Subjects{Page: h.render.Page(c, "Subjects"), Subjects: subjects, Form: form})
}

func (h *AdminHandler) renderChapters(c *gin.Context, form view.Form) {
	subject, chapters, err := h.chapterService.ListBySubject(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_chapters.html", view.Chapters{Page: h.render.Page(c, "Chapters"), Subject: subject, Chapters: chapters, Form: form})
}

func (h *AdminHandler) renderQuestions(c *gin.Context, form view.Form) {
	quiz, questions, err := h.questionService.ListByQuiz(c.Request.Context(), middleware.UintParam(c, idKey))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_questions.html", view.Questions{Page: h.render.Page(c, "Questions"), Quiz: quiz, Questions: questions, Form: form})
}

func (h *AdminHandler) renderQuizEdit(c *gin.Context, quiz *entity.Quiz, form view.Form) {
	chapter, err := h.chapterService.Get(c.Request.Context(), quiz.ChapterID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_quiz_form.html", view.QuizForm{
		Page:    h.render.Page(c, "Edit Quiz"),
		Chapter: chapter,
		Quiz:    quiz,
		Form:    form,
		Action:  fmt.Sprintf("/admin/quizzes/%d/edit", quiz.ID),
	})
}

func chaptersPath(subjectID uint) string {
	return fmt.Sprintf("/admin/subjects/%d/chapters", subjectID)
}

func quizzesPath(chapterID uint) string {
	return fmt.Sprintf("/admin/chapters/%d/quizzes", chapterID)
}

func questionsPath(quizID uint) string {
	return fmt.Sprintf("/admin/quizzes/%d/questions", quizID)
}
