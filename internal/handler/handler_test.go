package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/quiz-master/internal/config"
	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	"github.com/yourusername/quiz-master/internal/repository/postgres"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/internal/storage"
	"github.com/yourusername/quiz-master/pkg/auth"
	"github.com/yourusername/quiz-master/pkg/auth/manager"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp собранное приложение поверх in-memory SQLite
type testApp struct {
	router       *gin.Engine
	db           *gorm.DB
	tokenManager *manager.TokenManager
	admin        *entity.User
	user         *entity.User
	quiz         *entity.Quiz
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.NewNop()
	now := func() time.Time { return testNow }

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Subject{}, &entity.Chapter{}, &entity.Quiz{}, &entity.Question{}, &entity.Score{}, &entity.QuizAttempt{}))

	userRepo := postgres.NewUserRepo(db)
	subjectRepo := postgres.NewSubjectRepo(db)
	chapterRepo := postgres.NewChapterRepo(db)
	quizRepo := postgres.NewQuizRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	scoreRepo := postgres.NewScoreRepo(db)

	avatars, err := storage.NewAvatarStore(config.UploadConfig{Dir: t.TempDir(), MaxSize: 1 << 20, AllowedExtensions: []string{"png", "jpg"}}, log)
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService("test-secret", nil, log)
	require.NoError(t, err)
	jwtService.SetClock(now)
	tokenManager := manager.NewTokenManager(jwtService, 12*time.Hour, 30*24*time.Hour, log)

	authService := service.NewAuthService(userRepo, jwtService, avatars, nil, now, log)
	userService := service.NewUserService(userRepo, subjectRepo, quizRepo, questionRepo, avatars, log)
	profileService := service.NewProfileService(userRepo, avatars, log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	chapterService := service.NewChapterService(chapterRepo, subjectRepo, log)
	quizService := service.NewQuizService(quizRepo, chapterRepo, time.UTC, now, log)
	questionService := service.NewQuestionService(questionRepo, quizRepo, log)
	attemptService := service.NewAttemptService(quizRepo, scoreRepo, now, log)
	statsService := service.NewStatsService(quizRepo, scoreRepo, subjectRepo, log)
	searchService := service.NewSearchService(userRepo, subjectRepo, quizRepo, questionRepo, 0, log)

	tmpl, err := LoadTemplates("../../web/templates", time.UTC)
	require.NoError(t, err)
	render := NewRenderer(time.UTC, now, log)

	router := NewRouter(RouterConfig{
		Templates:      tmpl,
		MaxUploadSize:  1 << 20,
		Auth:           NewAuthHandler(authService, tokenManager, render, log),
		Admin:          NewAdminHandler(userService, subjectService, chapterService, quizService, questionService, statsService, render, log),
		User:           NewUserHandler(quizService, subjectService, attemptService, statsService, render, log),
		Profile:        NewProfileHandler(userService, profileService, avatars, render, log),
		Main:           NewMainHandler(searchService, render),
		API:            NewAPIHandler(searchService, statsService, time.UTC, render, log),
		AuthMiddleware: middleware.NewAuthMiddleware(authService, tokenManager, log),
		RateLimiter:    middleware.NewRateLimiter(nil, log),
		Log:            log,
	})

	app := &testApp{router: router, db: db, tokenManager: tokenManager}
	app.seed(t)
	return app
}

// seed: администратор, пользователь и активная викторина с двумя вопросами
func (a *testApp) seed(t *testing.T) {
	t.Helper()
	a.admin = &entity.User{Username: "admin", Email: "admin@example.com", Password: "admin123", FullName: "Admin", IsAdmin: true, IsActive: true}
	a.user = &entity.User{Username: "alice", Email: "alice@example.com", Password: "secret123", FullName: "Alice", IsActive: true}
	require.NoError(t, a.db.Create(a.admin).Error)
	require.NoError(t, a.db.Create(a.user).Error)

	subject := &entity.Subject{Name: "Math", Description: "Numbers"}
	require.NoError(t, a.db.Create(subject).Error)
	chapter := &entity.Chapter{Name: "Algebra", SubjectID: subject.ID}
	require.NoError(t, a.db.Create(chapter).Error)
	a.quiz = &entity.Quiz{QuizName: "Algebra basics", StartTime: testNow.Add(-10 * time.Minute), Duration: 30, Remarks: "Week 1", Active: true, ChapterID: chapter.ID}
	a.quiz.SyncEndTime()
	require.NoError(t, a.db.Create(a.quiz).Error)
	for i, correct := range []int{1, 3} {
		q := &entity.Question{QuizID: a.quiz.ID, Statement: fmt.Sprintf("Question %d", i+1), Option1: "A", Option2: "B", Option3: "C", CorrectOption: correct}
		require.NoError(t, a.db.Create(q).Error)
		a.quiz.Questions = append(a.quiz.Questions, *q)
	}
}

// client хранит cookie между запросами, как браузер
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) anonymous() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

// loggedIn выдает сессию напрямую через TokenManager
func (a *testApp) loggedIn(t *testing.T, user *entity.User) *client {
	t.Helper()
	c := a.anonymous()
	rec := httptest.NewRecorder()
	_, err := a.tokenManager.IssueSession(rec, user, false)
	require.NoError(t, err)
	c.store(rec.Result().Cookies())
	return c
}

func (c *client) store(cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	c.app.router.ServeHTTP(rec, req)
	c.store(rec.Result().Cookies())
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post отправляет форму с CSRF токеном, вычисленным из cookie секрета
func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if secret, ok := c.cookies["csrf-secret"]; ok && form.Get(manager.CSRFFormField) == "" {
		form.Set(manager.CSRFFormField, manager.HashCSRFSecret(secret.Value))
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func TestRouter_AnonymousRedirectedToLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.anonymous().get("/user/dashboard")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fuser%2Fdashboard", rec.Header().Get("Location"))
}

func TestRouter_AnonymousAPIGetsJSON401(t *testing.T) {
	app := newTestApp(t)

	rec := app.anonymous().get("/api/search?q=alg")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRouter_NonAdminForbidden(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)

	for _, path := range []string{"/admin/dashboard", "/admin/subjects", "/stats/quiz_analytics"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusForbidden, rec.Code, "не-администратор не должен видеть %s", path)
	}
}

func TestRouter_LoginFlow(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()

	// Arrange: страница входа выдает CSRF секрет
	page := c.get("/login")
	require.Equal(t, http.StatusOK, page.Code)
	require.Contains(t, c.cookies, "csrf-secret")

	// Act
	rec := c.post("/login", url.Values{"username": {"alice"}, "password": {"secret123"}})

	// Assert
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
	assert.Contains(t, c.cookies, manager.SessionCookie, "После входа должна появиться cookie сессии")

	dashboard := c.get("/user/dashboard")
	assert.Equal(t, http.StatusOK, dashboard.Code)
	assert.Contains(t, dashboard.Body.String(), "Login successful!")
	assert.Contains(t, dashboard.Body.String(), "Algebra basics")
}

func TestRouter_LoginWrongPasswordRerendersForm(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/login")

	rec := c.post("/login", url.Values{"username": {"alice"}, "password": {"wrong-pass1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
	assert.NotContains(t, c.cookies, manager.SessionCookie)
}

func TestRouter_AdminLoginRejectsRegularUser(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/admin/login")

	rec := c.post("/admin/login", url.Values{"username": {"alice"}, "password": {"secret123"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid admin credentials.")
}

func TestRouter_LoginIgnoresExternalNext(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/login")

	rec := c.post("/login", url.Values{"username": {"alice"}, "password": {"secret123"}, "next": {"//evil.example.com"}})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
}

func TestRouter_PostWithoutCSRFRejected(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.admin)

	rec := c.post("/admin/subjects", url.Values{"name": {"Physics"}, manager.CSRFFormField: {"forged"}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var count int64
	app.db.Model(&entity.Subject{}).Where("name = ?", "Physics").Count(&count)
	assert.Zero(t, count, "Предмет не должен создаваться без валидного CSRF токена")
}

func TestRouter_Logout(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)

	rec := c.post("/logout", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, c.cookies, manager.SessionCookie)
	assert.Equal(t, http.StatusFound, c.get("/user/dashboard").Code)
}

func TestRouter_RegisterValidationAndSuccess(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/register")

	form := url.Values{
		"username":  {"bobby"},
		"email":     {"bob@example.com"},
		"password":  {"password1"},
		"confirm":   {"password2"},
		"full_name": {"Bob"},
		"dob":       {"2000-01-02"},
	}
	rec := c.post("/register", form)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="bobby"`, "Форма должна сохранить введенные значения")

	form.Set("confirm", "password1")
	rec = c.post("/register", form)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var user entity.User
	require.NoError(t, app.db.Where("username = ?", "bobby").First(&user).Error)
	assert.True(t, user.CheckPassword("password1"))
}

func TestRouter_RegisterOversizedAvatarRejected(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/register")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, value := range map[string]string{
		"username":  "bigbob",
		"email":     "bigbob@example.com",
		"password":  "password1",
		"confirm":   "password1",
		"full_name": "Big Bob",
		"dob":       "2000-01-02",
	} {
		require.NoError(t, w.WriteField(field, value))
	}
	require.NoError(t, w.WriteField(manager.CSRFFormField, manager.HashCSRFSecret(c.cookies["csrf-secret"].Value)))
	part, err := w.CreateFormFile("avatar", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 20<<20))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := c.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "File is too large.")
	var count int64
	app.db.Model(&entity.User{}).Where("username = ?", "bigbob").Count(&count)
	assert.Zero(t, count, "Пользователь не должен создаваться при превышении лимита")
}

func TestRouter_RegisterDuplicateShowsMessage(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/register")

	rec := c.post("/register", url.Values{
		"username":  {"alice"},
		"email":     {"other@example.com"},
		"password":  {"password1"},
		"confirm":   {"password1"},
		"full_name": {"Alice Again"},
		"dob":       {"2000-01-02"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User with this username or email already exists.")
}

func TestRouter_AttemptSubmitAndDuplicate(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)
	path := fmt.Sprintf("/user/quiz/%d/attempt", app.quiz.ID)
	q1, q2 := app.quiz.Questions[0], app.quiz.Questions[1]

	// Arrange: страница попытки открыта
	page := c.get(path)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), fmt.Sprintf(`name="question_%d"`, q1.ID))

	// Act: один верный, один неверный ответ
	rec := c.post(path, url.Values{
		fmt.Sprintf("question_%d", q1.ID): {"1"},
		fmt.Sprintf("question_%d", q2.ID): {"2"},
	})

	// Assert
	results := fmt.Sprintf("/user/quiz/%d/results", app.quiz.ID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, results, rec.Header().Get("Location"))

	var score entity.Score
	require.NoError(t, app.db.Where("user_id = ? AND quiz_id = ?", app.user.ID, app.quiz.ID).First(&score).Error)
	assert.Equal(t, 1, score.TotalScored)

	page = c.get(results)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Score: 1/2")
	assert.Contains(t, page.Body.String(), "50.0%")

	// Повторная попытка отклоняется
	again := c.post(path, url.Values{fmt.Sprintf("question_%d", q1.ID): {"1"}})
	assert.Equal(t, http.StatusFound, again.Code)
	assert.Equal(t, results, again.Header().Get("Location"))
	var count int64
	app.db.Model(&entity.Score{}).Where("user_id = ?", app.user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRouter_AttemptStorageFailureRedirectsToDashboard(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)
	path := fmt.Sprintf("/user/quiz/%d/attempt", app.quiz.ID)
	require.Equal(t, http.StatusOK, c.get(path).Code)
	require.NoError(t, app.db.Exec("CREATE TRIGGER scores_reject BEFORE INSERT ON scores BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END").Error)

	rec := c.post(path, url.Values{fmt.Sprintf("question_%d", app.quiz.Questions[0].ID): {"1"}})

	assert.Equal(t, http.StatusFound, rec.Code, "Ошибка хранилища не должна превращаться в страницу 500")
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
	assert.Contains(t, c.get("/user/dashboard").Body.String(), "Submission failed")
	var count int64
	app.db.Model(&entity.Score{}).Count(&count)
	assert.Zero(t, count)
}

func TestRouter_AttemptBeforeStartRedirects(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Model(app.quiz).Updates(map[string]interface{}{"start_time": testNow.Add(time.Hour), "end_time": testNow.Add(90 * time.Minute)}).Error)
	c := app.loggedIn(t, app.user)

	rec := c.get(fmt.Sprintf("/user/quiz/%d/attempt", app.quiz.ID))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
	assert.Contains(t, c.get("/user/dashboard").Body.String(), "Quiz opens at 10 Mar 2026, 01:00 PM")
}

func TestRouter_ResultsWithoutAttempt(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)

	rec := c.get(fmt.Sprintf("/user/quiz/%d/results", app.quiz.ID))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
}

func TestRouter_UnknownQuizIs404(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.admin)

	assert.Equal(t, http.StatusNotFound, c.get("/admin/quizzes/9999/edit").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/admin/quizzes/abc/edit").Code)
	assert.Equal(t, http.StatusNotFound, c.post("/admin/subjects/9999/delete", nil).Code)
}

func TestRouter_AdminCatalogCRUD(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.admin)

	// Создание предмета
	rec := c.post("/admin/subjects", url.Values{"name": {"Physics"}, "description": {"Forces"}})
	require.Equal(t, http.StatusFound, rec.Code)
	var subject entity.Subject
	require.NoError(t, app.db.Where("name = ?", "Physics").First(&subject).Error)

	// Дубликат имени показывает сообщение
	rec = c.post("/admin/subjects", url.Values{"name": {"Physics"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), countRows(t, app.db, &entity.Subject{}, "name = ?", "Physics"))

	// Глава и викторина
	rec = c.post(fmt.Sprintf("/admin/subjects/%d/chapters", subject.ID), url.Values{"name": {"Mechanics"}})
	require.Equal(t, http.StatusFound, rec.Code)
	var chapter entity.Chapter
	require.NoError(t, app.db.Where("name = ?", "Mechanics").First(&chapter).Error)

	rec = c.post(fmt.Sprintf("/admin/chapters/%d/quizzes/new", chapter.ID), url.Values{
		"quiz_name":  {"Newton"},
		"start_time": {"2026-03-11T09:30"},
		"duration":   {"01:15"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	var quiz entity.Quiz
	require.NoError(t, app.db.Where("quiz_name = ?", "Newton").First(&quiz).Error)
	assert.Equal(t, 75, quiz.Duration)
	assert.True(t, time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC).Equal(quiz.StartTime))

	// Неверная длительность возвращает форму с ошибкой
	rec = c.post(fmt.Sprintf("/admin/quizzes/%d/edit", quiz.ID), url.Values{
		"quiz_name":  {"Newton"},
		"start_time": {"2026-03-11T09:30"},
		"duration":   {"1:15"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Use HH:MM format")

	// Вопрос с правильным вариантом на пустой опции отклоняется
	rec = c.post(fmt.Sprintf("/admin/quizzes/%d/questions", quiz.ID), url.Values{
		"question_statement": {"F = ?"},
		"option1":            {"ma"},
		"option2":            {"mv"},
		"correct_option":     {"4"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countRows(t, app.db, &entity.Question{}, "quiz_id = ?", quiz.ID))

	// Каскадное удаление предмета
	rec = c.post(fmt.Sprintf("/admin/subjects/%d/delete", subject.ID), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, countRows(t, app.db, &entity.Chapter{}, "subject_id = ?", subject.ID))
	assert.Zero(t, countRows(t, app.db, &entity.Quiz{}, "id = ?", quiz.ID))
}

func TestRouter_AdminCannotDeleteAdmin(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.admin)

	rec := c.post(fmt.Sprintf("/admin/users/%d/delete", app.admin.ID), nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int64(1), countRows(t, app.db, &entity.User{}, "id = ?", app.admin.ID))
}

func TestRouter_DeletedUserLosesSession(t *testing.T) {
	app := newTestApp(t)
	admin := app.loggedIn(t, app.admin)
	user := app.loggedIn(t, app.user)

	rec := admin.post(fmt.Sprintf("/admin/users/%d/delete", app.user.ID), nil)
	require.Equal(t, http.StatusFound, rec.Code)

	assert.Equal(t, http.StatusFound, user.get("/user/dashboard").Code, "Сессия удаленного пользователя недействительна")
}

func TestRouter_APISearch(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		user     *entity.User
		query    string
		wantKeys []string
	}{
		{"empty term", app.user, "", nil},
		{"regular user", app.user, "alg", []string{"quizzes", "subjects"}},
		{"admin", app.admin, "alg", []string{"questions", "quizzes", "subjects", "users"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.loggedIn(t, tt.user).get("/api/search?q=" + url.QueryEscape(tt.query))

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			keys := make([]string, 0, len(body))
			for k := range body {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}

func TestRouter_StatsEndpoints(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Create(&entity.Score{
		UserID: app.user.ID, QuizID: app.quiz.ID, TotalScored: 2, TimeStamp: testNow,
		Answers: entity.Answers{app.quiz.Questions[0].ID: 1, app.quiz.Questions[1].ID: 3},
	}).Error)

	admin := app.loggedIn(t, app.admin)
	rec := admin.get("/stats/quiz_analytics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels":["Week 1"],"attempts":[1],"average_scores":[2]}`, rec.Body.String())

	rec = admin.get(fmt.Sprintf("/stats/question_stats/%d", app.quiz.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats []map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, 100.0, stats[0]["correct_percentage"])

	rec = app.loggedIn(t, app.user).get("/stats/user/performance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels":["Week 1"],"scores":[2],"timestamps":["2026-03-10T12:00:00Z"]}`, rec.Body.String())
}

func TestRouter_ExportCSV(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Model(app.user).Update("full_name", "=cmd()").Error)
	require.NoError(t, app.db.Create(&entity.Score{UserID: app.user.ID, QuizID: app.quiz.ID, TotalScored: 1, TimeStamp: testNow, Answers: entity.Answers{}}).Error)
	c := app.loggedIn(t, app.admin)

	rec := c.get(fmt.Sprintf("/admin/quizzes/%d/export?format=csv", app.quiz.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	body := strings.TrimPrefix(rec.Body.String(), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Username,Full Name,Email,Score,Total Questions,Percentage,Submitted At", lines[0])
	assert.Contains(t, lines[1], "alice,'=cmd(),alice@example.com,1,2,50.0")
}

func TestRouter_ExportXLSXAndBadFormat(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.admin)

	rec := c.get(fmt.Sprintf("/admin/quizzes/%d/export?format=xlsx", app.quiz.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx это zip-архив")

	assert.Equal(t, http.StatusBadRequest, c.get(fmt.Sprintf("/admin/quizzes/%d/export?format=pdf", app.quiz.ID)).Code)
}

func TestRouter_ProfileUpdate(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)

	rec := c.post("/profile/edit", url.Values{"bio": {"Hello"}, "website": {"not a url"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/profile/edit", url.Values{"bio": {"Hello"}, "location": {"Pune"}})
	assert.Equal(t, http.StatusFound, rec.Code)

	var user entity.User
	require.NoError(t, app.db.First(&user, app.user.ID).Error)
	assert.Equal(t, "Hello", user.Bio)
	assert.Equal(t, "Pune", user.Location)
	assert.Equal(t, "Alice", user.FullName, "Пустое поле оставляет текущее значение")
}

func TestRouter_UploadRejectsTraversal(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, app.user)

	assert.Equal(t, http.StatusNotFound, c.get("/uploads/missing.png").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/uploads/..%2Fsecret").Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.anonymous().get("/no-such-page")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not exist")
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Model(model).Where(query, args...).Count(&n).Error)
	return n
}
