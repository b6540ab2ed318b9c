package service

import (
	"context"
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
)

// QuizAnalytics сводка по всем викторинам, массивы выровнены по индексу
type QuizAnalytics struct {
	Labels        []string
	Attempts      []int
	AverageScores []float64
}

// QuestionStat доля верных ответов на вопрос
type QuestionStat struct {
	QuestionID        uint
	CorrectPercentage float64
}

// UserPerformance история баллов пользователя в хронологическом порядке
type UserPerformance struct {
	Labels     []string
	Scores     []int
	Timestamps []time.Time
}

// SubjectBest лучший результат пользователя по предмету
type SubjectBest struct {
	Subject  string
	MaxScore int
	QuizName string
}

// UserSummary данные страницы сводки пользователя
type UserSummary struct {
	Scores           []entity.Score
	TotalAttempts    int
	SubjectLabels    []string
	SubjectAvgScores []float64
	QuizLabels       []string
	QuizScores       []int
	// SubjectBest в порядке первой попытки по предмету
	SubjectBest []SubjectBest
}

// AttemptRow строка выгрузки попыток викторины
type AttemptRow struct {
	ScoreID     uint
	Username    string
	FullName    string
	Email       string
	Score       int
	Total       int
	Percentage  float64
	SubmittedAt time.Time
}

// StatsService агрегаты для графиков и отчетов. Считаются на лету по таблице scores.
type StatsService struct {
	quizRepo    repository.QuizRepository
	scoreRepo   repository.ScoreRepository
	subjectRepo repository.SubjectRepository
	log         *logger.Logger
}

// NewStatsService создает новый сервис статистики
func NewStatsService(
	quizRepo repository.QuizRepository,
	scoreRepo repository.ScoreRepository,
	subjectRepo repository.SubjectRepository,
	log *logger.Logger,
) *StatsService {
	return &StatsService{
		quizRepo:    quizRepo,
		scoreRepo:   scoreRepo,
		subjectRepo: subjectRepo,
		log:         log.Component("StatsService"),
	}
}

// QuizAnalytics число попыток и средний балл по каждой викторине
func (s *StatsService) QuizAnalytics(ctx context.Context) (*QuizAnalytics, error) {
	quizzes, err := s.quizRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.scoreRepo.QuizTotals(ctx)
	if err != nil {
		return nil, err
	}
	byQuiz := make(map[uint]repository.QuizScoreTotal, len(totals))
	for _, t := range totals {
		byQuiz[t.QuizID] = t
	}

	out := &QuizAnalytics{
		Labels:        make([]string, 0, len(quizzes)),
		Attempts:      make([]int, 0, len(quizzes)),
		AverageScores: make([]float64, 0, len(quizzes)),
	}
	for i := range quizzes {
		out.Labels = append(out.Labels, quizLabel(&quizzes[i]))
		t, ok := byQuiz[quizzes[i].ID]
		if !ok || t.Attempts == 0 {
			out.Attempts = append(out.Attempts, 0)
			out.AverageScores = append(out.AverageScores, 0)
			continue
		}
		out.Attempts = append(out.Attempts, t.Attempts)
		out.AverageScores = append(out.AverageScores, round1(float64(t.Total)/float64(t.Attempts)))
	}
	return out, nil
}

// QuestionStats доля попыток викторины, в которых на вопрос выбран верный вариант
func (s *StatsService) QuestionStats(ctx context.Context, quizID uint) ([]QuestionStat, error) {
	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	out := make([]QuestionStat, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		correct := 0
		for _, sc := range scores {
			if opt, ok := sc.Answers.Selected(q.ID); ok && q.IsCorrect(opt) {
				correct++
			}
		}
		out = append(out, QuestionStat{QuestionID: q.ID, CorrectPercentage: percentage(correct, len(scores))})
	}
	return out, nil
}

// UserPerformance баллы пользователя по порядку попыток
func (s *StatsService) UserPerformance(ctx context.Context, userID uint) (*UserPerformance, error) {
	scores, err := s.scoreRepo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	out := &UserPerformance{
		Labels:     make([]string, 0, len(scores)),
		Scores:     make([]int, 0, len(scores)),
		Timestamps: make([]time.Time, 0, len(scores)),
	}
	for i := range scores {
		out.Labels = append(out.Labels, quizLabel(scores[i].Quiz))
		out.Scores = append(out.Scores, scores[i].TotalScored)
		out.Timestamps = append(out.Timestamps, scores[i].TimeStamp)
	}
	return out, nil
}

// UserSummary средние по предметам, баллы по викторинам и лучший результат по предмету
func (s *StatsService) UserSummary(ctx context.Context, userID uint) (*UserSummary, error) {
	subjects, err := s.subjectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	out := &UserSummary{
		Scores:           scores,
		TotalAttempts:    len(scores),
		SubjectLabels:    make([]string, 0, len(subjects)),
		SubjectAvgScores: make([]float64, 0, len(subjects)),
		QuizLabels:       make([]string, 0, len(scores)),
		QuizScores:       make([]int, 0, len(scores)),
	}

	for _, subj := range subjects {
		sum, n := 0, 0
		for i := range scores {
			if subjectOf(&scores[i]) != nil && subjectOf(&scores[i]).ID == subj.ID {
				sum += scores[i].TotalScored
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = float64(sum) / float64(n)
		}
		out.SubjectLabels = append(out.SubjectLabels, subj.Name)
		out.SubjectAvgScores = append(out.SubjectAvgScores, avg)
	}

	best := make(map[string]int)
	for i := range scores {
		sc := &scores[i]
		subjectName := ""
		if subj := subjectOf(sc); subj != nil {
			subjectName = subj.Name
		}
		quizName := ""
		if sc.Quiz != nil {
			quizName = sc.Quiz.QuizName
		}
		out.QuizLabels = append(out.QuizLabels, quizName+" - "+subjectName)
		out.QuizScores = append(out.QuizScores, sc.TotalScored)

		idx, seen := best[subjectName]
		switch {
		case !seen:
			best[subjectName] = len(out.SubjectBest)
			out.SubjectBest = append(out.SubjectBest, SubjectBest{Subject: subjectName, MaxScore: sc.TotalScored, QuizName: quizName})
		case sc.TotalScored > out.SubjectBest[idx].MaxScore:
			out.SubjectBest[idx].MaxScore = sc.TotalScored
			out.SubjectBest[idx].QuizName = quizName
		}
	}
	return out, nil
}

// AllAttempts все попытки, новые сверху
func (s *StatsService) AllAttempts(ctx context.Context) ([]entity.Score, error) {
	return s.scoreRepo.ListAll(ctx)
}

// AttemptDetails попытка вместе с вопросами ее викторины
func (s *StatsService) AttemptDetails(ctx context.Context, scoreID uint) (*entity.Score, *entity.Quiz, error) {
	score, err := s.scoreRepo.GetByID(ctx, scoreID)
	if err != nil {
		return nil, nil, err
	}
	quiz, err := s.quizRepo.GetWithQuestions(ctx, score.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return score, quiz, nil
}

// QuizAttempts строки выгрузки попыток викторины
func (s *StatsService) QuizAttempts(ctx context.Context, quizID uint) (*entity.Quiz, []AttemptRow, error) {
	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	scores, err := s.scoreRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}

	total := len(quiz.Questions)
	rows := make([]AttemptRow, 0, len(scores))
	for i := range scores {
		row := AttemptRow{
			ScoreID:     scores[i].ID,
			Score:       scores[i].TotalScored,
			Total:       total,
			Percentage:  percentage(scores[i].TotalScored, total),
			SubmittedAt: scores[i].TimeStamp,
		}
		if u := scores[i].User; u != nil {
			row.Username, row.FullName, row.Email = u.Username, u.FullName, u.Email
		}
		rows = append(rows, row)
	}
	s.log.Debug("Quiz attempts collected", "quiz_id", quizID, "rows", len(rows))
	return quiz, rows, nil
}

// quizLabel подпись викторины на графиках: примечание, а без него название
func quizLabel(q *entity.Quiz) string {
	if q == nil {
		return ""
	}
	if q.Remarks != "" {
		return q.Remarks
	}
	return q.QuizName
}

func subjectOf(sc *entity.Score) *entity.Subject {
	if sc.Quiz == nil || sc.Quiz.Chapter == nil {
		return nil
	}
	return sc.Quiz.Chapter.Subject
}
