// Package survey はアンケート回答の検証・保存・取得を提供する。
package survey

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/repository"
	"github.com/hitoshi/hygienesurvey/internal/security"
)

// Service はアンケート回答に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.SurveyRepository
	sanitizer security.TextSanitizerService
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	repo repository.SurveyRepository,
	sanitizer security.TextSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Validate は回答が保存可能かを検証する。
// フィールドの欠落と型の検査はDecodeAnswersで済んでいるため、値の範囲は制限しない。
func Validate(answers *model.SurveyAnswers) error {
	if answers == nil {
		return model.NewValidationError(model.SurveyFields)
	}
	return nil
}

// Submit はユーザーの回答を受け取ったまま保存する。
// 既存の回答がある場合は丸ごと置き換え、IDと送信日時は毎回新しく採番する。
func (s *Service) Submit(ctx context.Context, userID string, answers *model.SurveyAnswers) (*model.SurveyResponse, error) {
	if err := Validate(answers); err != nil {
		return nil, err
	}

	record := &model.SurveyResponse{
		ID:            s.newID(),
		UserID:        userID,
		SubmittedAt:   s.now().UTC(),
		SurveyAnswers: *answers,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save survey: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSurveySubmitted()
	}
	s.logger.Info("survey submitted",
		slog.String("user_id", userID),
		slog.String("survey_id", record.ID),
	)
	if fields := s.markupFields(&record.SurveyAnswers); len(fields) > 0 {
		s.logger.Warn("survey answer contains markup",
			slog.String("survey_id", record.ID),
			slog.Any("fields", fields),
		)
	}
	return record, nil
}

// GetMine はユーザーの回答を返す。未回答の場合はnilを返す（エラーではない）。
func (s *Service) GetMine(ctx context.Context, userID string) (*model.SurveyResponse, error) {
	record, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return record, nil
}

// markupFields はHTMLとして解釈される内容を含む自由記述フィールドの名前を返す。
// 回答は変更しない。
func (s *Service) markupFields(a *model.SurveyAnswers) []string {
	if s.sanitizer == nil {
		return nil
	}
	var fields []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"common_health_issues", a.CommonHealthIssues},
		{"biggest_hygiene_issue", a.BiggestHygieneIssue},
		{"health_issues_due_hygiene", a.HealthIssuesDueHygiene},
		{"additional_comments", a.AdditionalComments},
	} {
		if s.sanitizer.HasMarkup(f.value) {
			fields = append(fields, f.name)
		}
	}
	return fields
}
