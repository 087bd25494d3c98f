// Package analytics はアンケート回答の集計と改善提案の生成を提供する。
package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/repository"
)

// Result は分析APIのレスポンス。
type Result struct {
	UserResponses  UserResponses  `json:"user_responses"`
	CommunityStats CommunityStats `json:"community_stats"`
	Suggestions    []Suggestion   `json:"suggestions"`
	TotalResponses int            `json:"total_responses"`
}

// Engine は本人の回答と地域全体の回答から分析結果を組み立てる。
type Engine struct {
	repo    repository.SurveyRepository
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewEngine はEngineを生成する。metricsはnilでもよい。
func NewEngine(repo repository.SurveyRepository, collector metrics.MetricsCollector, logger *slog.Logger) *Engine {
	return &Engine{
		repo:    repo,
		metrics: collector,
		logger:  logger,
	}
}

// Analyze は指定ユーザーの分析結果を返す。
// 未回答の場合はSURVEY_NOT_FOUNDのAPIErrorを返す。
func (e *Engine) Analyze(ctx context.Context, userID string) (*Result, error) {
	mine, err := e.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if mine == nil {
		return nil, model.NewSurveyNotFoundError()
	}

	all, err := e.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}

	result := &Result{
		UserResponses:  BuildUserResponses(mine),
		CommunityStats: ComputeCommunityStats(all),
		Suggestions:    Suggest(&mine.SurveyAnswers),
		TotalResponses: len(all),
	}

	if e.metrics != nil {
		e.metrics.RecordAnalyticsServed()
	}
	e.logger.Debug("analytics computed",
		slog.String("user_id", userID),
		slog.Int("total_responses", result.TotalResponses),
		slog.Int("suggestions", len(result.Suggestions)),
	)
	return result, nil
}
