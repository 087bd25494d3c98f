package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

// psql はPostgreSQL用のプレースホルダ（$1, $2, ...）を生成するステートメントビルダー。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// surveyColumns はsurveysテーブルの全カラム。
// 回答カラムはmodel.SurveyFieldsと同じ順序で並ぶ。
var surveyColumns = append([]string{"id", "user_id", "submitted_at"}, model.SurveyFields...)

// surveyUpsertSuffix はuser_id衝突時に全カラムを置き換えるON CONFLICT句。
var surveyUpsertSuffix = buildUpsertSuffix()

func buildUpsertSuffix() string {
	assignments := make([]string, 0, len(surveyColumns))
	for _, col := range surveyColumns {
		if col == "user_id" {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return "ON CONFLICT (user_id) DO UPDATE SET " + strings.Join(assignments, ", ")
}

// PostgresSurveyRepo はPostgreSQLを使用したアンケート回答リポジトリ。
type PostgresSurveyRepo struct {
	db *sql.DB
}

// NewPostgresSurveyRepo はPostgresSurveyRepoを生成する。
func NewPostgresSurveyRepo(db *sql.DB) *PostgresSurveyRepo {
	return &PostgresSurveyRepo{db: db}
}

// Upsert はuser_idをキーに回答を丸ごと置き換える。
// 単一のINSERT ... ON CONFLICT文で実行するため、1ユーザー1件の不変条件はDB制約で保証される。
func (r *PostgresSurveyRepo) Upsert(ctx context.Context, survey *model.SurveyResponse) error {
	values := append([]any{survey.ID, survey.UserID, survey.SubmittedAt}, answerValues(&survey.SurveyAnswers)...)

	query, args, err := psql.Insert("surveys").
		Columns(surveyColumns...).
		Values(values...).
		Suffix(surveyUpsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build survey upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert survey: %w", err)
	}
	return nil
}

// FindByUserID は指定ユーザーの回答を取得する。未回答の場合はnilを返す。
func (r *PostgresSurveyRepo) FindByUserID(ctx context.Context, userID string) (*model.SurveyResponse, error) {
	query, args, err := psql.Select(surveyColumns...).
		From("surveys").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build survey select: %w", err)
	}

	survey := &model.SurveyResponse{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(surveyDest(survey)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find survey: %w", err)
	}
	return survey, nil
}

// ListAll は全ユーザーの回答を取得する。
func (r *PostgresSurveyRepo) ListAll(ctx context.Context) ([]*model.SurveyResponse, error) {
	query, args, err := psql.Select(surveyColumns...).From("surveys").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build survey select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*model.SurveyResponse
	for rows.Next() {
		survey := &model.SurveyResponse{}
		if err := rows.Scan(surveyDest(survey)...); err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surveys: %w", err)
	}

	return surveys, nil
}

// surveyDest はsurveyColumnsの順序でScan先のポインタを返す。
func surveyDest(s *model.SurveyResponse) []any {
	a := &s.SurveyAnswers
	return []any{
		&s.ID, &s.UserID, &s.SubmittedAt,
		&a.VillageName, &a.Date, &a.StudentName, &a.ContactNumber,
		&a.RespondentName, &a.RespondentAge, &a.RespondentOccupation, &a.RespondentContact,
		&a.DoctorVisits, &a.CommonHealthIssues, &a.MedicinesAvailable, &a.Vaccinations,
		&a.HandWashing, &a.TeethBrushing, &a.HygieneItems, &a.TravelHygiene,
		&a.CleanWaterAccess, &a.ToiletFacility, &a.WasteDisposal, &a.CommunityWasteSystem,
		&a.FoodCleaning, &a.WaterPurification, &a.CookingHygiene,
		&a.BiggestHygieneIssue, &a.HealthIssuesDueHygiene, &a.SurfaceDisinfection,
		&a.HygieneProgramsAwareness, &a.HealthcareAffordability, &a.AdditionalComments,
	}
}

// answerValues はmodel.SurveyFieldsの順序で回答値を返す。
func answerValues(a *model.SurveyAnswers) []any {
	return []any{
		a.VillageName, a.Date, a.StudentName, a.ContactNumber,
		a.RespondentName, a.RespondentAge, a.RespondentOccupation, a.RespondentContact,
		a.DoctorVisits, a.CommonHealthIssues, a.MedicinesAvailable, a.Vaccinations,
		a.HandWashing, a.TeethBrushing, a.HygieneItems, a.TravelHygiene,
		a.CleanWaterAccess, a.ToiletFacility, a.WasteDisposal, a.CommunityWasteSystem,
		a.FoodCleaning, a.WaterPurification, a.CookingHygiene,
		a.BiggestHygieneIssue, a.HealthIssuesDueHygiene, a.SurfaceDisinfection,
		a.HygieneProgramsAwareness, a.HealthcareAffordability, a.AdditionalComments,
	}
}

// compile-time interface check
var _ SurveyRepository = (*PostgresSurveyRepo)(nil)
