package analytics

import (
	"math"

	"github.com/hitoshi/hygienesurvey/internal/model"
)

// unknownBucket は値を取得できないフィールドを集計するバケット名。
// 空文字列の回答は独立した""バケットとして数える。
const unknownBucket = "Unknown"

// healthPracticeFields はユーザー回答のうち衛生習慣として表示するフィールド。
var healthPracticeFields = []string{
	"doctor_visits",
	"hand_washing",
	"teeth_brushing",
	"water_purification",
	"surface_disinfection",
}

// accessIssueFields はユーザー回答のうちアクセス課題として表示するフィールド。
var accessIssueFields = []string{
	"medicines_available",
	"clean_water_access",
	"community_waste_system",
	"healthcare_affordability",
}

// StatsFields は地域統計を算出するフィールド。
var StatsFields = []string{
	"doctor_visits",
	"hand_washing",
	"medicines_available",
	"clean_water_access",
	"healthcare_affordability",
}

// UserResponses はチャート表示用に抜き出した本人の回答。
type UserResponses struct {
	HealthPractices map[string]string `json:"health_practices"`
	AccessIssues    map[string]string `json:"access_issues"`
}

// CommunityStats はフィールドごとの回答値の割合（%）。
type CommunityStats map[string]map[string]float64

// BuildUserResponses は本人の回答からチャート表示用の値を抜き出す。
func BuildUserResponses(survey *model.SurveyResponse) UserResponses {
	return UserResponses{
		HealthPractices: pick(&survey.SurveyAnswers, healthPracticeFields),
		AccessIssues:    pick(&survey.SurveyAnswers, accessIssueFields),
	}
}

func pick(a *model.SurveyAnswers, fields []string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		v, _ := a.Field(field)
		values[field] = v
	}
	return values
}

// ComputeCommunityStats は全回答から各フィールドの回答値の割合を算出する。
// 割合は小数第1位に四捨五入する（0.5は0から遠い方へ丸める）。
// 回答が0件の場合は空のマップを返す。
func ComputeCommunityStats(all []*model.SurveyResponse) CommunityStats {
	stats := make(CommunityStats)
	total := len(all)
	if total == 0 {
		return stats
	}

	for _, field := range StatsFields {
		counts := make(map[string]int)
		for _, survey := range all {
			value, ok := survey.Field(field)
			if !ok {
				value = unknownBucket
			}
			counts[value]++
		}

		percentages := make(map[string]float64, len(counts))
		for value, count := range counts {
			percentages[value] = roundOneDecimal(float64(count) / float64(total) * 100)
		}
		stats[field] = percentages
	}
	return stats
}

func roundOneDecimal(x float64) float64 {
	return math.Round(x*10) / 10
}
