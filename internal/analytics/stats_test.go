package analytics

import (
	"fmt"
	"testing"

	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID string, mutate func(a *model.SurveyAnswers)) *model.SurveyResponse {
	a := goodAnswers()
	if mutate != nil {
		mutate(a)
	}
	return &model.SurveyResponse{ID: "s-" + userID, UserID: userID, SurveyAnswers: *a}
}

func TestComputeCommunityStats_Empty(t *testing.T) {
	stats := ComputeCommunityStats(nil)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestComputeCommunityStats_TwoUsersSplitWater(t *testing.T) {
	all := []*model.SurveyResponse{
		record("u1", nil),
		record("u2", func(a *model.SurveyAnswers) { a.CleanWaterAccess = "No, access is very limited" }),
	}

	stats := ComputeCommunityStats(all)

	assert.Equal(t, map[string]float64{
		"Yes":                        50.0,
		"No, access is very limited": 50.0,
	}, stats["clean_water_access"])
	assert.Equal(t, map[string]float64{"Always": 100.0}, stats["hand_washing"])
}

func TestComputeCommunityStats_TracksOnlyStatsFields(t *testing.T) {
	stats := ComputeCommunityStats([]*model.SurveyResponse{record("u1", nil)})

	require.Len(t, stats, len(StatsFields))
	for _, field := range StatsFields {
		assert.Contains(t, stats, field)
	}
	assert.NotContains(t, stats, "teeth_brushing")
}

// sumTolerance は丸め誤差0.1に浮動小数点の誤差を加えた許容幅。
const sumTolerance = 0.1 + 1e-9

func TestComputeCommunityStats_SumsToHundred(t *testing.T) {
	values := []string{"Always", "Sometimes", "Rarely"}
	for n := 1; n <= 13; n++ {
		t.Run(fmt.Sprintf("%d_responses", n), func(t *testing.T) {
			all := make([]*model.SurveyResponse, n)
			for i := range all {
				v := values[i%len(values)]
				all[i] = record(fmt.Sprintf("u%d", i), func(a *model.SurveyAnswers) { a.HandWashing = v })
			}

			stats := ComputeCommunityStats(all)
			for field, buckets := range stats {
				sum := 0.0
				for _, pct := range buckets {
					sum += pct
				}
				assert.InDelta(t, 100.0, sum, sumTolerance, "field %s", field)
			}
		})
	}
}

func TestComputeCommunityStats_RoundsToOneDecimal(t *testing.T) {
	all := []*model.SurveyResponse{
		record("u1", nil),
		record("u2", nil),
		record("u3", func(a *model.SurveyAnswers) { a.MedicinesAvailable = "No" }),
	}

	stats := ComputeCommunityStats(all)
	assert.Equal(t, 66.7, stats["medicines_available"]["Yes"])
	assert.Equal(t, 33.3, stats["medicines_available"]["No"])
}

func TestComputeCommunityStats_EmptyValueHasOwnBucket(t *testing.T) {
	all := []*model.SurveyResponse{
		record("u1", func(a *model.SurveyAnswers) { a.DoctorVisits = "" }),
		record("u2", nil),
	}

	stats := ComputeCommunityStats(all)
	assert.Equal(t, 50.0, stats["doctor_visits"][""])
	assert.NotContains(t, stats["doctor_visits"], unknownBucket)

	var sum float64
	for _, pct := range stats["doctor_visits"] {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestRoundOneDecimal_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 12.5, roundOneDecimal(12.45000001))
	assert.Equal(t, 0.1, roundOneDecimal(0.05))
	assert.Equal(t, 14.3, roundOneDecimal(100.0/7))
}

func TestBuildUserResponses(t *testing.T) {
	r := record("u1", nil)

	got := BuildUserResponses(r)

	assert.Equal(t, map[string]string{
		"doctor_visits":        "Every 6 months",
		"hand_washing":         "Always",
		"teeth_brushing":       "Twice a day",
		"water_purification":   "Boiling",
		"surface_disinfection": "Daily",
	}, got.HealthPractices)
	assert.Equal(t, map[string]string{
		"medicines_available":      "Yes",
		"clean_water_access":       "Yes",
		"community_waste_system":   "Yes",
		"healthcare_affordability": "Yes",
	}, got.AccessIssues)
}
