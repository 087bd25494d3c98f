package model

import "time"

// SurveyAnswers は1世帯分のアンケート回答を表す。
// JSONタグはAPIのフィールド名と一致させている。
type SurveyAnswers struct {
	VillageName          string `json:"village_name"`
	Date                 string `json:"date"`
	StudentName          string `json:"student_name"`
	ContactNumber        string `json:"contact_number"`
	RespondentName       string `json:"respondent_name"`
	RespondentAge        int    `json:"respondent_age"`
	RespondentOccupation string `json:"respondent_occupation"`
	RespondentContact    string `json:"respondent_contact"`

	// Section 1: General Health Information
	DoctorVisits       string `json:"doctor_visits"`
	CommonHealthIssues string `json:"common_health_issues"`
	MedicinesAvailable string `json:"medicines_available"`
	Vaccinations       string `json:"vaccinations"`

	// Section 2: Personal Hygiene Practices
	HandWashing   string `json:"hand_washing"`
	TeethBrushing string `json:"teeth_brushing"`
	HygieneItems  string `json:"hygiene_items"`
	TravelHygiene string `json:"travel_hygiene"`

	// Section 3: Public Hygiene & Sanitation
	CleanWaterAccess     string `json:"clean_water_access"`
	ToiletFacility       string `json:"toilet_facility"`
	WasteDisposal        string `json:"waste_disposal"`
	CommunityWasteSystem string `json:"community_waste_system"`

	// Section 4: Food Hygiene & Nutrition
	FoodCleaning      string `json:"food_cleaning"`
	WaterPurification string `json:"water_purification"`
	CookingHygiene    string `json:"cooking_hygiene"`

	// Section 5: Hygiene Challenges & Awareness
	BiggestHygieneIssue      string `json:"biggest_hygiene_issue"`
	HealthIssuesDueHygiene   string `json:"health_issues_due_hygiene"`
	SurfaceDisinfection      string `json:"surface_disinfection"`
	HygieneProgramsAwareness string `json:"hygiene_programs_awareness"`
	HealthcareAffordability  string `json:"healthcare_affordability"`
	AdditionalComments       string `json:"additional_comments"`
}

// SurveyFields はアンケートの全フィールド名をフォーム上の順序で列挙する。
// 送信時の必須チェックに使用する。
var SurveyFields = []string{
	"village_name",
	"date",
	"student_name",
	"contact_number",
	"respondent_name",
	"respondent_age",
	"respondent_occupation",
	"respondent_contact",
	"doctor_visits",
	"common_health_issues",
	"medicines_available",
	"vaccinations",
	"hand_washing",
	"teeth_brushing",
	"hygiene_items",
	"travel_hygiene",
	"clean_water_access",
	"toilet_facility",
	"waste_disposal",
	"community_waste_system",
	"food_cleaning",
	"water_purification",
	"cooking_hygiene",
	"biggest_hygiene_issue",
	"health_issues_due_hygiene",
	"surface_disinfection",
	"hygiene_programs_awareness",
	"healthcare_affordability",
	"additional_comments",
}

// SurveyResponse は永続化されたアンケート回答を表す。
// user_idごとに高々1件で、再送信時は全体が置き換えられる（履歴は保持しない）。
type SurveyResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	SurveyAnswers
}

// Field はJSONフィールド名で回答値を文字列として取得する。
// 集計対象のフィールドを名前で引くために使う。未知の名前の場合はfalseを返す。
func (a *SurveyAnswers) Field(name string) (string, bool) {
	switch name {
	case "doctor_visits":
		return a.DoctorVisits, true
	case "hand_washing":
		return a.HandWashing, true
	case "teeth_brushing":
		return a.TeethBrushing, true
	case "water_purification":
		return a.WaterPurification, true
	case "surface_disinfection":
		return a.SurfaceDisinfection, true
	case "medicines_available":
		return a.MedicinesAvailable, true
	case "clean_water_access":
		return a.CleanWaterAccess, true
	case "community_waste_system":
		return a.CommunityWasteSystem, true
	case "healthcare_affordability":
		return a.HealthcareAffordability, true
	case "toilet_facility":
		return a.ToiletFacility, true
	default:
		return "", false
	}
}
