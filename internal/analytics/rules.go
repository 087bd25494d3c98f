package analytics

import "github.com/hitoshi/hygienesurvey/internal/model"

// Suggestion は回答に応じた改善提案。
type Suggestion struct {
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Suggestion string   `json:"suggestion"`
	Resources  []string `json:"resources"`
}

// Rule は提案ルールの1行。Predicateが真のとき提案を出力する。
// ルール同士は独立しており、ある回答の変更は対応するルールの成否のみに影響する。
type Rule struct {
	Predicate func(a *model.SurveyAnswers) bool
	Category  string
	Title     string
	Text      string
	Resources []string
}

func (r Rule) suggestion() Suggestion {
	resources := make([]string, len(r.Resources))
	copy(resources, r.Resources)
	return Suggestion{
		Category:   r.Category,
		Title:      r.Title,
		Suggestion: r.Text,
		Resources:  resources,
	}
}

func fieldEquals(field string, values ...string) func(a *model.SurveyAnswers) bool {
	return func(a *model.SurveyAnswers) bool {
		got, ok := a.Field(field)
		if !ok {
			return false
		}
		for _, v := range values {
			if got == v {
				return true
			}
		}
		return false
	}
}

// Rules は評価順に並んだ提案ルール表。
var Rules = []Rule{
	{
		Predicate: fieldEquals("medicines_available", "No"),
		Category:  "Healthcare Access",
		Title:     "Medicine Availability",
		Text:      "Contact local Primary Health Center (PHC) or Community Health Center (CHC). Consider setting up a community pharmacy or medical kit.",
		Resources: []string{
			"National Health Mission helpline: 104",
			"Jan Aushadhi stores for affordable medicines",
			"Local ASHA worker contact",
		},
	},
	{
		Predicate: fieldEquals("healthcare_affordability", "No"),
		Category:  "Healthcare Access",
		Title:     "Affordable Healthcare",
		Text:      "Explore government health schemes like Ayushman Bharat, PMJAY, or state-specific health insurance programs.",
		Resources: []string{
			"Ayushman Bharat scheme enrollment",
			"Local government hospital services",
			"Health insurance schemes",
		},
	},
	{
		Predicate: fieldEquals("clean_water_access", "No, we rely on alternative sources", "No, access is very limited"),
		Category:  "Water & Sanitation",
		Title:     "Clean Water Access",
		Text:      "Contact local water department or panchayat. Consider water purification methods like boiling, filtering, or water purification tablets.",
		Resources: []string{
			"Jal Jeevan Mission for piped water",
			"Water quality testing kits",
			"Community water purification systems",
		},
	},
	{
		Predicate: fieldEquals("toilet_facility", "Open defecation"),
		Category:  "Sanitation",
		Title:     "Toilet Facility",
		Text:      "Apply for Swachh Bharat Mission toilet construction. Contact local gram panchayat for subsidies and support.",
		Resources: []string{
			"Swachh Bharat Mission portal",
			"Local panchayat office",
			"Toilet construction subsidies",
		},
	},
	{
		Predicate: fieldEquals("hand_washing", "Rarely", "Never"),
		Category:  "Personal Hygiene",
		Title:     "Hand Washing",
		Text:      "Develop a habit of washing hands before eating and after using toilet. Use soap and clean water for at least 20 seconds.",
		Resources: []string{
			"WHO hand hygiene guidelines",
			"Local health worker training",
			"Community hygiene awareness programs",
		},
	},
	{
		Predicate: fieldEquals("community_waste_system", "No"),
		Category:  "Waste Management",
		Title:     "Community Waste System",
		Text:      "Organize community meetings to establish waste collection system. Contact local municipal corporation or panchayat.",
		Resources: []string{
			"Swachh Bharat Mission waste management",
			"Community waste segregation training",
			"Local waste collection services",
		},
	},
}

// FallbackRule はどのルールにも該当しない場合に出力する提案。
var FallbackRule = Rule{
	Category: "Health Promotion",
	Title:    "Maintain Good Practices",
	Text:     "Continue your good health and hygiene practices. Consider becoming a health advocate in your community.",
	Resources: []string{
		"Community health volunteer programs",
		"Health awareness campaigns",
		"Peer education opportunities",
	},
}

// Suggest はルール表を順に評価し、該当した提案を表の順序で返す。
// 1件も該当しない場合はFallbackRuleの提案1件のみを返す。
func Suggest(a *model.SurveyAnswers) []Suggestion {
	return suggestWith(Rules, a)
}

func suggestWith(rules []Rule, a *model.SurveyAnswers) []Suggestion {
	var suggestions []Suggestion
	for _, rule := range rules {
		if rule.Predicate(a) {
			suggestions = append(suggestions, rule.suggestion())
		}
	}
	if len(suggestions) == 0 {
		return []Suggestion{FallbackRule.suggestion()}
	}
	return suggestions
}
