package main

import (
	"fmt"
	"strings"
)

// Display labels for common background columns. Unknown columns keep
// their file name as-is.
var attributeLabels = map[string]string{
	"highest_education_level": "Highest Education Level",
	"education_level":         "Education Level",
	"occupation":              "Occupation",
	"industry":                "Industry",
	"annual_household_income": "Annual Household Income",
	"years_of_work":           "Years of Work Experience",
	"marital_status":          "Marital Status",
	"residence":               "Residence",
	"ethnicity":               "Ethnicity",
	"religious_belief":        "Religious Belief",
	"health_status":           "Health Status",
}

func attributeLabel(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), "_"))
	if label, ok := attributeLabels[key]; ok {
		return label
	}
	return name
}

// BuildPrompt renders one (subject, question) pair into the instruction
// sent to the text-generation service. Deterministic apart from the
// supervisor note, which depends on the subject's occupation fields.
func BuildPrompt(subject Subject, question Question) string {
	background := []string{
		fmt.Sprintf("- Gender: %s", subject.Gender),
		fmt.Sprintf("- Age: %d years old", subject.Age),
	}

	var answered []Attribute
	for _, attr := range subject.Extra {
		if nonAnswers[strings.ToLower(strings.TrimSpace(attr.Value))] {
			continue
		}
		answered = append(answered, attr)
		background = append(background, fmt.Sprintf("- %s: %s", attributeLabel(attr.Name), attr.Value))
	}

	supervisorNote := buildSupervisorNote(subject, question)

	requirements := []string{
		fmt.Sprintf("Strictly select a score based on the given coding standard (only enter a number between %d-%d);", question.Range.Min, question.Range.Max),
		"Add 1-2 sentences to explain the reason after the score. The reason should match your background and American social culture, avoiding emptiness;",
		"Answer naturally and colloquially, like an ordinary American chatting—no formal writing or AI tone;",
	}
	if hasWorkAttribute(answered) {
		requirements = append(requirements, "For work-related questions, answer based on your occupation and industry if applicable;")
	}
	requirements = append(requirements,
		`Do not reveal you are a simulated role, and never say phrases like "as an AI" or "according to the setting";`,
		"Only answer based on the current task, do not reference any previous responses.",
	)

	var numbered []string
	for i, req := range requirements {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, req))
	}

	return fmt.Sprintf(`You are a real American citizen with the following personal background:
%s
Fully embody this role, combine American cultural background, life experiences, and true feelings to answer the following questionnaire in the first person%s. Response requirements:
%s
Question: %s
Coding Standard: %s
Please answer directly without additional formatting.`,
		strings.Join(background, "\n"),
		supervisorNote,
		strings.Join(numbered, "\n"),
		question.Stem,
		question.Coding)
}

// buildSupervisorNote adds context for supervisor-support items: subjects
// without a job answer hypothetically, employed subjects answer from
// their occupation.
func buildSupervisorNote(subject Subject, question Question) string {
	if !strings.Contains(strings.ToLower(question.Dimension), "supervis") {
		return ""
	}
	occupation := subject.Attr("occupation")
	industry := subject.Attr("industry")
	if occupation != "" && nonAnswers[strings.ToLower(occupation)] {
		return " (Note: If you don't have a supervisor or job, answer based on hypothetical work experience or common sense)"
	}
	if occupation != "" && industry != "" {
		return fmt.Sprintf(" (Note: Answer combined with your occupation as %s in the %s industry)", occupation, industry)
	}
	return ""
}

func hasWorkAttribute(attrs []Attribute) bool {
	for _, attr := range attrs {
		name := strings.ToLower(attr.Name)
		if strings.Contains(name, "occupation") || strings.Contains(name, "industry") || strings.Contains(name, "work") {
			return true
		}
	}
	return false
}
