package service

import (
	"fmt"
	"strings"
)

// RubricCriterion is one graded dimension of a speech.
type RubricCriterion struct {
	Name        string
	Description string
	MaxPoints   float64
}

// Rubric drives the content-evaluation prompt. Rubrics are static policy
// data, not user records.
type Rubric struct {
	Name     string
	Context  string
	Criteria []RubricCriterion
}

func (r Rubric) MaxTotal() float64 {
	var total float64
	for _, c := range r.Criteria {
		total += c.MaxPoints
	}
	return total
}

// GeneralPresentationRubric is the default rubric: a low-stress,
// general-purpose rubric for any spoken presentation. Each criterion is
// scored 0-4.
var GeneralPresentationRubric = Rubric{
	Name:    "General Presentation",
	Context: "A general-purpose rubric for any spoken presentation or talk. Evaluate HOW the student communicated, not WHAT they talked about. You are grading a transcript only: do not comment on tone, posture, eye contact or anything you cannot observe from text alone.",
	Criteria: []RubricCriterion{
		{
			Name:        "Clarity & Structure",
			Description: "Does the presentation have a logical flow with a clear introduction, organized body and a conclusion the listener can follow?",
			MaxPoints:   4,
		},
		{
			Name:        "Conciseness",
			Description: "Does the speaker make their point efficiently, without rambling, repeating themselves or going in circles?",
			MaxPoints:   4,
		},
		{
			Name:        "Word Choice",
			Description: "Is the vocabulary appropriate, specific and intentional, rather than vague placeholders like \"stuff\" and \"things\"?",
			MaxPoints:   4,
		},
		{
			Name:        "Supporting Evidence",
			Description: "Does the speaker back up their points with concrete examples, evidence or specifics?",
			MaxPoints:   4,
		},
		{
			Name:        "Key Takeaway",
			Description: "Does the listener walk away understanding the main point? Is there a clear, memorable takeaway?",
			MaxPoints:   4,
		},
	},
}

// buildEvaluationPrompt renders the instruction text sent to the evaluation
// model. It requests strict JSON and spells out the score/feedback
// consistency rules; the validator still corrects responses that break them.
func buildEvaluationPrompt(rubric Rubric, assignmentTitle, transcript string) string {
	var b strings.Builder

	b.WriteString("You are an expert evaluator for speech and presentation assignments. Evaluate the following transcript against the provided rubric.\n\n")
	fmt.Fprintf(&b, "## Assignment: %s\n", assignmentTitle)
	fmt.Fprintf(&b, "## Rubric: %s\n", rubric.Name)
	if rubric.Context != "" {
		fmt.Fprintf(&b, "\n### Context\n%s\n", rubric.Context)
	}

	b.WriteString("\n### Criteria\n")
	for _, c := range rubric.Criteria {
		fmt.Fprintf(&b, "- %s (0 to %.0f points): %s\n", c.Name, c.MaxPoints, c.Description)
	}

	fmt.Fprintf(&b, "\n## Transcript to Evaluate\n%s\n", transcript)

	b.WriteString(`
## Instructions
Evaluate the transcript against EACH criterion. Assign a score from 0 to the criterion's maximum and provide specific feedback explaining the score, referencing what the speaker actually said.

IMPORTANT CONSISTENCY RULES:
- If your feedback says the criterion was "not met", "missing", "lacks" or similar negative language, the score MUST be 0
- Your score MUST match your feedback explanation
- Do not give points for criteria you say weren't met

Respond with ONLY a valid JSON object in this exact format:
{
  "criteria_scores": [
    {"criterion_name": "<name>", "score": <number>, "max_score": <max>, "feedback": "<specific feedback>"}
  ],
  "total_score": <sum of all scores>,
`)
	fmt.Fprintf(&b, "  \"max_total_score\": %.0f,\n", rubric.MaxTotal())
	b.WriteString(`  "overall_feedback": "<overall assessment>",
  "improvement_suggestions": "<specific, actionable suggestions>"
}

Respond with ONLY the JSON object, no additional text before or after.`)

	return b.String()
}
