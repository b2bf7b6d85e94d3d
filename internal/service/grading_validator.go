package service

import (
	"encoding/json"
	"strings"
)

// The content-evaluation model is asked for strict JSON but does not always
// comply, and sometimes contradicts itself: a positive score next to an
// explanation that says the criterion was not met. Parsing is therefore a
// strict two-phase process: a structural parse that rejects early when no
// JSON object is found, then a semantic pass that re-scores inconsistent
// criteria. Scores are only ever corrected downward.

// CriterionScore is one scored rubric criterion from the evaluation model.
type CriterionScore struct {
	CriterionName string  `json:"criterion_name"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Feedback      string  `json:"feedback"`
}

// EvaluationResult is the validated outcome of a content evaluation.
//
// When Fallback is set the response could not be parsed into structured
// scores; RawResponse preserves the model output verbatim for manual review
// and every score field is zero. A fallback is terminal and never retried.
type EvaluationResult struct {
	CriteriaScores         []CriterionScore `json:"criteria_scores"`
	TotalScore             float64          `json:"total_score"`
	MaxTotalScore          float64          `json:"max_total_score"`
	OverallFeedback        string           `json:"overall_feedback"`
	ImprovementSuggestions string           `json:"improvement_suggestions"`
	Fallback               bool             `json:"fallback,omitempty"`
	RawResponse            string           `json:"raw_response,omitempty"`
}

// negativeIndicators flag explanations that describe an unmet criterion.
var negativeIndicators = []string{
	"not met", "not include", "did not", "does not", "lacks", "missing",
	"no mention", "absent", "failed to", "without", "unclear", "vague",
	"not provide", "not demonstrate", "not present", "not evident",
	"could not find", "unable to identify", "not addressed", "needs to include",
	"no evidence",
}

// ParseEvaluation validates the raw model response. It never returns an
// error: an unusable response comes back as a fallback result.
func ParseEvaluation(raw string) EvaluationResult {
	fallback := EvaluationResult{Fallback: true, RawResponse: raw}

	obj, ok := extractJSONObject(raw)
	if !ok {
		return fallback
	}

	// Pointer fields so a structurally valid object with required fields
	// missing is still rejected.
	var payload struct {
		CriteriaScores         *[]CriterionScore `json:"criteria_scores"`
		TotalScore             *float64          `json:"total_score"`
		MaxTotalScore          *float64          `json:"max_total_score"`
		OverallFeedback        *string           `json:"overall_feedback"`
		ImprovementSuggestions *string           `json:"improvement_suggestions"`
	}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return fallback
	}
	if payload.CriteriaScores == nil || payload.TotalScore == nil ||
		payload.MaxTotalScore == nil || payload.OverallFeedback == nil ||
		payload.ImprovementSuggestions == nil {
		return fallback
	}

	result := EvaluationResult{
		CriteriaScores:         make([]CriterionScore, len(*payload.CriteriaScores)),
		MaxTotalScore:          *payload.MaxTotalScore,
		OverallFeedback:        *payload.OverallFeedback,
		ImprovementSuggestions: *payload.ImprovementSuggestions,
	}

	// The total the model reported is discarded; the recomputed sum of the
	// corrected per-criterion scores is authoritative.
	for i, cs := range *payload.CriteriaScores {
		corrected := correctCriterion(cs)
		result.CriteriaScores[i] = corrected
		result.TotalScore += corrected.Score
	}

	return result
}

// extractJSONObject returns the first JSON object found in the text, from
// the first opening brace to the last closing one.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// correctCriterion clamps the score into [0, max] and forces it to zero when
// a positive score co-occurs with a negative-indicator explanation. A zero
// score is never raised; false negatives are preferred over false positives.
func correctCriterion(cs CriterionScore) CriterionScore {
	if cs.Score < 0 {
		cs.Score = 0
	}
	if cs.MaxScore > 0 && cs.Score > cs.MaxScore {
		cs.Score = cs.MaxScore
	}
	if cs.Score > 0 && hasNegativeIndicator(cs.Feedback) {
		cs.Score = 0
	}
	return cs
}

func hasNegativeIndicator(feedback string) bool {
	lowered := strings.ToLower(feedback)
	for _, indicator := range negativeIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
