package service

import "math"

// Weighting policy for the final grade. Content dominates; filler words are
// a polish signal. Fixed at build time, not user-configurable.
const (
	contentWeight = 0.8
	fillerWeight  = 0.2

	// FillerMaxScore is the ceiling of the filler sub-score; each detected
	// filler word costs one point.
	FillerMaxScore = 20
)

type ScoringService interface {
	FillerScore(fillerCount int) int
	FinalScore(contentScore, contentMaxScore float64, fillerScore int) int
}

type scoringService struct{}

func NewScoringService() ScoringService {
	return &scoringService{}
}

func (s *scoringService) FillerScore(fillerCount int) int {
	score := FillerMaxScore - fillerCount
	if score < 0 {
		return 0
	}
	return score
}

// FinalScore converts each sub-score to its own percentage basis before
// combining, then rounds the weighted sum to the nearest integer percent.
func (s *scoringService) FinalScore(contentScore, contentMaxScore float64, fillerScore int) int {
	var contentPct float64
	if contentMaxScore > 0 {
		contentPct = contentScore / contentMaxScore * 100
	}
	fillerPct := float64(fillerScore) / FillerMaxScore * 100

	final := int(math.Round(contentPct*contentWeight + fillerPct*fillerWeight))
	if final < 0 {
		return 0
	}
	if final > 100 {
		return 100
	}
	return final
}
