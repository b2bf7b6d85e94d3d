package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// assumedWordsPerMinute is used to estimate speech duration from the word
// count when no audio timing is available.
const assumedWordsPerMinute = 150.0

// fillerDetection is one accepted match within the normalized transcript.
type fillerDetection struct {
	Word     string
	Category fillerCategory
	Position int // word index in the normalized transcript
	Length   int // number of words in the match
	Weight   float64
}

// FillerAnalysis is the result of scanning one transcript. Fully
// deterministic; no I/O.
type FillerAnalysis struct {
	TotalCount        int
	WeightedScore     float64
	WordCounts        map[string]int
	FillerWordsUsed   []string
	CategoryBreakdown map[string]int
	FillersPerMinute  float64
	EstimatedMinutes  float64
}

type FillerWordService interface {
	Analyze(transcript string) FillerAnalysis
	GenerateFeedback(analysis FillerAnalysis) string
}

type fillerWordService struct{}

func NewFillerWordService() FillerWordService {
	return &fillerWordService{}
}

// normalizeTranscript lowercases the text and strips punctuation except
// apostrophes, collapsing whitespace.
func normalizeTranscript(transcript string) []string {
	var b strings.Builder
	b.Grow(len(transcript))
	for _, r := range strings.ToLower(transcript) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func (s *fillerWordService) Analyze(transcript string) FillerAnalysis {
	analysis := FillerAnalysis{
		WordCounts:        map[string]int{},
		CategoryBreakdown: map[string]int{},
	}
	words := normalizeTranscript(transcript)
	if len(words) == 0 {
		return analysis
	}

	// Collect candidates, longest phrase first at each position so a
	// multi-word filler is never shadowed by one of its own words.
	var candidates []fillerDetection
	for i := range words {
		maxLen := maxPhraseWords
		if rest := len(words) - i; rest < maxLen {
			maxLen = rest
		}
		for phraseLen := maxLen; phraseLen >= 1; phraseLen-- {
			phrase := strings.Join(words[i:i+phraseLen], " ")
			category, ok := fillerLookup[phrase]
			if !ok {
				continue
			}
			candidates = append(candidates, fillerDetection{
				Word:     phrase,
				Category: category,
				Position: i,
				Length:   phraseLen,
				Weight:   fillerWeights[category],
			})
			break
		}
	}

	accepted := removeOverlaps(candidates)

	for _, d := range accepted {
		analysis.TotalCount++
		analysis.WeightedScore += d.Weight
		analysis.WordCounts[d.Word]++
		analysis.CategoryBreakdown[string(d.Category)]++
	}
	analysis.WeightedScore = math.Round(analysis.WeightedScore*10) / 10

	for word := range analysis.WordCounts {
		analysis.FillerWordsUsed = append(analysis.FillerWordsUsed, word)
	}
	sort.Strings(analysis.FillerWordsUsed)

	analysis.EstimatedMinutes = float64(len(words)) / assumedWordsPerMinute
	if analysis.EstimatedMinutes > 0 {
		rate := float64(analysis.TotalCount) / analysis.EstimatedMinutes
		analysis.FillersPerMinute = math.Round(rate*10) / 10
	}

	return analysis
}

// removeOverlaps sorts detections by start position and discards any whose
// span overlaps an already-accepted match.
func removeOverlaps(detections []fillerDetection) []fillerDetection {
	sorted := make([]fillerDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	var accepted []fillerDetection
	lastEnd := -1
	for _, d := range sorted {
		if d.Position <= lastEnd {
			continue
		}
		accepted = append(accepted, d)
		lastEnd = d.Position + d.Length - 1
	}
	return accepted
}

// GenerateFeedback renders the student-facing filler word summary.
func (s *fillerWordService) GenerateFeedback(analysis FillerAnalysis) string {
	if analysis.TotalCount == 0 {
		return "Excellent! No filler words detected. Your speech was clear and confident."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d filler word(s), about %.1f per minute (%s).\n",
		analysis.TotalCount, analysis.FillersPerMinute, ratePerformance(analysis.FillersPerMinute))

	// Most frequent first.
	type wordCount struct {
		word  string
		count int
	}
	counts := make([]wordCount, 0, len(analysis.WordCounts))
	for word, count := range analysis.WordCounts {
		counts = append(counts, wordCount{word, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].word < counts[j].word
	})
	parts := make([]string, 0, len(counts))
	for _, wc := range counts {
		parts = append(parts, fmt.Sprintf("%q (%dx)", wc.word, wc.count))
	}
	fmt.Fprintf(&b, "Words: %s.\n", strings.Join(parts, ", "))

	switch {
	case analysis.FillersPerMinute > 8:
		b.WriteString("Practice pausing instead of using filler words, and slow down your pace to reduce hesitation.")
	case analysis.FillersPerMinute > 4:
		b.WriteString("Focus on reducing the fillers you use most, and practice transitional phrases instead.")
	case analysis.FillersPerMinute > 2:
		b.WriteString("Work on eliminating the specific filler words you use most; practice confident pauses for emphasis.")
	default:
		b.WriteString("Great job! Maintain this level of clarity in future speeches.")
	}
	return b.String()
}

func ratePerformance(fillersPerMinute float64) string {
	switch {
	case fillersPerMinute <= 2:
		return "excellent"
	case fillersPerMinute <= 4:
		return "very good"
	case fillersPerMinute <= 6:
		return "good"
	case fillersPerMinute <= 10:
		return "needs improvement"
	default:
		return "poor"
	}
}
