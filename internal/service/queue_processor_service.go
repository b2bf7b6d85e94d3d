package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/internal/model"
	"github.com/qvhoang/Peregrine/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	noSpeechContentFeedback  = "No speech was detected in your recording. Please make sure your microphone is working and try again. Speak clearly and at a normal volume."
	noSpeechFillerFeedback   = "No speech detected in the recording."
	noSpeechDeliveryFeedback = "Unable to evaluate, no speech detected."

	defaultAssignmentTitle = "Speech Assignment"
)

// QueuePassSummary reports what one dispatcher pass did.
type QueuePassSummary struct {
	Reclaimed int64 `json:"reclaimed"`
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
}

// QueueProcessorService runs grading passes over the submission queue. Each
// pass reclaims expired leases, claims as many pending items as the
// concurrency budget allows, and grades them in parallel. Passes are
// idempotent and safe to trigger from multiple places; the claim is a
// conditional update so overlapping passes never grade the same item twice.
type QueueProcessorService interface {
	RunPass(ctx context.Context) (QueuePassSummary, error)
}

type queueProcessorService struct {
	cfg            *config.Config
	queueRepo      repository.QueueRepository
	submissionRepo repository.SubmissionRepository
	gradeRepo      repository.GradeRepository
	transcription  TranscriptionService
	evaluation     ContentEvaluationService
	delivery       DeliveryAnalysisService
	fillerWords    FillerWordService
	scoring        ScoringService
}

func NewQueueProcessorService(
	cfg *config.Config,
	queueRepo repository.QueueRepository,
	submissionRepo repository.SubmissionRepository,
	gradeRepo repository.GradeRepository,
	transcription TranscriptionService,
	evaluation ContentEvaluationService,
	delivery DeliveryAnalysisService,
	fillerWords FillerWordService,
	scoring ScoringService,
) QueueProcessorService {
	return &queueProcessorService{
		cfg:            cfg,
		queueRepo:      queueRepo,
		submissionRepo: submissionRepo,
		gradeRepo:      gradeRepo,
		transcription:  transcription,
		evaluation:     evaluation,
		delivery:       delivery,
		fillerWords:    fillerWords,
		scoring:        scoring,
	}
}

func (s *queueProcessorService) RunPass(ctx context.Context) (QueuePassSummary, error) {
	var summary QueuePassSummary

	reclaimed, err := s.queueRepo.ResetStale(s.cfg.Queue.LeaseTimeout)
	if err != nil {
		return summary, fmt.Errorf("resetting stale queue items: %w", err)
	}
	summary.Reclaimed = reclaimed
	if reclaimed > 0 {
		log.Info().Int64("reclaimed", reclaimed).Msg("Reset stale processing items back to pending")
	}

	processing, err := s.queueRepo.CountProcessing()
	if err != nil {
		return summary, fmt.Errorf("counting processing items: %w", err)
	}
	availableSlots := s.cfg.Queue.MaxConcurrent - int(processing)
	if availableSlots <= 0 {
		log.Info().Int64("processing", processing).Msg("Queue at capacity, skipping pass")
		return summary, nil
	}

	items, err := s.queueRepo.ClaimPending(availableSlots)
	if err != nil {
		return summary, fmt.Errorf("claiming pending items: %w", err)
	}
	if len(items) == 0 {
		return summary, nil
	}
	summary.Total = len(items)

	results := make(chan bool, len(items))
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item model.QueueItem) {
			defer wg.Done()
			results <- s.processItem(ctx, item)
		}(item)
	}
	wg.Wait()
	close(results)

	for ok := range results {
		if ok {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Queue pass finished")
	return summary, nil
}

// processItem grades one claimed item end to end. It returns true on success
// and records the failure bookkeeping itself otherwise, so RunPass only has
// to count outcomes.
func (s *queueProcessorService) processItem(ctx context.Context, item model.QueueItem) (succeeded bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Uint("queueItemID", item.ID).Interface("panic", r).Msg("Panic while processing queue item")
			s.recordFailure(item, fmt.Sprintf("panic: %v", r))
			succeeded = false
		}
	}()

	log.Info().Uint("queueItemID", item.ID).Str("submissionID", item.SubmissionID).Msg("Processing submission")

	if err := s.gradeItem(ctx, item); err != nil {
		log.Error().Err(err).Uint("queueItemID", item.ID).Msg("Queue item failed")
		s.recordFailure(item, err.Error())
		return false
	}
	return true
}

func (s *queueProcessorService) gradeItem(ctx context.Context, item model.QueueItem) error {
	if err := s.submissionRepo.MarkProcessing(item.SubmissionID); err != nil {
		return fmt.Errorf("marking submission processing: %w", err)
	}

	submission, err := s.submissionRepo.FindByID(item.SubmissionID)
	if err != nil {
		return fmt.Errorf("loading submission: %w", err)
	}

	videoURL := item.VideoURL
	if videoURL == "" {
		videoURL = submission.VideoURL
	}
	if videoURL == "" {
		return fmt.Errorf("no video URL for submission %s", item.SubmissionID)
	}
	assignmentTitle := item.AssignmentTitle
	if assignmentTitle == "" {
		assignmentTitle = submission.AssignmentTitle
	}
	if assignmentTitle == "" {
		assignmentTitle = defaultAssignmentTitle
	}

	media, err := s.transcription.FetchVideo(ctx, videoURL)
	if err != nil {
		return fmt.Errorf("fetching video: %w", err)
	}

	transcript, err := s.transcription.Transcribe(ctx, media)
	if err != nil {
		return fmt.Errorf("transcribing: %w", err)
	}

	if strings.TrimSpace(transcript) == "" {
		log.Info().Uint("queueItemID", item.ID).Msg("Empty transcript, no speech detected")
		return s.completeWithNoSpeech(item)
	}

	if err := s.submissionRepo.SetTranscript(item.SubmissionID, transcript); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}

	evaluation, err := s.evaluation.Evaluate(ctx, assignmentTitle, transcript)
	if err != nil {
		return fmt.Errorf("evaluating content: %w", err)
	}

	deliveryResult := s.delivery.Analyze(ctx, videoURL)

	analysis := s.fillerWords.Analyze(transcript)
	fillerScore := s.scoring.FillerScore(analysis.TotalCount)
	finalScore := s.scoring.FinalScore(evaluation.TotalScore, evaluation.MaxTotalScore, fillerScore)

	grade := &model.Grade{
		SubmissionID:     item.SubmissionID,
		TotalScore:       finalScore,
		ContentScore:     evaluation.TotalScore,
		ContentMaxScore:  evaluation.MaxTotalScore,
		FillerWordCount:  analysis.TotalCount,
		FillerWordScore:  fillerScore,
		FillerWordCounts: analysis.WordCounts,
		FillerWordsUsed:  analysis.FillerWordsUsed,
		IsFallback:       evaluation.Fallback,
		GradedAt:         time.Now(),
	}
	if evaluation.Fallback {
		raw := evaluation.RawResponse
		grade.RawEvaluation = &raw
	}

	feedback := &model.Feedback{
		ContentFeedback:     contentFeedbackText(evaluation),
		FillerWordsFeedback: s.fillerWords.GenerateFeedback(analysis),
		DeliveryFeedback:    deliveryFeedbackText(deliveryResult),
	}

	if err := s.gradeRepo.UpsertWithFeedback(grade, feedback); err != nil {
		return fmt.Errorf("saving grade: %w", err)
	}
	if err := s.submissionRepo.MarkCompleted(item.SubmissionID); err != nil {
		return fmt.Errorf("marking submission completed: %w", err)
	}
	if err := s.queueRepo.MarkCompleted(item.ID); err != nil {
		return fmt.Errorf("marking queue item completed: %w", err)
	}

	log.Info().Uint("queueItemID", item.ID).Int("score", finalScore).Bool("fallback", evaluation.Fallback).Msg("Completed successfully")
	return nil
}

// completeWithNoSpeech finishes an item whose recording contained no speech.
// This is a terminal success with a zero grade and explanatory feedback, not
// a failure; retrying would transcribe the same silence again.
func (s *queueProcessorService) completeWithNoSpeech(item model.QueueItem) error {
	if err := s.submissionRepo.SetTranscript(item.SubmissionID, ""); err != nil {
		return fmt.Errorf("saving empty transcript: %w", err)
	}

	grade := &model.Grade{
		SubmissionID:     item.SubmissionID,
		TotalScore:       0,
		ContentScore:     0,
		ContentMaxScore:  GeneralPresentationRubric.MaxTotal(),
		FillerWordCount:  0,
		FillerWordScore:  0,
		FillerWordCounts: model.WordCounts{},
		FillerWordsUsed:  model.WordList{},
		GradedAt:         time.Now(),
	}
	feedback := &model.Feedback{
		ContentFeedback:     noSpeechContentFeedback,
		FillerWordsFeedback: noSpeechFillerFeedback,
		DeliveryFeedback:    noSpeechDeliveryFeedback,
	}
	if err := s.gradeRepo.UpsertWithFeedback(grade, feedback); err != nil {
		return fmt.Errorf("saving zero grade: %w", err)
	}
	if err := s.submissionRepo.MarkCompleted(item.SubmissionID); err != nil {
		return fmt.Errorf("marking submission completed: %w", err)
	}
	return s.queueRepo.MarkCompleted(item.ID)
}

// recordFailure bumps the attempt count and either requeues the item or, once
// attempts are exhausted, marks both the item and its submission failed. The
// submission goes back to pending on a requeue so the student keeps seeing it
// as in progress.
func (s *queueProcessorService) recordFailure(item model.QueueItem, errorMessage string) {
	attempts := item.Attempts + 1
	retry := attempts < item.MaxAttempts

	if err := s.queueRepo.RecordFailure(item.ID, attempts, errorMessage, !retry); err != nil {
		log.Error().Err(err).Uint("queueItemID", item.ID).Msg("Failed to record queue item failure")
	}

	var err error
	if retry {
		err = s.submissionRepo.MarkPending(item.SubmissionID, errorMessage)
	} else {
		err = s.submissionRepo.MarkFailed(item.SubmissionID, errorMessage)
	}
	if err != nil {
		log.Error().Err(err).Str("submissionID", item.SubmissionID).Msg("Failed to update submission after queue failure")
	}
}

func contentFeedbackText(evaluation EvaluationResult) string {
	if evaluation.Fallback {
		return "Automated content evaluation could not be completed for this submission. It has been flagged for manual review."
	}
	var b strings.Builder
	b.WriteString(evaluation.OverallFeedback)
	for _, criterion := range evaluation.CriteriaScores {
		if criterion.Feedback == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%.0f/%.0f): %s", criterion.CriterionName, criterion.Score, criterion.MaxScore, criterion.Feedback)
	}
	if evaluation.ImprovementSuggestions != "" {
		b.WriteString("\n\nSuggestions: ")
		b.WriteString(evaluation.ImprovementSuggestions)
	}
	return b.String()
}

func deliveryFeedbackText(result DeliveryResult) string {
	if result.Details == "" {
		return result.Verdict
	}
	return result.Verdict + ". " + result.Details
}
