package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/internal/model"
	"gorm.io/gorm"
)

// In-memory repositories with the same contracts as the gorm-backed ones.

type memQueueRepo struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]*model.QueueItem
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{nextID: 1, items: map[uint]*model.QueueItem{}}
}

func (r *memQueueRepo) Create(item *model.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.nextID
	r.nextID++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memQueueRepo) FindByID(id uint) (*model.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *memQueueRepo) FindBySubmissionID(submissionID string) ([]model.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.QueueItem
	for _, item := range r.items {
		if item.SubmissionID == submissionID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *memQueueRepo) CountProcessing() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, item := range r.items {
		if item.Status == model.QueueProcessing {
			count++
		}
	}
	return count, nil
}

func (r *memQueueRepo) ResetStale(leaseTimeout time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-leaseTimeout)
	var reset int64
	for _, item := range r.items {
		if item.Status == model.QueueProcessing && item.ProcessingStartedAt != nil && item.ProcessingStartedAt.Before(cutoff) {
			item.Status = model.QueuePending
			item.ProcessingStartedAt = nil
			msg := "Reset: processing lease expired"
			item.ErrorMessage = &msg
			reset++
		}
	}
	return reset, nil
}

func (r *memQueueRepo) ClaimPending(limit int) ([]model.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*model.QueueItem
	for _, item := range r.items {
		if item.Status == model.QueuePending {
			pending = append(pending, item)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	now := time.Now()
	var claimed []model.QueueItem
	for _, item := range pending {
		item.Status = model.QueueProcessing
		item.ProcessingStartedAt = &now
		claimed = append(claimed, *item)
	}
	return claimed, nil
}

func (r *memQueueRepo) MarkCompleted(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	item.Status = model.QueueCompleted
	item.CompletedAt = &now
	item.ErrorMessage = nil
	return nil
}

func (r *memQueueRepo) RecordFailure(id uint, attempts int, errorMessage string, terminal bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Attempts = attempts
	item.ErrorMessage = &errorMessage
	item.ProcessingStartedAt = nil
	if terminal {
		now := time.Now()
		item.Status = model.QueueFailed
		item.CompletedAt = &now
	} else {
		item.Status = model.QueuePending
	}
	return nil
}

type memSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*model.Submission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{submissions: map[string]*model.Submission{}}
}

func (r *memSubmissionRepo) Create(s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.submissions[s.ID] = &copied
	return nil
}

func (r *memSubmissionRepo) FindByID(id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memSubmissionRepo) FindAll() ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Submission
	for _, s := range r.submissions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSubmissionRepo) update(id string, fn func(*model.Submission)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(s)
	return nil
}

func (r *memSubmissionRepo) MarkProcessing(id string) error {
	now := time.Now()
	return r.update(id, func(s *model.Submission) {
		s.Status = model.SubmissionProcessing
		s.ProcessingStartedAt = &now
		s.ErrorMessage = nil
	})
}

func (r *memSubmissionRepo) SetTranscript(id string, transcript string) error {
	return r.update(id, func(s *model.Submission) { s.Transcript = transcript })
}

func (r *memSubmissionRepo) MarkCompleted(id string) error {
	now := time.Now()
	return r.update(id, func(s *model.Submission) {
		s.Status = model.SubmissionCompleted
		s.ProcessingCompletedAt = &now
		s.ErrorMessage = nil
	})
}

func (r *memSubmissionRepo) MarkFailed(id string, errorMessage string) error {
	now := time.Now()
	return r.update(id, func(s *model.Submission) {
		s.Status = model.SubmissionFailed
		s.ProcessingCompletedAt = &now
		s.ErrorMessage = &errorMessage
	})
}

func (r *memSubmissionRepo) MarkPending(id string, errorMessage string) error {
	return r.update(id, func(s *model.Submission) {
		s.Status = model.SubmissionPending
		s.ErrorMessage = &errorMessage
	})
}

type memGradeRepo struct {
	mu        sync.Mutex
	grades    map[string]*model.Grade
	feedbacks map[string]*model.Feedback
	upserts   int
}

func newMemGradeRepo() *memGradeRepo {
	return &memGradeRepo{grades: map[string]*model.Grade{}, feedbacks: map[string]*model.Feedback{}}
}

func (r *memGradeRepo) UpsertWithFeedback(grade *model.Grade, feedback *model.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	g := *grade
	f := *feedback
	r.grades[grade.SubmissionID] = &g
	r.feedbacks[grade.SubmissionID] = &f
	return nil
}

func (r *memGradeRepo) FindBySubmissionID(submissionID string) (*model.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grades[submissionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	if f, ok := r.feedbacks[submissionID]; ok {
		fc := *f
		copied.Feedback = &fc
	}
	return &copied, nil
}

// Stage fakes.

type stubTranscription struct {
	mu            sync.Mutex
	fetchErrs     []error
	transcript    string
	transcribeErr error
	fetchCalls    int
}

func (s *stubTranscription) FetchVideo(ctx context.Context, videoURL string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if len(s.fetchErrs) > 0 {
		err := s.fetchErrs[0]
		s.fetchErrs = s.fetchErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return []byte("video"), nil
}

func (s *stubTranscription) Transcribe(ctx context.Context, media []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcribeErr != nil {
		return "", s.transcribeErr
	}
	return s.transcript, nil
}

type stubEvaluation struct {
	result EvaluationResult
	err    error
	panics bool
}

func (s *stubEvaluation) Evaluate(ctx context.Context, assignmentTitle, transcript string) (EvaluationResult, error) {
	if s.panics {
		panic("evaluation stage blew up")
	}
	return s.result, s.err
}

type stubDelivery struct {
	result DeliveryResult
}

func (s *stubDelivery) Analyze(ctx context.Context, videoURL string) DeliveryResult {
	return s.result
}

type processorFixture struct {
	cfg           *config.Config
	queueRepo     *memQueueRepo
	subRepo       *memSubmissionRepo
	gradeRepo     *memGradeRepo
	transcription *stubTranscription
	evaluation    *stubEvaluation
	delivery      *stubDelivery
	processor     QueueProcessorService
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		cfg: &config.Config{
			Queue: config.Queue{MaxConcurrent: 5, MaxAttempts: 3, LeaseTimeout: 5 * time.Minute},
		},
		queueRepo: newMemQueueRepo(),
		subRepo:   newMemSubmissionRepo(),
		gradeRepo: newMemGradeRepo(),
		transcription: &stubTranscription{
			transcript: "Today I will explain the migration plan and the rollout schedule in detail.",
		},
		evaluation: &stubEvaluation{
			result: EvaluationResult{
				CriteriaScores: []CriterionScore{
					{CriterionName: "Clarity & Structure", Score: 3, MaxScore: 4, Feedback: "Clear throughout."},
				},
				TotalScore:      16,
				MaxTotalScore:   20,
				OverallFeedback: "Well organized presentation.",
			},
		},
		delivery: &stubDelivery{result: DeliveryResult{Verdict: "✓ Used hands effectively"}},
	}
	f.processor = NewQueueProcessorService(
		f.cfg, f.queueRepo, f.subRepo, f.gradeRepo,
		f.transcription, f.evaluation, f.delivery,
		NewFillerWordService(), NewScoringService(),
	)
	return f
}

func (f *processorFixture) enqueue(t *testing.T, submissionID string) *model.QueueItem {
	t.Helper()
	sub := &model.Submission{
		ID:              submissionID,
		AssignmentTitle: "Persuasive Speech",
		VideoURL:        "https://videos.example/" + submissionID + ".webm",
		Status:          model.SubmissionPending,
	}
	if err := f.subRepo.Create(sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}
	item := &model.QueueItem{
		SubmissionID:    submissionID,
		Status:          model.QueuePending,
		MaxAttempts:     f.cfg.Queue.MaxAttempts,
		VideoURL:        sub.VideoURL,
		AssignmentTitle: sub.AssignmentTitle,
	}
	if err := f.queueRepo.Create(item); err != nil {
		t.Fatalf("create queue item: %v", err)
	}
	return item
}

func TestRunPassGradesPendingItem(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-1")

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Total != 1 || summary.Succeeded != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueueCompleted {
		t.Errorf("queue item status = %s, want completed", got.Status)
	}
	sub, _ := f.subRepo.FindByID("sub-1")
	if sub.Status != model.SubmissionCompleted {
		t.Errorf("submission status = %s, want completed", sub.Status)
	}
	if sub.Transcript == "" {
		t.Error("transcript was not persisted")
	}

	grade, err := f.gradeRepo.FindBySubmissionID("sub-1")
	if err != nil {
		t.Fatalf("grade not written: %v", err)
	}
	// content 16/20 -> 80%, no fillers -> 100%: 0.8*80 + 0.2*100 = 84
	if grade.TotalScore != 84 {
		t.Errorf("TotalScore = %d, want 84", grade.TotalScore)
	}
	if grade.Feedback == nil || grade.Feedback.DeliveryFeedback != "✓ Used hands effectively" {
		t.Errorf("unexpected feedback: %+v", grade.Feedback)
	}
}

func TestRunPassSkipsWhenAtCapacity(t *testing.T) {
	f := newProcessorFixture()
	now := time.Now()
	for i := 0; i < f.cfg.Queue.MaxConcurrent; i++ {
		item := &model.QueueItem{
			SubmissionID:        fmt.Sprintf("busy-%d", i),
			Status:              model.QueueProcessing,
			ProcessingStartedAt: &now,
			MaxAttempts:         3,
		}
		if err := f.queueRepo.Create(item); err != nil {
			t.Fatal(err)
		}
	}
	f.enqueue(t, "sub-waiting")

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Total != 0 {
		t.Fatalf("claimed %d items at capacity, want 0", summary.Total)
	}
	if f.transcription.fetchCalls != 0 {
		t.Errorf("pipeline ran %d times while queue at capacity", f.transcription.fetchCalls)
	}
}

func TestRunPassReclaimsStaleLeasesWithoutChargingAttempts(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-stale")

	stale := time.Now().Add(-10 * time.Minute)
	f.queueRepo.mu.Lock()
	stuck := f.queueRepo.items[item.ID]
	stuck.Status = model.QueueProcessing
	stuck.ProcessingStartedAt = &stale
	stuck.Attempts = 1
	f.queueRepo.mu.Unlock()

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Reclaimed != 1 {
		t.Fatalf("Reclaimed = %d, want 1", summary.Reclaimed)
	}
	// The reclaimed item is pending again and gets picked up in the same pass.
	if summary.Succeeded != 1 {
		t.Fatalf("Succeeded = %d, want 1", summary.Succeeded)
	}
	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Attempts != 1 {
		t.Errorf("reclaim changed attempts to %d, want unchanged 1", got.Attempts)
	}
}

func TestRunPassRequeuesRetryableFailureThenSucceeds(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-flaky")
	f.transcription.fetchErrs = []error{
		errors.New("fetch video: connection reset"),
		errors.New("fetch video: connection reset"),
	}

	for pass := 0; pass < 2; pass++ {
		if _, err := f.processor.RunPass(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		got, _ := f.queueRepo.FindByID(item.ID)
		if got.Status != model.QueuePending {
			t.Fatalf("pass %d: status = %s, want pending", pass, got.Status)
		}
		if got.Attempts != pass+1 {
			t.Fatalf("pass %d: attempts = %d, want %d", pass, got.Attempts, pass+1)
		}
		sub, _ := f.subRepo.FindByID("sub-flaky")
		if sub.Status != model.SubmissionPending {
			t.Fatalf("pass %d: submission status = %s, want pending", pass, sub.Status)
		}
	}

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("final pass summary: %+v", summary)
	}
	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueueCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempts)
	}
}

func TestRunPassFailsItemAfterMaxAttempts(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-doomed")
	f.transcription.transcribeErr = errors.New("transcription call failed: AUTH_ERROR")

	for pass := 0; pass < 3; pass++ {
		if _, err := f.processor.RunPass(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
	}

	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueueFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", got.Attempts)
	}
	sub, _ := f.subRepo.FindByID("sub-doomed")
	if sub.Status != model.SubmissionFailed {
		t.Errorf("submission status = %s, want failed", sub.Status)
	}
	if sub.ErrorMessage == nil || !strings.Contains(*sub.ErrorMessage, "AUTH_ERROR") {
		t.Errorf("submission error message = %v, want last failure reason", sub.ErrorMessage)
	}

	// A failed item stays failed; further passes must not pick it up.
	summary, _ := f.processor.RunPass(context.Background())
	if summary.Total != 0 {
		t.Errorf("terminal item was claimed again: %+v", summary)
	}
}

func TestRunPassEmptyTranscriptCompletesWithZeroGrade(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-silent")
	f.transcription.transcript = "   "

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary: %+v", summary)
	}

	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueueCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	sub, _ := f.subRepo.FindByID("sub-silent")
	if sub.Status != model.SubmissionCompleted {
		t.Errorf("submission status = %s, want completed", sub.Status)
	}

	grade, err := f.gradeRepo.FindBySubmissionID("sub-silent")
	if err != nil {
		t.Fatalf("grade not written: %v", err)
	}
	if grade.TotalScore != 0 || grade.FillerWordCount != 0 {
		t.Errorf("zero grade expected, got %+v", grade)
	}
	if grade.Feedback == nil || !strings.Contains(grade.Feedback.ContentFeedback, "No speech was detected") {
		t.Errorf("missing no-speech feedback: %+v", grade.Feedback)
	}
}

func TestRunPassFallbackEvaluationIsTerminal(t *testing.T) {
	f := newProcessorFixture()
	raw := "I cannot grade this in the requested format, sorry."
	f.evaluation.result = ParseEvaluation(raw)

	item := f.enqueue(t, "sub-fallback")

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("fallback should complete the item, summary: %+v", summary)
	}

	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueueCompleted || got.Attempts != 0 {
		t.Errorf("fallback was retried: status=%s attempts=%d", got.Status, got.Attempts)
	}

	grade, _ := f.gradeRepo.FindBySubmissionID("sub-fallback")
	if !grade.IsFallback {
		t.Error("grade not marked as fallback")
	}
	if grade.RawEvaluation == nil || *grade.RawEvaluation != raw {
		t.Errorf("raw evaluation not preserved verbatim: %v", grade.RawEvaluation)
	}
}

func TestRunPassDeliveryOutageDoesNotFailGrading(t *testing.T) {
	f := newProcessorFixture()
	f.delivery.result = DeliveryResult{Verdict: "Delivery analysis unavailable for this recording", Unavailable: true}
	f.enqueue(t, "sub-nodelivery")

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	grade, _ := f.gradeRepo.FindBySubmissionID("sub-nodelivery")
	if grade.Feedback.DeliveryFeedback != "Delivery analysis unavailable for this recording" {
		t.Errorf("DeliveryFeedback = %q", grade.Feedback.DeliveryFeedback)
	}
}

func TestRunPassRecoversFromStagePanic(t *testing.T) {
	f := newProcessorFixture()
	item := f.enqueue(t, "sub-panic")
	f.evaluation.panics = true

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	got, _ := f.queueRepo.FindByID(item.ID)
	if got.Status != model.QueuePending {
		t.Errorf("status = %s, want pending for retry", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
	if got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "panic") {
		t.Errorf("error message = %v", got.ErrorMessage)
	}
}

func TestRunPassClaimsHigherPriorityFirst(t *testing.T) {
	f := newProcessorFixture()
	f.cfg.Queue.MaxConcurrent = 1

	f.enqueue(t, "sub-low")
	high := f.enqueue(t, "sub-high")
	f.queueRepo.mu.Lock()
	f.queueRepo.items[high.ID].Priority = 10
	f.queueRepo.mu.Unlock()

	summary, err := f.processor.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("claimed %d items, want 1", summary.Total)
	}
	got, _ := f.queueRepo.FindByID(high.ID)
	if got.Status != model.QueueCompleted {
		t.Errorf("high priority item status = %s, want completed", got.Status)
	}
}
