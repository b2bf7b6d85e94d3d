package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/qvhoang/Peregrine/internal/dto"
	"github.com/qvhoang/Peregrine/internal/model"
	"github.com/qvhoang/Peregrine/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SubmissionService interface {
	CreateSubmission(req dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error)
	GetSubmission(id string) (*dto.SubmissionResponse, error)
	GetAllSubmissions() ([]dto.SubmissionResponse, error)
	GetQueueHistory(submissionID string) ([]dto.QueueItemResponse, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	queueRepo      repository.QueueRepository
	gradeRepo      repository.GradeRepository
	processor      QueueProcessorService
	maxAttempts    int
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	queueRepo repository.QueueRepository,
	gradeRepo repository.GradeRepository,
	processor QueueProcessorService,
	maxAttempts int,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		queueRepo:      queueRepo,
		gradeRepo:      gradeRepo,
		processor:      processor,
		maxAttempts:    maxAttempts,
	}
}

// CreateSubmission persists the submission, enqueues a work item for it and
// opportunistically kicks off a processing pass so a quiet system grades new
// work without waiting for the next tick.
func (s *submissionService) CreateSubmission(req dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error) {
	submission := model.Submission{
		ID:              uuid.NewString(),
		StudentName:     req.StudentName,
		AssignmentTitle: req.AssignmentTitle,
		VideoURL:        req.VideoURL,
		Status:          model.SubmissionPending,
	}
	if err := s.submissionRepo.Create(&submission); err != nil {
		log.Error().Err(err).Msg("Failed to create submission")
		return nil, fmt.Errorf("creating submission: %w", err)
	}

	item := model.QueueItem{
		SubmissionID:    submission.ID,
		Status:          model.QueuePending,
		MaxAttempts:     s.maxAttempts,
		Priority:        req.Priority,
		VideoURL:        submission.VideoURL,
		AssignmentTitle: submission.AssignmentTitle,
	}
	if err := s.queueRepo.Create(&item); err != nil {
		log.Error().Err(err).Str("submissionID", submission.ID).Msg("Failed to enqueue submission")
		return nil, fmt.Errorf("enqueueing submission: %w", err)
	}

	go func() {
		if _, err := s.processor.RunPass(context.Background()); err != nil {
			log.Error().Err(err).Msg("Opportunistic queue pass failed")
		}
	}()

	var resp dto.SubmissionResponse
	if err := copier.Copy(&resp, &submission); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *submissionService) GetSubmission(id string) (*dto.SubmissionResponse, error) {
	submission, err := s.submissionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	var resp dto.SubmissionResponse
	if err := copier.Copy(&resp, submission); err != nil {
		return nil, err
	}

	grade, err := s.gradeRepo.FindBySubmissionID(id)
	switch {
	case err == nil:
		var gradeResp dto.GradeResponse
		if err := copier.Copy(&gradeResp, grade); err != nil {
			return nil, err
		}
		resp.Grade = &gradeResp
	case errors.Is(err, gorm.ErrRecordNotFound):
		// not graded yet
	default:
		return nil, err
	}
	return &resp, nil
}

func (s *submissionService) GetAllSubmissions() ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissionRepo.FindAll()
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SubmissionResponse, 0, len(submissions))
	if err := copier.Copy(&resp, &submissions); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *submissionService) GetQueueHistory(submissionID string) ([]dto.QueueItemResponse, error) {
	if _, err := s.submissionRepo.FindByID(submissionID); err != nil {
		return nil, err
	}
	items, err := s.queueRepo.FindBySubmissionID(submissionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.QueueItemResponse, 0, len(items))
	if err := copier.Copy(&resp, &items); err != nil {
		return nil, err
	}
	return resp, nil
}
