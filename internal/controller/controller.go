package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qvhoang/Peregrine/internal/dto"
	"github.com/qvhoang/Peregrine/internal/service"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	submissionSvc service.SubmissionService
	processorSvc  service.QueueProcessorService
}

func NewController(submissionSvc service.SubmissionService, processorSvc service.QueueProcessorService) *Controller {
	return &Controller{
		submissionSvc: submissionSvc,
		processorSvc:  processorSvc,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		submissions := apiV1.Group("/submissions")
		submissions.POST("", ctrl.CreateSubmissionHandler)
		submissions.GET("", ctrl.GetAllSubmissionsHandler)
		submissions.GET("/:id", ctrl.GetSubmissionHandler)
		submissions.GET("/:id/queue", ctrl.GetQueueHistoryHandler)

		queue := apiV1.Group("/queue")
		queue.POST("/process", ctrl.ProcessQueueHandler)
	}
}

// CreateSubmissionHandler godoc
// @Summary Submit a speech recording for grading
// @Description Create a submission and enqueue it for asynchronous AI grading. Poll the submission until its status is completed or failed.
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body dto.CreateSubmissionRequest true "Submission data"
// @Success 202 {object} dto.SubmissionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /submissions [post]
func (ctrl *Controller) CreateSubmissionHandler(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateSubmissionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.submissionSvc.CreateSubmission(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create submission")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create submission: " + err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetSubmissionHandler godoc
// @Summary Get a submission with its grade and feedback
// @Description Retrieve a submission by ID. Once grading has finished the response includes the grade and its feedback.
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID (UUID)"
// @Success 200 {object} dto.SubmissionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /submissions/{id} [get]
func (ctrl *Controller) GetSubmissionHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID format"})
		return
	}

	resp, err := ctrl.submissionSvc.GetSubmission(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Submission not found"})
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to get submission")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to retrieve submission"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAllSubmissionsHandler godoc
// @Summary Get all submissions
// @Description Retrieve all submissions, newest first.
// @Tags submissions
// @Produce json
// @Success 200 {array} dto.SubmissionResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /submissions [get]
func (ctrl *Controller) GetAllSubmissionsHandler(c *gin.Context) {
	resp, err := ctrl.submissionSvc.GetAllSubmissions()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get submissions")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to retrieve submissions"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetQueueHistoryHandler godoc
// @Summary Get a submission's queue history
// @Description Retrieve the work items recorded for a submission, including attempts and error messages. Useful when a submission is stuck or failed.
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID (UUID)"
// @Success 200 {array} dto.QueueItemResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /submissions/{id}/queue [get]
func (ctrl *Controller) GetQueueHistoryHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID format"})
		return
	}

	resp, err := ctrl.submissionSvc.GetQueueHistory(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Submission not found"})
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to get queue history")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to retrieve queue history"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessQueueHandler godoc
// @Summary Trigger a queue processing pass
// @Description Run one grading pass over the queue: reclaim expired leases, claim pending items up to the concurrency limit and grade them. Idempotent and safe to call at any time.
// @Tags queue
// @Produce json
// @Success 200 {object} service.QueuePassSummary
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /queue/process [post]
func (ctrl *Controller) ProcessQueueHandler(c *gin.Context) {
	summary, err := ctrl.processorSvc.RunPass(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Queue pass failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Queue pass failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
