package dto

// CreateSubmissionRequest enqueues a recorded speech for grading.
type CreateSubmissionRequest struct {
	StudentName     string `json:"student_name"`
	AssignmentTitle string `json:"assignment_title" binding:"required"`
	VideoURL        string `json:"video_url" binding:"required,url"`
	Priority        int    `json:"priority"` // higher runs first, default 0
}
