package domain

import (
	"time"
)

// Application status constants.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Job is a posting created by a recruiter.
type Job struct {
	ID           string    `json:"id"`
	RecruiterID  string    `json:"recruiter_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	Location     string    `json:"location,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	SalaryRange  string    `json:"salary_range,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Application is a candidate's submission against a job, optionally scored by
// the assessment service.
type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	CandidateID string    `json:"candidate_id"`
	ResumeURL   string    `json:"resume_url,omitempty"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	Score       *float64  `json:"score,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
