package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HarryOhm33/We-Hack/internal/service"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
	"github.com/HarryOhm33/We-Hack/pkg/httputil"
	"github.com/HarryOhm33/We-Hack/pkg/pagination"
	"github.com/HarryOhm33/We-Hack/pkg/validator"
)

// JobHandler handles HTTP requests for job and application endpoints.
type JobHandler struct {
	service *service.JobService
	logger  *slog.Logger
}

// NewJobHandler creates a new job HTTP handler.
func NewJobHandler(svc *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateJobRequest is the JSON request body for posting a job.
type CreateJobRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"required"`
	Location    string   `json:"location" validate:"omitempty,max=200"`
	Skills      []string `json:"skills" validate:"omitempty,dive,min=1,max=50"`
	SalaryRange string   `json:"salary_range" validate:"omitempty,max=100"`
}

// UpdateJobRequest is the JSON request body for editing a job posting.
type UpdateJobRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Location    *string  `json:"location" validate:"omitempty,max=200"`
	Skills      []string `json:"skills" validate:"omitempty,dive,min=1,max=50"`
	SalaryRange *string  `json:"salary_range" validate:"omitempty,max=100"`
}

// ApplyRequest is the JSON request body for applying to a job.
type ApplyRequest struct {
	ResumeURL   string `json:"resume_url" validate:"omitempty,url"`
	CoverLetter string `json:"cover_letter" validate:"omitempty,max=5000"`
}

// UpdateApplicationStatusRequest is the JSON request body for moving an
// application between states.
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected"`
}

// --- Handlers ---

// Create handles POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	job, err := h.service.CreateJob(r.Context(), user, service.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Skills:      req.Skills,
		SalaryRange: req.SalaryRange,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: job})
}

// List handles GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	result, err := h.service.ListJobs(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Get handles GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: job})
}

// Update handles PUT /api/jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	job, err := h.service.UpdateJob(r.Context(), user, chi.URLParam(r, "id"), service.UpdateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Skills:      req.Skills,
		SalaryRange: req.SalaryRange,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: job})
}

// Delete handles DELETE /api/jobs/{id}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	if err := h.service.DeleteJob(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MessageResponse{Message: "Job deleted."},
	})
}

// Apply handles POST /api/jobs/{id}/apply
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	app, err := h.service.Apply(r.Context(), user, chi.URLParam(r, "id"), service.ApplyInput{
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: app})
}

// ListApplications handles GET /api/jobs/{id}/applications
func (h *JobHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	apps, err := h.service.ListApplicationsForJob(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: apps})
}

// MyApplications handles GET /api/applications
func (h *JobHandler) MyApplications(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	apps, err := h.service.ListMyApplications(r.Context(), user)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: apps})
}

// UpdateApplicationStatus handles PUT /api/jobs/{id}/applications/{applicationID}
func (h *JobHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateApplicationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	app, err := h.service.UpdateApplicationStatus(r.Context(), user, chi.URLParam(r, "id"), chi.URLParam(r, "applicationID"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: app})
}
