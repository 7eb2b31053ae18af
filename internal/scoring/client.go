package scoring

import (
	"context"
	"log/slog"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	"github.com/HarryOhm33/We-Hack/pkg/httpclient"
)

// scorePath is the assessment service endpoint that ranks a candidate
// against a job posting.
const scorePath = "/score"

// scoreRequest is the payload sent to the assessment service.
type scoreRequest struct {
	JobTitle       string   `json:"job_title"`
	JobDescription string   `json:"job_description"`
	Skills         []string `json:"skills,omitempty"`
	ResumeURL      string   `json:"resume_url,omitempty"`
	CoverLetter    string   `json:"cover_letter,omitempty"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// poster is the HTTP capability the client needs, satisfied by the circuit
// breaker client.
type poster interface {
	PostJSON(ctx context.Context, path string, body any, out any) error
}

// Client calls the assessment service to score an application against a job.
type Client struct {
	http   poster
	logger *slog.Logger
}

// NewClient creates a scoring client.
func NewClient(http poster, logger *slog.Logger) *Client {
	return &Client{http: http, logger: logger}
}

// NewBreakerClient builds a scoring client with retrying transport and a
// circuit breaker around the assessment service.
func NewBreakerClient(baseURL string, logger *slog.Logger) *Client {
	base := httpclient.New(httpclient.Config{BaseURL: baseURL}, logger)
	return NewClient(httpclient.NewBreakerClient("scoring", base, logger), logger)
}

// Score returns the assessment score for an application, or nil when the
// service is unavailable. Scoring is advisory, so failures never block an
// application.
func (c *Client) Score(ctx context.Context, job *domain.Job, app *domain.Application) *float64 {
	req := scoreRequest{
		JobTitle:       job.Title,
		JobDescription: job.Description,
		Skills:         job.Skills,
		ResumeURL:      app.ResumeURL,
		CoverLetter:    app.CoverLetter,
	}

	var resp scoreResponse
	if err := c.http.PostJSON(ctx, scorePath, req, &resp); err != nil {
		c.logger.WarnContext(ctx, "assessment scoring unavailable",
			slog.String("job_id", job.ID),
			slog.String("candidate_id", app.CandidateID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	return &resp.Score
}
