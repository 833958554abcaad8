package epsonconnect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	jobEndpoint       = "/api/1/printing/printers/%s/jobs/%s"
	cancelJobEndpoint = "/api/1/printing/printers/%s/jobs/%s/cancel"
)

// Job represents the status of a print job.
type Job struct {
	Status       string `json:"status"`
	StatusReason string `json:"status_reason,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	JobName      string `json:"job_name,omitempty"`
	TotalPages   int    `json:"total_pages,omitempty"`
	UpdateDate   string `json:"update_date,omitempty"`
}

// JobStatus represents possible job statuses.
const (
	JobStatusPending     = "pending"
	JobStatusPendingHeld = "pending_held"
	JobStatusProcessing  = "processing"
	JobStatusCompleted   = "completed"
	JobStatusCanceled    = "canceled"
	JobStatusError       = "error"
)

// Cancelable reports whether the job can still be canceled.
func (j *Job) Cancelable() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusPendingHeld
}

// JobInfo retrieves the status of a print job.
func (p *Printer) JobInfo(ctx context.Context, jobID string) (*Job, error) {
	subject, err := p.client.subjectSegment(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.doRequest(ctx, http.MethodGet, fmt.Sprintf(jobEndpoint, subject, url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	var job Job
	if err := resp.Decode(&job); err != nil {
		return nil, fmt.Errorf("parsing job response: %w", err)
	}

	return &job, nil
}

// CancelJob cancels a print job that has not started printing.
func (p *Printer) CancelJob(ctx context.Context, jobID string) error {
	job, err := p.JobInfo(ctx, jobID)
	if err != nil {
		return err
	}

	if !job.Cancelable() {
		return &PreconditionError{Op: "cancel job", Reason: fmt.Sprintf("cannot cancel job with status %s", job.Status)}
	}

	endpoint := fmt.Sprintf(cancelJobEndpoint, p.client.credential.SubjectID(), url.PathEscape(jobID))
	if _, err := p.client.doRequest(ctx, http.MethodPost, endpoint, map[string]string{"operated_by": "user"}); err != nil {
		return fmt.Errorf("cancelling job: %w", err)
	}

	return nil
}
