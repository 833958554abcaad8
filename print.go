package epsonconnect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	jobsEndpoint    = "/api/1/printing/printers/%s/jobs"
	executeEndpoint = "/api/1/printing/printers/%s/jobs/%s/print"
)

var (
	documentExtensions = []string{"doc", "docx", "xls", "xlsx", "ppt", "pptx", "pdf", "jpeg", "jpg", "bmp", "gif", "png", "tiff"}
	photoExtensions    = []string{"jpeg", "jpg"}
)

// CreateJobResponse represents the response from creating a print job.
type CreateJobResponse struct {
	ID        string `json:"id"`
	UploadURI string `json:"upload_uri"`
}

// CreateJob registers a print job and returns the URI the document must be
// uploaded to. Missing settings are filled with defaults.
func (p *Printer) CreateJob(ctx context.Context, settings *PrintSettings) (*CreateJobResponse, error) {
	subject, err := p.client.subjectSegment(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.doRequest(ctx, http.MethodPost, fmt.Sprintf(jobsEndpoint, subject), settings.withDefaults())
	if err != nil {
		return nil, fmt.Errorf("creating print job: %w", err)
	}

	var job CreateJobResponse
	if err := resp.Decode(&job); err != nil {
		return nil, fmt.Errorf("parsing create job response: %w", err)
	}
	if job.ID == "" || job.UploadURI == "" {
		return nil, fmt.Errorf("create job response is missing id or upload_uri")
	}

	return &job, nil
}

// UploadFile uploads document data to the URI returned by CreateJob. The
// upload URI carries its own key, so no bearer token is attached.
func (p *Printer) UploadFile(ctx context.Context, uploadURI string, data []byte, extension, printMode string) error {
	ext, err := checkExtension(extension, printMode)
	if err != nil {
		return err
	}

	sep := "&"
	if !strings.Contains(uploadURI, "?") {
		sep = "?"
	}

	header := http.Header{}
	header.Set("Content-Type", "application/octet-stream")

	_, err = p.client.dispatcher.Send(ctx, &Request{
		Method: http.MethodPost,
		URL:    uploadURI + sep + "File=1." + ext,
		Header: header,
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("uploading document: %w", err)
	}

	return nil
}

// ExecuteJob starts printing an uploaded job.
func (p *Printer) ExecuteJob(ctx context.Context, jobID string) error {
	subject, err := p.client.subjectSegment(ctx)
	if err != nil {
		return err
	}

	if _, err := p.client.doRequest(ctx, http.MethodPost, fmt.Sprintf(executeEndpoint, subject, url.PathEscape(jobID)), nil); err != nil {
		return fmt.Errorf("executing print job: %w", err)
	}

	return nil
}

// Print prints a file and returns the job ID.
func (p *Printer) Print(ctx context.Context, filePath string, settings *PrintSettings) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	return p.PrintData(ctx, data, filepath.Ext(filePath), settings)
}

// PrintData prints raw document data and returns the job ID. The extension
// names the document format, e.g. "pdf" or ".jpg".
func (p *Printer) PrintData(ctx context.Context, data []byte, extension string, settings *PrintSettings) (string, error) {
	settings = settings.withDefaults()

	if _, err := checkExtension(extension, settings.PrintMode); err != nil {
		return "", err
	}

	job, err := p.CreateJob(ctx, settings)
	if err != nil {
		return "", fmt.Errorf("submitting print job: %w", err)
	}

	if err := p.UploadFile(ctx, job.UploadURI, data, extension, settings.PrintMode); err != nil {
		return "", err
	}

	if err := p.ExecuteJob(ctx, job.ID); err != nil {
		return "", err
	}

	return job.ID, nil
}

func checkExtension(extension, printMode string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))

	allowed := documentExtensions
	if printMode == PrintModePhoto {
		allowed = photoExtensions
	}
	if !slices.Contains(allowed, ext) {
		return "", &ValidationError{Field: "extension", Reason: fmt.Sprintf("%q is not supported in %s mode", ext, printMode)}
	}

	return ext, nil
}
