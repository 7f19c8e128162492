package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"prepcoach/internal/services"
)

// Export formats accepted by the batch export endpoint.
const (
	ExportPDF = "pdf"
	ExportCSV = "csv"
)

type exportRequest struct {
	InterviewIDs []string `json:"interviewIds"`
}

// ExportInterviewPDF downloads the PDF report for a single interview.
func (c *Client) ExportInterviewPDF(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, services.Wrap(services.ErrValidation, "backend", "export", "interview id is required", nil)
	}
	payload, _, err := c.send(ctx, call{
		method:   http.MethodGet,
		segments: []string{"export", id, "pdf"},
		accept:   "application/pdf",
		timeout:  c.uploadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// ExportBatch renders several interviews into one pdf or csv document.
func (c *Client) ExportBatch(ctx context.Context, format string, ids []string) ([]byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	accept := ""
	switch format {
	case ExportPDF:
		accept = "application/pdf"
	case ExportCSV:
		accept = "text/csv"
	default:
		return nil, services.Wrap(services.ErrValidation, "backend", "export", fmt.Sprintf("unsupported format %q", format), nil)
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, services.Wrap(services.ErrValidation, "backend", "export", "at least one interview id is required", nil)
	}
	encoded, err := json.Marshal(exportRequest{InterviewIDs: cleaned})
	if err != nil {
		return nil, fmt.Errorf("backend request: encode body: %w", err)
	}
	payload, _, err := c.send(ctx, call{
		method:      http.MethodPost,
		segments:    []string{"export", format},
		body:        bytes.NewReader(encoded),
		contentType: "application/json",
		accept:      accept,
		timeout:     c.uploadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
