package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// Extraction is what the external document-analysis service hands back for an
// uploaded incapacity certificate. Everything in it is advisory: a reviewer
// decides, the suggestion never drives a state change.
type Extraction struct {
	Type            string  `json:"type"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	Diagnosis       string  `json:"diagnosis"`
	Confidence      float64 `json:"confidence"`
	SuggestedAction string  `json:"suggestedAction"`
	FullText        string  `json:"fullText,omitempty"`
}

const (
	SuggestApprove = "approve"
	SuggestReject  = "reject"
	SuggestReview  = "review"
)

var ErrNotConfigured = errors.New("ocr service not configured")

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Analyze posts the document bytes to the analysis service and decodes the
// extraction payload.
func (c *Client) Analyze(ctx context.Context, fileName string, data []byte) (Extraction, error) {
	if !c.Configured() {
		return Extraction{}, ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return Extraction{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Extraction{}, err
	}
	if err := writer.Close(); err != nil {
		return Extraction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return Extraction{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Extraction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Extraction{}, fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data Extraction `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Extraction{}, err
	}
	normalize(&payload.Data)
	return payload.Data, nil
}

func normalize(e *Extraction) {
	switch e.SuggestedAction {
	case SuggestApprove, SuggestReject, SuggestReview:
	default:
		e.SuggestedAction = SuggestReview
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
}
