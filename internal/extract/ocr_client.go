package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/merchantiq/docengine/internal/config"
)

// PassConfig names one recognition attempt sent to the OCR service.
type PassConfig struct {
	Name         string `json:"name"`
	Segmentation string `json:"segmentation"`
	Language     string `json:"language"`
}

// DefaultPasses covers mixed-layout pages first and dense single-column
// statements second.
var DefaultPasses = []PassConfig{
	{Name: "general", Segmentation: "auto", Language: "eng"},
	{Name: "dense", Segmentation: "single-block", Language: "eng"},
}

type ocrRequest struct {
	Image        string `json:"image"`
	Segmentation string `json:"segmentation"`
	Language     string `json:"language"`
}

// OCRResult is one pass's raw output. Confidence is 0-100.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      int     `json:"words"`
}

// OCRClient talks to the external recognition service over HTTP.
type OCRClient struct {
	client   *resty.Client
	endpoint string
}

func NewOCRClient(cfg config.OCRConfig) *OCRClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetRetryCount(1)
	return &OCRClient{client: client, endpoint: cfg.Endpoint}
}

// Recognize submits one preprocessed page image for a single pass.
func (c *OCRClient) Recognize(ctx context.Context, image []byte, pass PassConfig) (*OCRResult, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("ocr endpoint not configured")
	}
	var result OCRResult
	rsp, err := c.client.R().
		SetContext(ctx).
		SetBody(ocrRequest{
			Image:        base64.StdEncoding.EncodeToString(image),
			Segmentation: pass.Segmentation,
			Language:     pass.Language,
		}).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("ocr pass %s: %w", pass.Name, err)
	}
	if rsp.IsError() {
		return nil, fmt.Errorf("ocr pass %s: status %d", pass.Name, rsp.StatusCode())
	}
	return &result, nil
}
