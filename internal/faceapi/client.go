// Package faceapi talks to the HTTP face detection and embedding service.
package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/imaging"
)

const (
	defaultFaceAPIURL  = "http://localhost:8000"
	defaultTimeout     = 60 * time.Second
	defaultMaxInFlight = 2
	uploadJPEGQuality  = 95
)

// Client detects faces and computes face embeddings using the face service.
// It satisfies the detector and embedder contracts of the verification package.
type Client struct {
	baseURL string
	client  *http.Client
	slots   *semaphore.Weighted
}

// NewClient creates a new face service client. At most maxInFlight requests
// are sent concurrently; callers beyond that wait for a free slot.
func NewClient(baseURL string, timeout time.Duration, maxInFlight int) *Client {
	if baseURL == "" {
		baseURL = defaultFaceAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		slots:   semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// detectResponse represents the response from /detect/face
type detectResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type faceDetection struct {
	BBox     []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore float64   `json:"det_score"`
}

// embedResponse represents the response from /embed/face
type embedResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Detect returns every face the service finds in img, in its pixel coordinates.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]facematch.Detection, error) {
	data, err := imaging.EncodeJPEG(img, uploadJPEGQuality)
	if err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/detect/face", data, nil)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	b := img.Bounds()
	detections := make([]facematch.Detection, 0, len(resp.Faces))
	for i, f := range resp.Faces {
		box, err := facematch.BBoxFromCorners(f.BBox)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		detections = append(detections, facematch.Detection{
			Box:        box.Clip(b.Dx(), b.Dy()),
			Confidence: f.DetScore,
		})
	}
	return detections, nil
}

// Embed computes the embedding of the face inside box.
func (c *Client) Embed(ctx context.Context, img image.Image, box facematch.BBox) (facematch.Embedding, error) {
	data, err := imaging.EncodeJPEG(img, uploadJPEGQuality)
	if err != nil {
		return nil, err
	}

	corners := box.Corners()
	parts := make([]string, len(corners))
	for i, v := range corners {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", data, map[string]string{
		"bbox": strings.Join(parts, ","),
	})
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	if resp.Dim != 0 && resp.Dim != len(resp.Embedding) {
		return nil, fmt.Errorf("embedding has %d values, service reported dim %d", len(resp.Embedding), resp.Dim)
	}
	return resp.Embedding, nil
}

// Health checks that the face service is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face service unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

// postMultipartImage posts the image as the "file" part of a multipart form,
// together with any extra form fields.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for face service slot: %w", err)
	}
	defer c.slots.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
