package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const visionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// maxPeopleImages bounds how many candidate images are sent for detection.
const maxPeopleImages = 3

// PeopleDetector estimates whether a page's imagery contains people by
// running face detection over its largest images.
type PeopleDetector struct {
	apiKey  string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewPeopleDetector creates a detector. An empty apiKey is allowed; Detect
// then always returns 不明.
func NewPeopleDetector(apiKey string, timeout time.Duration, logger *slog.Logger) *PeopleDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeopleDetector{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image struct {
		Source struct {
			ImageURI string `json:"imageUri"`
		} `json:"source"`
	} `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []struct {
		FaceAnnotations []json.RawMessage `json:"faceAnnotations"`
		Error           *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Detect returns あり if any face is found in any image, なし if detection
// ran cleanly with no faces, and 不明 when the key is missing, there are no
// candidates, or the call fails or times out.
func (d *PeopleDetector) Detect(ctx context.Context, imageURLs []string) string {
	if d.apiKey == "" || len(imageURLs) == 0 {
		return PeopleUnknown
	}
	if len(imageURLs) > maxPeopleImages {
		imageURLs = imageURLs[:maxPeopleImages]
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var req annotateRequest
	for _, u := range imageURLs {
		var entry annotateEntry
		entry.Image.Source.ImageURI = u
		entry.Features = []annotateFeature{{Type: "FACE_DETECTION", MaxResults: 5}}
		req.Requests = append(req.Requests, entry)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return PeopleUnknown
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s?key=%s", visionEndpoint, d.apiKey), bytes.NewReader(body))
	if err != nil {
		return PeopleUnknown
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.logger.Debug("vision call failed", "error", err)
		return PeopleUnknown
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		d.logger.Debug("vision call non-OK", "status", resp.StatusCode)
		return PeopleUnknown
	}

	var annotated annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&annotated); err != nil {
		return PeopleUnknown
	}

	sawClean := false
	for _, r := range annotated.Responses {
		if r.Error != nil {
			continue
		}
		if len(r.FaceAnnotations) > 0 {
			return PeopleYes
		}
		sawClean = true
	}
	if sawClean {
		return PeopleNo
	}
	return PeopleUnknown
}
