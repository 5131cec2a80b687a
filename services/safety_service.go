package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"dateQuestAPI/internal/questerr"
)

// SafetyResult is the inspector verdict on an image submission. Confidence
// is 0-100; the ledger blocks at confidence above 80.
type SafetyResult struct {
	Flagged    bool `json:"flagged"`
	Confidence int  `json:"confidence"`
}

// SafetyInspector screens image payloads before they are attached to a
// progress record. Inspector errors fail open: the ledger accepts the
// submission and logs the failure.
type SafetyInspector interface {
	InspectImage(ctx context.Context, imageBase64 string) (*SafetyResult, error)
}

// VisionSafetyService runs Cloud Vision SafeSearch over submissions.
type VisionSafetyService struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionSafetyService(ctx context.Context) (*VisionSafetyService, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionSafetyService{client: client}, nil
}

func (s *VisionSafetyService) Close() error {
	return s.client.Close()
}

func (s *VisionSafetyService) InspectImage(ctx context.Context, imageBase64 string) (*SafetyResult, error) {
	content, err := decodeSubmissionImage(imageBase64)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_SAFE_SEARCH_DETECTION},
				},
			},
		},
	}

	resp, err := s.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("safe search failed: %w: %w", err, questerr.ErrExternalService)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("safe search returned no responses: %w", questerr.ErrExternalService)
	}
	r0 := resp.GetResponses()[0]
	if e := r0.GetError(); e != nil {
		return nil, fmt.Errorf("safe search failed: %s: %w", e.GetMessage(), questerr.ErrExternalService)
	}

	annotation := r0.GetSafeSearchAnnotation()

	confidence := 0
	for _, likelihood := range []visionpb.Likelihood{annotation.GetAdult(), annotation.GetViolence(), annotation.GetRacy()} {
		if c := likelihoodConfidence(likelihood); c > confidence {
			confidence = c
		}
	}

	return &SafetyResult{Flagged: confidence >= 50, Confidence: confidence}, nil
}

// decodeSubmissionImage strips a data-URL prefix from mobile clients and
// decodes the payload.
func decodeSubmissionImage(imageBase64 string) ([]byte, error) {
	if i := strings.IndexByte(imageBase64, ','); i >= 0 && strings.HasPrefix(imageBase64, "data:") {
		imageBase64 = imageBase64[i+1:]
	}

	content, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, questerr.Validationf("submission image is not valid base64")
	}
	return content, nil
}

func likelihoodConfidence(l visionpb.Likelihood) int {
	switch l {
	case visionpb.Likelihood_VERY_LIKELY:
		return 95
	case visionpb.Likelihood_LIKELY:
		return 75
	case visionpb.Likelihood_POSSIBLE:
		return 50
	case visionpb.Likelihood_UNLIKELY:
		return 25
	case visionpb.Likelihood_VERY_UNLIKELY:
		return 5
	}
	return 0
}
