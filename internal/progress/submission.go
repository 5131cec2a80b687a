package progress

import (
	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/questerr"
)

// Submission is the tagged payload for a challenge submission. Each variant
// matches one challenge modality and validates its own shape; the ledger
// refuses a variant that does not match the challenge's type.
type Submission interface {
	Modality() challenge.Type
	Validate() error
}

type TextSubmission struct {
	Text string `json:"text"`
}

func (TextSubmission) Modality() challenge.Type { return challenge.TypeText }

func (s TextSubmission) Validate() error {
	if s.Text == "" {
		return questerr.Validationf("text submission requires non-empty text")
	}
	return nil
}

type ImageSubmission struct {
	ImageID     string `json:"imageId"`
	ImageBase64 string `json:"imageBase64"`
}

func (ImageSubmission) Modality() challenge.Type { return challenge.TypeImage }

func (s ImageSubmission) Validate() error {
	if s.ImageBase64 == "" {
		return questerr.Validationf("image submission requires an encoded image")
	}
	return nil
}

// LocationSubmission carries coordinates plus a proof-of-presence photo.
type LocationSubmission struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	ProofImageID     string  `json:"proofImageId"`
	ProofImageBase64 string  `json:"proofImageBase64"`
}

func (LocationSubmission) Modality() challenge.Type { return challenge.TypeLocation }

func (s LocationSubmission) Validate() error {
	if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
		return questerr.Validationf("location submission requires valid coordinates")
	}
	if s.ProofImageBase64 == "" {
		return questerr.Validationf("location submission requires a proof-of-presence image")
	}
	return nil
}
