package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/questerr"
)

func TestSubmitRequestToSubmission(t *testing.T) {
	lat, lng := 42.7, 23.3

	sub, err := (&submitRequest{Type: "text", Text: "hello"}).toSubmission()
	require.NoError(t, err)
	assert.Equal(t, progress.TextSubmission{Text: "hello"}, sub)

	sub, err = (&submitRequest{Type: "image", ImageID: "img-1", ImageBase64: "aGVsbG8="}).toSubmission()
	require.NoError(t, err)
	assert.Equal(t, progress.ImageSubmission{ImageID: "img-1", ImageBase64: "aGVsbG8="}, sub)

	sub, err = (&submitRequest{Type: "location", Lat: &lat, Lng: &lng, ProofImageID: "img-2", ProofImageBase64: "aGVsbG8="}).toSubmission()
	require.NoError(t, err)
	assert.Equal(t, progress.LocationSubmission{
		Lat: lat, Lng: lng, ProofImageID: "img-2", ProofImageBase64: "aGVsbG8=",
	}, sub)
}

func TestSubmitRequestLocationMissingCoordinates(t *testing.T) {
	lat := 42.7
	_, err := (&submitRequest{Type: "location", Lat: &lat}).toSubmission()
	assert.ErrorIs(t, err, questerr.ErrValidation)

	_, err = (&submitRequest{Type: "location"}).toSubmission()
	assert.ErrorIs(t, err, questerr.ErrValidation)
}

func TestSubmitRequestUnknownType(t *testing.T) {
	_, err := (&submitRequest{Type: "video"}).toSubmission()
	assert.ErrorIs(t, err, questerr.ErrValidation)
}
