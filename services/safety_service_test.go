package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"dateQuestAPI/internal/questerr"
)

func TestLikelihoodConfidence(t *testing.T) {
	assert.Equal(t, 95, likelihoodConfidence(visionpb.Likelihood_VERY_LIKELY))
	assert.Equal(t, 75, likelihoodConfidence(visionpb.Likelihood_LIKELY))
	assert.Equal(t, 50, likelihoodConfidence(visionpb.Likelihood_POSSIBLE))
	assert.Equal(t, 25, likelihoodConfidence(visionpb.Likelihood_UNLIKELY))
	assert.Equal(t, 5, likelihoodConfidence(visionpb.Likelihood_VERY_UNLIKELY))
	assert.Equal(t, 0, likelihoodConfidence(visionpb.Likelihood_UNKNOWN))

	// Only VERY_LIKELY clears the block threshold.
	assert.Greater(t, likelihoodConfidence(visionpb.Likelihood_VERY_LIKELY), safetyBlockThreshold)
	assert.LessOrEqual(t, likelihoodConfidence(visionpb.Likelihood_LIKELY), safetyBlockThreshold)
}

func TestDecodeSubmissionImage(t *testing.T) {
	content, err := decodeSubmissionImage("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)

	content, err = decodeSubmissionImage("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)

	_, err = decodeSubmissionImage("not base64!!!")
	assert.ErrorIs(t, err, questerr.ErrValidation)
}
