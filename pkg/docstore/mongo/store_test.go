package mongo

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepth(t *testing.T) {
	assert.Equal(t, 1, depth("hotels"))
	assert.Equal(t, 3, depth("hotelBookings/u1/H1_2024-08-01_Deluxe_Room"))
}

func TestDescendantsPattern(t *testing.T) {
	re := regexp.MustCompile(descendantsPattern([]string{"hotelBookings", "a@b_com"}))

	assert.True(t, re.MatchString("hotelBookings/a@b_com/H1_2024-08-01_Deluxe_Room"))
	assert.False(t, re.MatchString("hotelBookings/a@b_com"), "self is not a descendant")
	assert.False(t, re.MatchString("hotelBookings/a@b_com2/k"), "sibling with shared prefix")
	assert.False(t, re.MatchString("x/hotelBookings/a@b_com/k"))
}

func TestNormalizedDocumentValue(t *testing.T) {
	v, err := normalized(&document{ID: "a", Value: map[string]any{"n": int32(3), "empty": map[string]any{}}})
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(3)}, v)
}
