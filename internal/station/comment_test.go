package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComment(t *testing.T) {
	c, err := NewComment("st-1", "u1", "  ", 4, "  good coffee ")
	require.NoError(t, err)
	assert.Equal(t, AnonymousUser, c.UserName)
	assert.Equal(t, "good coffee", c.Text)
	assert.Equal(t, 4, c.Rating)
	assert.False(t, c.CreatedAt.IsZero())

	c, err = NewComment("st-1", "u1", "Ana", NoRating, "queue at pump 2")
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.UserName)

	tests := []struct {
		name   string
		rating int
		text   string
		want   error
	}{
		{"rating too high", 6, "x", ErrInvalidRating},
		{"negative rating", -1, "x", ErrInvalidRating},
		{"empty", NoRating, "   ", ErrEmptyComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComment("st-1", "u1", "", tt.rating, tt.text)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, RatingSummary{}, AverageRating(nil))
	assert.Equal(t, "not rated yet", AverageRating(nil).String())

	got := AverageRating([]Comment{{Rating: 5}, {Rating: 4}, {Rating: NoRating}, {Rating: 4}})
	assert.Equal(t, RatingSummary{Average: 4.3, Count: 3}, got)
	assert.Equal(t, "4.3/5 (3 ratings)", got.String())
}
