package station

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5

	// NoRating marks a comment left without stars.
	NoRating = 0

	AnonymousUser = "anonymous"
)

var (
	ErrInvalidRating = errors.New("invalid rating")
	ErrEmptyComment  = errors.New("comment needs a rating or text")
)

// Comment is a user review of a station.
type Comment struct {
	ID        int64     `json:"id"`
	StationID string    `json:"station_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment validates and builds a comment. rating is NoRating or within
// [MinRating, MaxRating]; a comment without a rating needs some text.
func NewComment(stationID, userID, userName string, rating int, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if rating != NoRating && (rating < MinRating || rating > MaxRating) {
		return nil, fmt.Errorf("%w: %d is not between %d and %d", ErrInvalidRating, rating, MinRating, MaxRating)
	}
	if rating == NoRating && text == "" {
		return nil, ErrEmptyComment
	}

	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = AnonymousUser
	}

	return &Comment{
		StationID: stationID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RatingSummary is the average of the rated comments of a station.
type RatingSummary struct {
	Average float64
	Count   int
}

func (r RatingSummary) String() string {
	if r.Count == 0 {
		return "not rated yet"
	}
	return fmt.Sprintf("%.1f/5 (%d ratings)", r.Average, r.Count)
}

// AverageRating averages the ratings in [MinRating, MaxRating], rounded to
// one fraction digit. Unrated comments are ignored.
func AverageRating(comments []Comment) RatingSummary {
	var sum, count int
	for _, c := range comments {
		if c.Rating < MinRating || c.Rating > MaxRating {
			continue
		}
		sum += c.Rating
		count++
	}
	if count == 0 {
		return RatingSummary{}
	}
	return RatingSummary{
		Average: math.Round(float64(sum)/float64(count)*10) / 10,
		Count:   count,
	}
}
