// Package station implements the station entity and the decisions made on
// it: consensus voting on reported prices, trust scoring and best value
// selection.
package station

import (
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/shopspring/decimal"
)

const (
	DefaultType        = "posto"
	DefaultTrustScore  = 5.0
	MaxTrustScore      = 10.0
	MinTrustScore      = 0.0
	VoteTrustIncrement = 0.5
	ConsensusThreshold = 3
)

var ErrInvalidPrice = errors.New("invalid price")

// PendingChange is a crowd-submitted price waiting for a vote quorum.
type PendingChange struct {
	FuelType    FuelType        `json:"fuel_type"`
	Price       decimal.Decimal `json:"price"`
	Votes       int             `json:"votes"`
	Users       []string        `json:"users"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func NewPendingChange(fuel FuelType, price decimal.Decimal) *PendingChange {
	return &PendingChange{
		FuelType:    fuel,
		Price:       price,
		Users:       []string{},
		SubmittedAt: time.Now().UTC(),
	}
}

// HasVoted reports whether userID already confirmed the change.
func (c *PendingChange) HasVoted(userID string) bool {
	return slices.Contains(c.Users, userID)
}

// PriceRecord is one entry of a station's price history.
type PriceRecord struct {
	FuelType   FuelType        `json:"fuel_type"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Station is a gas station with its crowd-sourced price state. All
// mutations go through methods that hold the station lock, so a Station
// may be shared between goroutines handling concurrent votes.
type Station struct {
	mu sync.Mutex

	ID             string                       `json:"id"`
	Name           string                       `json:"name"`
	Coords         *geo.Point                   `json:"coords,omitempty"`
	Type           string                       `json:"type"`
	Prices         map[FuelType]decimal.Decimal `json:"prices"`
	IsVerified     bool                         `json:"is_verified"`
	TrustScore     float64                      `json:"trust_score"`
	PendingChanges []*PendingChange             `json:"pending_changes"`
	IsBestValue    bool                         `json:"is_best_value"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`

	// History is filled in by the storage layer and never persisted with
	// the station document.
	History []PriceRecord `json:"-"`
}

// New returns a crowd-reported station: unverified, default trust and no
// prices.
func New(id, name string, coords *geo.Point) *Station {
	now := time.Now().UTC()
	return &Station{
		ID:             id,
		Name:           name,
		Coords:         coords,
		Type:           DefaultType,
		Prices:         map[FuelType]decimal.Decimal{},
		TrustScore:     DefaultTrustScore,
		PendingChanges: []*PendingChange{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewOperatorStation returns a station created by an operator, which starts
// verified and fully trusted.
func NewOperatorStation(name string, coords *geo.Point) *Station {
	s := New("posto_"+uuid.NewString(), name, coords)
	s.IsVerified = true
	s.TrustScore = MaxTrustScore
	return s
}

// UpdatePrice stores price for fuel rounded to two fraction digits.
func (s *Station) UpdatePrice(fuel FuelType, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPrice(fuel, price)
}

func (s *Station) setPrice(fuel FuelType, price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if s.Prices == nil {
		s.Prices = map[FuelType]decimal.Decimal{}
	}
	s.Prices[fuel] = price.Round(2)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// AddPendingChange puts change at the front of the pending list. Identical
// proposals are not merged.
func (s *Station) AddPendingChange(change *PendingChange) error {
	if err := validatePrice(change.Price); err != nil {
		return err
	}
	if change.Users == nil {
		change.Users = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingChanges = slices.Insert(s.PendingChanges, 0, change)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ConfirmPendingChange records a vote by userID on the pending change at
// index. Every accepted vote raises the trust score; the vote that reaches
// ConsensusThreshold applies the price, drops the change and marks the
// station verified, and only then is true returned. An unknown index or a
// repeated vote is a no-op.
func (s *Station) ConfirmPendingChange(index int, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.PendingChanges) {
		return false, nil
	}

	change := s.PendingChanges[index]
	if change.HasVoted(userID) {
		return false, nil
	}
	if err := validatePrice(change.Price); err != nil {
		return false, err
	}

	change.Votes++
	change.Users = append(change.Users, userID)
	s.TrustScore = clampTrust(s.TrustScore + VoteTrustIncrement)
	s.UpdatedAt = time.Now().UTC()

	if change.Votes < ConsensusThreshold {
		return false, nil
	}

	if err := s.setPrice(change.FuelType, change.Price); err != nil {
		return false, err
	}
	s.PendingChanges = slices.Delete(s.PendingChanges, index, index+1)
	s.IsVerified = true
	return true, nil
}

// Price returns the current price for fuel, if set.
func (s *Station) Price(fuel FuelType) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Prices[fuel]
	return p, ok
}

// SetTrustScore replaces the trust score, clamped to [0, 10].
func (s *Station) SetTrustScore(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TrustScore = clampTrust(score)
}

func (s *Station) Trust() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TrustScore
}

func (s *Station) BestValue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.IsBestValue
}

// SetBestValue carries a flag computed by CalculateBestValue over to
// another copy of the station.
func (s *Station) SetBestValue(v bool) {
	s.mu.Lock()
	s.IsBestValue = v
	s.mu.Unlock()
}

// PriceSnapshot returns a copy of the current prices.
func (s *Station) PriceSnapshot() map[FuelType]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[FuelType]decimal.Decimal, len(s.Prices))
	for k, v := range s.Prices {
		out[k] = v
	}
	return out
}

func (s *Station) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type plain Station
	return json.Marshal((*plain)(s))
}

func clampTrust(score float64) float64 {
	return min(MaxTrustScore, max(MinTrustScore, score))
}
