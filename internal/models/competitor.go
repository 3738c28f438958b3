package models

import (
	"time"

	"github.com/google/uuid"
)

// Glicko-2 defaults and bounds for a competitor's rating triple
const (
	DefaultRating     = 1500.0
	DefaultRD         = 350.0
	DefaultVolatility = 0.06
	MinRD             = 30.0
	MaxRD             = 350.0
)

// Eligibility thresholds for appearing in the betting odds
const (
	MinLifetimeRaces = 5
	MinRacesLast30   = 2
)

// Competitor represents a racer tracked by the rating engine
type Competitor struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	Name              string    `db:"name" json:"name" validate:"required"`
	Rating            float64   `db:"rating" json:"rating"`
	RD                float64   `db:"rd" json:"rd" validate:"gte=30,lte=350"`
	Volatility        float64   `db:"volatility" json:"volatility" validate:"gt=0"`
	RaceCountLifetime int       `db:"race_count_lifetime" json:"race_count_lifetime" validate:"gte=0"`
	RaceCountLast30   int       `db:"race_count_last30" json:"race_count_last30" validate:"gte=0"`
	Version           int64     `db:"version" json:"version"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// NewCompetitor creates a competitor at the standard rating defaults
func NewCompetitor(name string) *Competitor {
	return &Competitor{
		ID:         uuid.New(),
		Name:       name,
		Rating:     DefaultRating,
		RD:         DefaultRD,
		Volatility: DefaultVolatility,
	}
}

// IsEligible reports whether the competitor can appear in betting odds
func (c *Competitor) IsEligible() bool {
	return c.RaceCountLifetime >= MinLifetimeRaces && c.RaceCountLast30 >= MinRacesLast30
}

// ConservativeScore returns the high-confidence lower bound used for rankings
func (c *Competitor) ConservativeScore() float64 {
	return c.Rating - 2*c.RD
}
