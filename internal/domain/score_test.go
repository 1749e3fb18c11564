package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	yearsAgo := func(years float64) *time.Time {
		at := now.Add(-time.Duration(years * float64(scoringYear)))
		return &at
	}

	tests := []struct {
		name         string
		volumes      []int64
		count        int
		registeredAt *time.Time
		expected     int
	}{
		{"Nothing scores zero", nil, 0, nil, 0},
		{"Volume capped at 50 plus one keyword", []int64{50000}, 1, nil, 55},
		{"Volume below cap", []int64{15000, 8000}, 2, nil, 33},
		{"Volume rounds to nearest", []int64{1499}, 0, nil, 1},
		{"Volume rounds half up", []int64{1500}, 0, nil, 2},
		{"Count capped at 20", nil, 10, nil, 20},
		{"Age contributes 5 per year", nil, 0, yearsAgo(2), 10},
		{"Age capped at 30", nil, 0, yearsAgo(20), 30},
		{"Future registration contributes nothing", nil, 0, yearsAgo(-3), 0},
		{"Negative volume contributes nothing", []int64{-9000}, 1, nil, 5},
		{"Everything capped is 100", []int64{100000, 100000}, 8, yearsAgo(10), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.volumes, tt.count, tt.registeredAt, now))
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	now := time.Now()
	past := now.Add(-100 * scoringYear)
	future := now.Add(100 * scoringYear)

	for _, volumes := range [][]int64{nil, {0}, {1 << 40}, {-1 << 40}} {
		for _, count := range []int{-5, 0, 3, 1000} {
			for _, reg := range []*time.Time{nil, &past, &future} {
				s := Score(volumes, count, reg, now)
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, MaxScore)
			}
		}
	}
}

func TestDomain_Score(t *testing.T) {
	d := &Domain{
		Name: "techstartup.com",
		Keywords: []DomainKeyword{
			{Position: 0, Keyword: &Keyword{Word: "tech", SearchVolume: 15000}},
			{Position: 1, Keyword: &Keyword{Word: "startup", SearchVolume: 8000}},
		},
	}

	assert.Equal(t, []int64{15000, 8000}, d.KeywordVolumes())
	assert.Equal(t, 33, d.Score(time.Now()))
}
