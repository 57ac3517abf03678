package domain

import "fmt"

// Category is a leaderboard dimension. Direct categories map straight
// onto a stored player column; derived ones are computed per player at
// recompute time.
type Category string

const (
	CategoryKills      Category = "kills"
	CategoryKDRatio    Category = "kd_ratio"
	CategoryScore      Category = "score"
	CategoryWins       Category = "wins"
	CategoryHeadshots  Category = "headshots"
	CategoryAccuracy   Category = "accuracy"
	CategoryPlaytime   Category = "playtime"
	CategorySPM        Category = "spm"
	CategoryObjectives Category = "objectives"
	CategoryRevives    Category = "revives"
)

// CategorySpec describes how a category is ranked. Exactly one of
// Column and Derive is set.
type CategorySpec struct {
	// Column is the players-table column holding the score for direct
	// categories.
	Column string

	// Derive computes the score for derived categories. A non-positive
	// result drops the player from the board.
	Derive func(*Player) float64
}

// Categories is the full enum-keyed ranking table. Keeping it here and
// ranging over it keeps the ranker exhaustive: a category missing from
// this map simply does not exist.
var Categories = map[Category]CategorySpec{
	CategoryKills:      {Column: "total_kills"},
	CategoryScore:      {Column: "total_score"},
	CategoryWins:       {Column: "wins"},
	CategoryHeadshots:  {Column: "total_headshots"},
	CategoryPlaytime:   {Column: "total_playtime"},
	CategoryObjectives: {Column: "objectives_captured"},
	CategoryRevives:    {Column: "revives"},
	CategoryKDRatio:    {Derive: (*Player).KDRatio},
	CategoryAccuracy:   {Derive: (*Player).Accuracy},
	CategorySPM:        {Derive: (*Player).ScorePerMinute},
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := Categories[c]; !ok {
		return "", fmt.Errorf("unknown leaderboard category %q", s)
	}
	return c, nil
}

func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	switch p {
	case PeriodAllTime, PeriodMonthly, PeriodWeekly, PeriodDaily:
		return p, nil
	}
	return "", fmt.Errorf("unknown leaderboard period %q", s)
}
