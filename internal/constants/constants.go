package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Scoring for a single kill. Bonuses stack.
const (
	KillBaseScore      = 100
	HeadshotBonus      = 25
	LongRangeBonus     = 25 // distance > LongRangeMeters
	ExtremeRangeBonus  = 50 // distance > ExtremeRangeMeters
	LongRangeMeters    = 200
	ExtremeRangeMeters = 500
)

const (
	LeaderboardCap       = 1000
	LeaderboardPageLimit = 100
	BattleReportTimeline = 100
	PlayerSessionsLimit  = 10
	RecentUnlockedLimit  = 10
)

// Demo generator input caps. Inputs above these are clamped, not
// rejected.
const (
	DemoMaxPlayers        = 100
	DemoMaxSessions       = 10
	DemoMaxPlayersPerCall = 50
	DemoDefaultPlayers    = 20
	DemoDefaultSessions   = 1
)
