package domain

import (
	"math"
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionEnded     SessionStatus = "ended"
	SessionCancelled SessionStatus = "cancelled"
)

type Player struct {
	ID                 int64
	PlatformID         string
	Platform           string // "steam" or "xbox"
	Name               string
	TotalPlaytime      int // seconds
	TotalKills         int
	TotalDeaths        int
	TotalAssists       int
	TotalHeadshots     int
	ShotsFired         int
	ShotsHit           int
	LongestKill        float64 // meters
	BestKillstreak     int
	TotalScore         int
	Wins               int
	Losses             int
	GamesPlayed        int
	ObjectivesCaptured int
	ObjectivesDefended int
	Revives            int
	Heals              int
	Repairs            int
	VehicleKills       int
	VehiclesDestroyed  int
	Roadkills          int
	RankPoints         int
	RankName           string
	FirstSeen          time.Time
	LastSeen           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Session struct {
	ID            int64
	ServerID      string
	ServerName    string
	MapID         *int64
	ScenarioID    string
	GameMode      string
	StartedAt     time.Time
	EndedAt       *time.Time
	WinnerFaction string // "us", "ussr", "draw" or empty while active
	USScore       int
	USSRScore     int
	MaxPlayers    int
	TotalPlayers  int
	TotalKills    int
	Status        SessionStatus
}

// Participation is one player's presence in one session.
type Participation struct {
	ID                 int64
	SessionID          int64
	PlayerID           int64
	Faction            string
	JoinedAt           time.Time
	LeftAt             *time.Time
	Kills              int
	Deaths             int
	Assists            int
	Score              int
	Headshots          int
	ObjectivesCaptured int
	ObjectivesDefended int
	Revives            int
	Heals              int
	VehicleKills       int
	LongestKill        float64
	BestKillstreak     int
	IsWinner           *bool // nil until the session ends
	IsMVP              bool
}

// KillEvent is the immutable source fact; every derived counter is
// computed incrementally from these, never rebuilt in bulk.
type KillEvent struct {
	ID             string // nanoid
	SessionID      int64
	KillerID       *int64
	VictimID       int64
	WeaponID       *int64
	VehicleID      *int64
	Distance       float64
	IsHeadshot     bool
	IsTeamkill     bool
	IsSuicide      bool
	IsRoadkill     bool
	KillerPosition string // JSON [x,y,z], opaque to the engine
	VictimPosition string
	KillerFaction  string
	VictimFaction  string
	Timestamp      time.Time
}

type WeaponStat struct {
	PlayerID    int64
	WeaponID    int64
	Kills       int
	Deaths      int
	Headshots   int
	ShotsFired  int
	ShotsHit    int
	LongestKill float64
	TimeUsed    int // seconds
	UpdatedAt   time.Time
}

type VehicleStat struct {
	PlayerID         int64
	VehicleID        int64
	Kills            int
	Deaths           int
	Destroyed        int
	Roadkills        int
	TimeUsed         int
	DistanceTraveled float64
	UpdatedAt        time.Time
}

type Weapon struct {
	ID           int64
	InternalID   string
	Name         string
	Category     string
	Faction      string
	BaseDamage   int
	FireRate     int
	MagazineSize int
	IsActive     bool
}

type Vehicle struct {
	ID         int64
	InternalID string
	Name       string
	Category   string
	Faction    string
	Seats      int
	HasWeapons bool
	IsActive   bool
}

type GameMap struct {
	ID         int64
	InternalID string
	Name       string
	GameMode   string
	SizeKm     int
	IsActive   bool
}

type Achievement struct {
	ID               int64
	Code             string
	Name             string
	Description      string
	Category         string
	Rarity           string
	RequirementType  Metric
	RequirementValue float64
	Points           int
	IsHidden         bool
	IsActive         bool
	SortOrder        int
}

type AchievementProgress struct {
	PlayerID      int64
	AchievementID int64
	Progress      float64
	IsUnlocked    bool
	UnlockedAt    *time.Time
	UpdatedAt     time.Time
}

type Period string

const (
	PeriodAllTime Period = "all_time"
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
	PeriodDaily   Period = "daily"
)

type LeaderboardEntry struct {
	PlayerID     int64
	Category     Category
	Period       Period
	Score        float64
	Rank         int
	PreviousRank *int
	UpdatedAt    time.Time
}

// RankChange reports the movement indicator for a leaderboard entry
// relative to the previous recompute cycle.
func (e *LeaderboardEntry) RankChange() string {
	if e.PreviousRank == nil {
		return "new"
	}
	switch {
	case *e.PreviousRank > e.Rank:
		return "up"
	case *e.PreviousRank < e.Rank:
		return "down"
	default:
		return "same"
	}
}

func (p *Player) KDRatio() float64 {
	if p.TotalDeaths == 0 {
		return float64(p.TotalKills)
	}
	return round2(float64(p.TotalKills) / float64(p.TotalDeaths))
}

// Accuracy is shots hit over shots fired as a percentage, 1 decimal.
func (p *Player) Accuracy() float64 {
	if p.ShotsFired == 0 {
		return 0
	}
	return round1(float64(p.ShotsHit) / float64(p.ShotsFired) * 100)
}

func (p *Player) HeadshotPercent() float64 {
	if p.TotalKills == 0 {
		return 0
	}
	return round1(float64(p.TotalHeadshots) / float64(p.TotalKills) * 100)
}

func (p *Player) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return round1(float64(p.Wins) / float64(p.GamesPlayed) * 100)
}

func (p *Player) ScorePerMinute() float64 {
	if p.TotalPlaytime == 0 {
		return 0
	}
	return math.Round(float64(p.TotalScore) / (float64(p.TotalPlaytime) / 60))
}

func (pt *Participation) KDRatio() float64 {
	if pt.Deaths == 0 {
		return float64(pt.Kills)
	}
	return round2(float64(pt.Kills) / float64(pt.Deaths))
}

// Duration is the time the player spent in the session; open-ended
// participations are measured up to now.
func (pt *Participation) Duration() int {
	end := time.Now()
	if pt.LeftAt != nil {
		end = *pt.LeftAt
	}
	return int(end.Sub(pt.JoinedAt).Seconds())
}

func (pt *Participation) ScorePerMinute() float64 {
	minutes := float64(pt.Duration()) / 60
	if minutes <= 0 {
		return 0
	}
	return math.Round(float64(pt.Score) / minutes)
}

func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

func (s *Session) Duration() int {
	end := time.Now()
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return int(end.Sub(s.StartedAt).Seconds())
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
