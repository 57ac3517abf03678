package domain

import "fmt"

// Metric identifies one player statistic an achievement requirement
// can be checked against. The set is closed: adding a metric means
// adding a case to MetricValue, and ParseMetric rejects anything else.
type Metric string

const (
	MetricKills              Metric = "kills"
	MetricDeaths             Metric = "deaths"
	MetricHeadshots          Metric = "headshots"
	MetricLongestKill        Metric = "longest_kill"
	MetricWins               Metric = "wins"
	MetricLosses             Metric = "losses"
	MetricGamesPlayed        Metric = "games_played"
	MetricPlaytime           Metric = "playtime"
	MetricObjectivesCaptured Metric = "objectives_captured"
	MetricObjectivesDefended Metric = "objectives_defended"
	MetricRevives            Metric = "revives"
	MetricHeals              Metric = "heals"
	MetricRepairs            Metric = "repairs"
	MetricVehicleKills       Metric = "vehicle_kills"
	MetricVehiclesDestroyed  Metric = "vehicles_destroyed"
	MetricRoadkills          Metric = "roadkills"
	MetricScore              Metric = "score"
	MetricBestKillstreak     Metric = "best_killstreak"
	MetricKDRatio            Metric = "kd_ratio"
	MetricAccuracy           Metric = "accuracy"
	MetricWinRate            Metric = "win_rate"
)

// KillMetrics are the requirement types that can only move when a kill
// event lands. Checking just these after each kill avoids scanning the
// whole achievement catalog on the hot path.
var KillMetrics = []Metric{MetricKills, MetricHeadshots, MetricLongestKill, MetricRoadkills}

func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	switch m {
	case MetricKills, MetricDeaths, MetricHeadshots, MetricLongestKill,
		MetricWins, MetricLosses, MetricGamesPlayed, MetricPlaytime,
		MetricObjectivesCaptured, MetricObjectivesDefended,
		MetricRevives, MetricHeals, MetricRepairs,
		MetricVehicleKills, MetricVehiclesDestroyed, MetricRoadkills,
		MetricScore, MetricBestKillstreak,
		MetricKDRatio, MetricAccuracy, MetricWinRate:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// MetricValue reads the player's current value for a metric.
func (p *Player) MetricValue(m Metric) float64 {
	switch m {
	case MetricKills:
		return float64(p.TotalKills)
	case MetricDeaths:
		return float64(p.TotalDeaths)
	case MetricHeadshots:
		return float64(p.TotalHeadshots)
	case MetricLongestKill:
		return p.LongestKill
	case MetricWins:
		return float64(p.Wins)
	case MetricLosses:
		return float64(p.Losses)
	case MetricGamesPlayed:
		return float64(p.GamesPlayed)
	case MetricPlaytime:
		return float64(p.TotalPlaytime)
	case MetricObjectivesCaptured:
		return float64(p.ObjectivesCaptured)
	case MetricObjectivesDefended:
		return float64(p.ObjectivesDefended)
	case MetricRevives:
		return float64(p.Revives)
	case MetricHeals:
		return float64(p.Heals)
	case MetricRepairs:
		return float64(p.Repairs)
	case MetricVehicleKills:
		return float64(p.VehicleKills)
	case MetricVehiclesDestroyed:
		return float64(p.VehiclesDestroyed)
	case MetricRoadkills:
		return float64(p.Roadkills)
	case MetricScore:
		return float64(p.TotalScore)
	case MetricBestKillstreak:
		return float64(p.BestKillstreak)
	case MetricKDRatio:
		return p.KDRatio()
	case MetricAccuracy:
		return p.Accuracy()
	case MetricWinRate:
		return p.WinRate()
	}
	return 0
}
