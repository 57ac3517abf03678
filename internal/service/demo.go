package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// DemoService generates synthetic players and sessions for staging.
// It drives the same session and recorder services as real ingestion,
// so generated data flows through the full fan-out path. Gated behind
// the demo-mode flag.
type DemoService struct {
	cfg         *config.Config
	players     *repository.PlayerRepository
	catalog     *repository.CatalogRepository
	itemStats   *repository.ItemStatsRepository
	sessions    *SessionService
	recorder    *RecorderService
	leaderboard *LeaderboardService
	logger      zerolog.Logger
}

func NewDemoService(
	cfg *config.Config,
	players *repository.PlayerRepository,
	catalog *repository.CatalogRepository,
	itemStats *repository.ItemStatsRepository,
	sessions *SessionService,
	recorder *RecorderService,
	leaderboard *LeaderboardService,
	logger zerolog.Logger,
) *DemoService {
	return &DemoService{
		cfg:         cfg,
		players:     players,
		catalog:     catalog,
		itemStats:   itemStats,
		sessions:    sessions,
		recorder:    recorder,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

var demoCallsigns = []string{
	"Viper", "Reaper", "Ghost", "Havoc", "Striker", "Raven", "Bulldog",
	"Phantom", "Cobra", "Maverick", "Saber", "Titan", "Wolf", "Falcon",
	"Hammer", "Razor", "Jackal", "Nomad", "Spectre", "Vandal",
}

func demoName() string {
	return fmt.Sprintf("%s_%d", demoCallsigns[rand.IntN(len(demoCallsigns))], rand.IntN(1000))
}

// GeneratePlayers creates up to count synthetic players with a random
// playtime and rank baseline. Counts above the per-call cap are
// clamped, and the total demo population stays bounded.
func (s *DemoService) GeneratePlayers(ctx context.Context, count int) ([]domain.Player, error) {
	if !s.cfg.DemoMode {
		return nil, ErrDemoDisabled
	}

	if count <= 0 {
		count = constants.DemoDefaultPlayers
	}
	if count > constants.DemoMaxPlayersPerCall {
		count = constants.DemoMaxPlayersPerCall
	}
	existing, err := s.players.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	if existing+count > constants.DemoMaxPlayers {
		count = constants.DemoMaxPlayers - existing
	}
	if count <= 0 {
		return []domain.Player{}, nil
	}

	out := make([]domain.Player, 0, count)
	for i := 0; i < count; i++ {
		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate platform id: %w", err)
		}
		platform := "steam"
		if rand.IntN(4) == 0 {
			platform = "xbox"
		}
		player, err := s.players.GetOrCreate(ctx, "demo_"+id, demoName(), platform)
		if err != nil {
			return nil, fmt.Errorf("failed to create demo player: %w", err)
		}

		playtime := rand.IntN(200*3600) + 3600
		points := rand.IntN(20000)
		if err := s.players.SetDemoBaseline(ctx, player.ID, playtime, points, domain.RankForPoints(points)); err != nil {
			return nil, fmt.Errorf("failed to set demo baseline: %w", err)
		}
		out = append(out, *player)
	}

	s.logger.Info().Int("count", len(out)).Msg("demo players generated")
	return out, nil
}

// GenerateSessions simulates full matches through the normal
// ingestion path: start, connects, kills, disconnects, end, then a
// leaderboard recompute so the new data is immediately ranked.
func (s *DemoService) GenerateSessions(ctx context.Context, sessionCount, playersPerSession int) ([]domain.Session, error) {
	if !s.cfg.DemoMode {
		return nil, ErrDemoDisabled
	}

	if sessionCount <= 0 {
		sessionCount = constants.DemoDefaultSessions
	}
	if sessionCount > constants.DemoMaxSessions {
		sessionCount = constants.DemoMaxSessions
	}
	if playersPerSession <= 0 {
		playersPerSession = constants.DemoDefaultPlayers
	}
	if playersPerSession > constants.DemoMaxPlayersPerCall {
		playersPerSession = constants.DemoMaxPlayersPerCall
	}

	players, err := s.GeneratePlayers(ctx, playersPerSession)
	if err != nil {
		return nil, err
	}
	if len(players) < 2 {
		roster, err := s.players.ListWithGames(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load demo roster: %w", err)
		}
		players = roster
	}
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: need at least two players to simulate a session", ErrValidation)
	}
	if len(players) > playersPerSession {
		players = players[:playersPerSession]
	}

	weapons, err := s.catalog.ListActiveWeapons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list weapons: %w", err)
	}
	armedVehicles, err := s.catalog.ListActiveVehicles(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list armed vehicles: %w", err)
	}
	allVehicles, err := s.catalog.ListActiveVehicles(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	maps, err := s.catalog.ListActiveMaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}

	out := make([]domain.Session, 0, sessionCount)
	for i := 0; i < sessionCount; i++ {
		session, err := s.simulateSession(ctx, players, weapons, armedVehicles, maps)
		if err != nil {
			return nil, err
		}
		if err := s.synthesizeUsage(ctx, players, weapons, allVehicles); err != nil {
			return nil, err
		}
		out = append(out, *session)
	}

	s.leaderboard.RecalculateAll(ctx)

	s.logger.Info().Int("sessions", len(out)).Int("players", len(players)).Msg("demo sessions generated")
	return out, nil
}

func (s *DemoService) simulateSession(ctx context.Context, players []domain.Player, weapons []domain.Weapon, armedVehicles []domain.Vehicle, maps []domain.GameMap) (*domain.Session, error) {
	in := StartSessionInput{
		ServerID:   "demo-server",
		ServerName: "Demo Server",
		GameMode:   "Conflict",
	}
	if len(maps) > 0 {
		in.MapInternalID = maps[rand.IntN(len(maps))].InternalID
	}

	session, err := s.sessions.Start(ctx, in)
	if err != nil {
		return nil, err
	}

	factions := make(map[int64]string, len(players))
	for i := range players {
		faction := "us"
		if i%2 == 1 {
			faction = "ussr"
		}
		factions[players[i].ID] = faction
		if _, err := s.sessions.Connect(ctx, session.ID, players[i].PlatformID, players[i].Name, players[i].Platform, faction); err != nil {
			return nil, err
		}
	}

	kills := len(players) * (3 + rand.IntN(8))
	for i := 0; i < kills; i++ {
		killer := players[rand.IntN(len(players))]
		victim := players[rand.IntN(len(players))]
		input := KillInput{
			KillerPlatformID: killer.PlatformID,
			KillerName:       killer.Name,
			VictimPlatformID: victim.PlatformID,
			VictimName:       victim.Name,
			Platform:         killer.Platform,
			Distance:         float64(rand.IntN(700)) + rand.Float64(),
			IsHeadshot:       rand.IntN(5) == 0,
			IsTeamkill:       killer.ID != victim.ID && factions[killer.ID] == factions[victim.ID] && rand.IntN(25) == 0,
			KillerFaction:    factions[killer.ID],
			VictimFaction:    factions[victim.ID],
		}
		if len(weapons) > 0 {
			input.WeaponID = weapons[rand.IntN(len(weapons))].InternalID
		}
		// Roughly one kill in eight comes from a mounted gun.
		if len(armedVehicles) > 0 && rand.IntN(8) == 0 {
			input.VehicleID = armedVehicles[rand.IntN(len(armedVehicles))].InternalID
			input.IsRoadkill = rand.IntN(4) == 0
		}
		if _, err := s.recorder.RecordKill(ctx, session.ID, input); err != nil {
			return nil, err
		}
	}

	for i := range players {
		if err := s.sessions.Disconnect(ctx, session.ID, players[i].PlatformID, repository.DisconnectStats{}); err != nil {
			return nil, err
		}
	}

	usScore := rand.IntN(1000)
	ussrScore := rand.IntN(1000)
	winner := "us"
	switch {
	case ussrScore > usScore:
		winner = "ussr"
	case ussrScore == usScore:
		winner = "draw"
	}
	return s.sessions.End(ctx, session.ID, usScore, ussrScore, winner)
}

// synthesizeUsage backfills the telemetry real ingestion does not
// carry yet: weapon shots fired and hit, so accuracy-derived stats
// have data, and vehicle seat time with distance traveled.
func (s *DemoService) synthesizeUsage(ctx context.Context, players []domain.Player, weapons []domain.Weapon, vehicles []domain.Vehicle) error {
	for i := range players {
		if len(weapons) > 0 {
			for n := 1 + rand.IntN(3); n > 0; n-- {
				weapon := weapons[rand.IntN(len(weapons))]
				fired := 20 + rand.IntN(300)
				hit := fired * (15 + rand.IntN(30)) / 100
				timeUsed := 60 + rand.IntN(1800)
				if err := s.itemStats.AddWeaponUsage(ctx, players[i].ID, weapon.ID, fired, hit, timeUsed); err != nil {
					return fmt.Errorf("failed to add weapon usage: %w", err)
				}
			}
		}
		if len(vehicles) > 0 && i%2 == 0 {
			vehicle := vehicles[rand.IntN(len(vehicles))]
			timeUsed := 120 + rand.IntN(1200)
			distance := float64(rand.IntN(15000)) + rand.Float64()
			if err := s.itemStats.AddVehicleUsage(ctx, players[i].ID, vehicle.ID, timeUsed, distance); err != nil {
				return fmt.Errorf("failed to add vehicle usage: %w", err)
			}
		}
	}
	return nil
}
