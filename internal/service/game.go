package service

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/adapter/pubsub"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

// WinningScore ends a round: the first player to reach it gets a winner frame.
const WinningScore = 100

// Gamer tracks click-race scores shared by many concurrent handlers.
type Gamer interface {
	Click(ctx context.Context, player string) (int, error)
	Scores() map[string]int
}

// Interface guard
var _ Gamer = (*GameService)(nil)

type GameService struct {
	// mu guards scores only for the read-increment-write; it is never held
	// across a broker call.
	mu     sync.Mutex
	scores map[string]int

	hub        relay.Broadcaster
	dispatcher pubsub.BroadcastDispatcher
	logger     *slog.Logger
}

func NewGameService(hub relay.Broadcaster, dispatcher pubsub.BroadcastDispatcher, logger *slog.Logger) *GameService {
	return &GameService{
		scores:     make(map[string]int),
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Click increments the player's score and fans the update out.
func (s *GameService) Click(ctx context.Context, player string) (int, error) {
	s.mu.Lock()
	s.scores[player]++
	score := s.scores[player]
	s.mu.Unlock()

	update := map[string]any{
		"type":   "score_update",
		"player": player,
		"score":  score,
	}

	if err := s.dispatcher.Broadcast(ctx, rabbit.GameScoresExchange, model.NewFrame("game", update)); err != nil {
		s.logger.Error("SCORE_BROADCAST_FAILED", "player", player, "err", err)
	}
	s.hub.Publish(model.NewFrame("game", update))

	if score >= WinningScore {
		winner := model.NewFrame("game", map[string]any{
			"type":   "winner",
			"player": player,
			"score":  score,
		})
		if err := s.dispatcher.Broadcast(ctx, rabbit.GameScoresExchange, winner); err != nil {
			s.logger.Error("WINNER_BROADCAST_FAILED", "player", player, "err", err)
		}
		s.hub.Publish(winner)
	}

	return score, nil
}

// Scores returns a snapshot of the score table.
func (s *GameService) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.scores)
}
