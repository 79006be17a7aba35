// Package games is the session-orchestration layer between the websocket
// transport and the rule engine in internal/game: it owns one
// *game.Game per in-progress match, translates wire-level moves into core
// commands, and persists a snapshot + event after every command so
// internal/store and internal/websocket never touch internal/game
// directly.
package games

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vntrieu/avalon/internal/game"
	"github.com/vntrieu/avalon/internal/store"
)

// GameStore is the subset of *store.GameStore the engine needs: snapshot
// persistence, status updates, and the room roster a new game bootstraps
// from. Declared here (rather than imported as a concrete type) so tests
// can substitute an in-memory fake.
type GameStore interface {
	CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (int32, error)
	UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error
	GetGamePlayerIDsInOrder(ctx context.Context, gameID string) ([]string, error)
}

// GameEventStore is the subset of *store.GameEventStore the engine needs to
// append an audit trail entry per command.
type GameEventStore interface {
	CreateGameEvent(ctx context.Context, req store.CreateGameEventRequest) (*store.GameEvent, error)
}

// BroadcastEvent is one event the transport layer should fan out to the
// room after a move is applied.
type BroadcastEvent struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// GameSnapshot is the wire-friendly view of a session: the full §4.10 tree
// plus the two fields transports most often branch on.
type GameSnapshot struct {
	Map     map[string]interface{} `json:"state"`
	Phase   string                 `json:"phase"`
	Version int                    `json:"version"`
}

// ApplyMoveResult is returned by ApplyMove: the post-move snapshot, events
// to broadcast, and an error exactly when State is nil.
type ApplyMoveResult struct {
	State  *GameSnapshot
	Events []BroadcastEvent
	Error  error
}

// session pairs a live Game with the snapshot version last persisted for
// it, so CreateOrUpdateSnapshot calls stay monotonic even across process
// restarts within the same room.
type session struct {
	game    *game.Game
	version int
}

// Engine owns every in-progress game's session. Sessions live purely in
// memory: the spec this engine implements treats persistence as an
// external collaborator (core §1), and internal/game's snapshot is a
// write-only tree, not something built to be deserialized back into a
// live *game.Game. CreateOrUpdateSnapshot is therefore an append-only
// record for sync_state/audit, not the engine's source of truth; a
// process restart loses in-flight sessions (see DESIGN.md).
type Engine struct {
	mu       sync.Mutex
	store    GameStore
	events   GameEventStore
	config   EngineConfig
	sessions map[string]*session
}

// NewEngine builds an Engine backed by store and events, using config for
// role composition and Frozen-phase pacing on every game it starts.
func NewEngine(gameStore GameStore, eventStore GameEventStore, config EngineConfig) *Engine {
	return &Engine{
		store:    gameStore,
		events:   eventStore,
		config:   config,
		sessions: make(map[string]*session),
	}
}

// GetState returns the live snapshot for gameID, or nil if no session is
// running (the game has not been started, or the process restarted since).
func (e *Engine) GetState(ctx context.Context, gameID string) (*GameSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[gameID]
	if !ok {
		return nil, nil
	}
	return e.snapshotLocked(s), nil
}

func (e *Engine) snapshotLocked(s *session) *GameSnapshot {
	return &GameSnapshot{
		Map:     s.game.Serialize(),
		Phase:   string(s.game.GetState()),
		Version: s.version,
	}
}

// ApplyMove validates and applies one command. moveType is "vote" or
// "action"; for "vote" the payload's meaning (team vs quest ballot)
// depends on the session's current phase. For "action", payload["action"]
// names one of: start_game, reveal_roles, toggle_is_proposed, submit_team,
// assassinate.
func (e *Engine) ApplyMove(ctx context.Context, gameID, roomPlayerID, moveType string, payload map[string]interface{}) ApplyMoveResult {
	if payload == nil {
		payload = map[string]interface{}{}
	}

	e.mu.Lock()
	s, ok := e.sessions[gameID]
	e.mu.Unlock()

	if !ok {
		if moveType != "action" {
			return ApplyMoveResult{Error: fmt.Errorf("game not started; use action start_game")}
		}
		if action, _ := payload["action"].(string); action != actionStartGame {
			return ApplyMoveResult{Error: fmt.Errorf("only start_game is allowed before the game has a session")}
		}
		return e.bootstrapAndStart(ctx, gameID, roomPlayerID)
	}

	before := s.game.GetState()
	var events []BroadcastEvent
	var err error

	switch moveType {
	case "vote":
		events, err = e.applyVote(s.game, roomPlayerID, payload)
	case "action":
		events, err = e.applyAction(s.game, roomPlayerID, payload)
	default:
		err = fmt.Errorf("unknown move type %q", moveType)
	}
	if err != nil {
		return ApplyMoveResult{Error: err}
	}

	after := s.game.GetState()
	if after != before {
		events = append(events, BroadcastEvent{
			Event:   eventPhaseChanged,
			Payload: map[string]interface{}{"from": string(before), "to": string(after)},
		})
	}

	return e.persist(ctx, gameID, s, roomPlayerID, moveType, payload, events)
}

// persist appends the audit event and writes the new snapshot, updating
// the game's row status once the session reaches Finish.
func (e *Engine) persist(ctx context.Context, gameID string, s *session, roomPlayerID, moveType string, payload map[string]interface{}, events []BroadcastEvent) ApplyMoveResult {
	eventPayload := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		eventPayload[k] = v
	}
	eventPayload["move_type"] = moveType
	if _, err := e.events.CreateGameEvent(ctx, store.CreateGameEventRequest{
		GameID:       gameID,
		RoomPlayerID: &roomPlayerID,
		Type:         moveType,
		Payload:      eventPayload,
	}); err != nil {
		return ApplyMoveResult{Error: fmt.Errorf("persist event: %w", err)}
	}

	version, err := e.store.CreateOrUpdateSnapshot(ctx, gameID, s.game.Serialize())
	if err != nil {
		return ApplyMoveResult{Error: fmt.Errorf("persist snapshot: %w", err)}
	}

	e.mu.Lock()
	s.version = int(version)
	snapshot := e.snapshotLocked(s)
	finished := s.game.GetState() == game.StateFinish
	e.mu.Unlock()

	if finished {
		now := time.Now()
		if err := e.store.UpdateGameStatus(ctx, gameID, "finished", &now); err != nil {
			return ApplyMoveResult{Error: fmt.Errorf("update game status: %w", err)}
		}
	}

	return ApplyMoveResult{State: snapshot, Events: events}
}

// bootstrapAndStart creates the session for gameID: it loads the room's
// player roster, enrolls every player, and starts the game. This is the
// only point a session is created; internal/game.Game.AddPlayer is never
// exercised one player at a time over the wire because the room/lobby
// collaborator (internal/store) already owns roster membership.
func (e *Engine) bootstrapAndStart(ctx context.Context, gameID, roomPlayerID string) ApplyMoveResult {
	playerIDs, err := e.store.GetGamePlayerIDsInOrder(ctx, gameID)
	if err != nil {
		return ApplyMoveResult{Error: fmt.Errorf("get players: %w", err)}
	}
	if len(playerIDs) < minPlayers || len(playerIDs) > maxPlayers {
		return ApplyMoveResult{Error: fmt.Errorf("player count %d not in range [%d,%d]", len(playerIDs), minPlayers, maxPlayers)}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g := game.NewGameWithTimers(gameID, rng, e.config.Timers)
	for _, id := range playerIDs {
		if err := g.AddPlayer(game.NewPlayer(id)); err != nil {
			return ApplyMoveResult{Error: fmt.Errorf("add player %s: %w", id, err)}
		}
	}
	if err := g.Start(e.config.Roles); err != nil {
		return ApplyMoveResult{Error: fmt.Errorf("start game: %w", err)}
	}

	s := &session{game: g}
	e.mu.Lock()
	e.sessions[gameID] = s
	e.mu.Unlock()

	events := []BroadcastEvent{{
		Event: eventGameStarted,
		Payload: map[string]interface{}{
			"phase":        string(g.GetState()),
			"leader_index": leaderIndexOf(g),
		},
	}}

	if err := e.store.UpdateGameStatus(ctx, gameID, "in_progress", nil); err != nil {
		return ApplyMoveResult{Error: fmt.Errorf("update game status: %w", err)}
	}
	return e.persist(ctx, gameID, s, roomPlayerID, "action", map[string]interface{}{"action": actionStartGame}, events)
}

func leaderIndexOf(g *game.Game) int {
	leader := g.GetPlayersManager().GetLeader()
	if leader == nil {
		return -1
	}
	for i, p := range g.GetPlayersManager().GetAll() {
		if p == leader {
			return i
		}
	}
	return -1
}

func (e *Engine) applyVote(g *game.Game, roomPlayerID string, payload map[string]interface{}) ([]BroadcastEvent, error) {
	switch g.GetState() {
	case game.StateTeamVoting:
		approved, ok := boolFromPayload(payload, "approved")
		if !ok {
			return nil, fmt.Errorf("payload must include approved: true/false")
		}
		if err := g.VoteForTeam(roomPlayerID, approved); err != nil {
			return nil, err
		}
	case game.StateQuestVoting:
		success, ok := boolFromPayload(payload, "success")
		if !ok {
			return nil, fmt.Errorf("payload must include success: true/false")
		}
		if err := g.VoteForQuest(roomPlayerID, success); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("vote not allowed in phase %s", g.GetState())
	}
	return []BroadcastEvent{{Event: eventVoteRecorded, Payload: map[string]interface{}{"player_id": roomPlayerID}}}, nil
}

func (e *Engine) applyAction(g *game.Game, roomPlayerID string, payload map[string]interface{}) ([]BroadcastEvent, error) {
	action, _ := payload["action"].(string)
	if action == "" {
		return nil, fmt.Errorf("payload must include action")
	}

	switch action {
	case actionStartGame:
		return nil, fmt.Errorf("game already started")
	case actionRevealRoles:
		seconds, _ := intFromPayload(payload, "seconds")
		if seconds <= 0 {
			seconds = 10
		}
		g.RevealRoles(seconds)
		return []BroadcastEvent{{Event: eventRevealRolesStarted, Payload: map[string]interface{}{"seconds": seconds}}}, nil
	case actionToggleIsProposed:
		target, _ := payload["target_player_id"].(string)
		if target == "" {
			return nil, fmt.Errorf("payload must include target_player_id")
		}
		if err := g.ToggleIsProposed(roomPlayerID, target); err != nil {
			return nil, err
		}
		return []BroadcastEvent{{Event: eventPlayerToggled, Payload: map[string]interface{}{"target_player_id": target}}}, nil
	case actionSubmitTeam:
		if err := g.SubmitTeam(roomPlayerID); err != nil {
			return nil, err
		}
		return []BroadcastEvent{{Event: eventTeamSubmitted, Payload: map[string]interface{}{}}}, nil
	case actionAssassinate:
		target, _ := payload["target_player_id"].(string)
		if target == "" {
			return nil, fmt.Errorf("payload must include target_player_id")
		}
		if err := g.Assassinate(roomPlayerID, target); err != nil {
			return nil, err
		}
		return []BroadcastEvent{{Event: eventAssassinationResolved, Payload: map[string]interface{}{"target_player_id": target}}}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func boolFromPayload(payload map[string]interface{}, key string) (bool, bool) {
	switch v := payload[key].(type) {
	case bool:
		return v, true
	case string:
		if v == "true" {
			return true, true
		}
		if v == "false" {
			return false, true
		}
	}
	return false, false
}

func intFromPayload(payload map[string]interface{}, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// The action vocabulary accepted inside a moveType == "action" payload.
const (
	actionStartGame        = "start_game"
	actionRevealRoles       = "reveal_roles"
	actionToggleIsProposed = "toggle_is_proposed"
	actionSubmitTeam       = "submit_team"
	actionAssassinate      = "assassinate"
)

// Broadcast event names the engine emits.
const (
	eventGameStarted           = "game_started"
	eventPhaseChanged          = "phase_changed"
	eventVoteRecorded          = "vote_recorded"
	eventRevealRolesStarted    = "reveal_roles_started"
	eventPlayerToggled         = "player_toggled"
	eventTeamSubmitted         = "team_submitted"
	eventAssassinationResolved = "assassination_resolved"
)

// DecodePayload returns raw as a map[string]interface{} when it already is
// one (the decoded form of ClientInMessage.Payload that the websocket
// transport passes in), and nil for nil or any other type.
func DecodePayload(raw interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	if m, ok := raw.(map[string]interface{}); ok {
		return m
	}
	return nil
}
