package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateGameParams struct {
	RoomID     pgtype.UUID
	Status     string
	ConfigJson []byte
}

const createGame = `
INSERT INTO games (room_id, status, config_json)
VALUES ($1, $2, $3)
RETURNING id, room_id, status, config_json, created_at, ended_at
`

func (q *Queries) CreateGame(ctx context.Context, arg CreateGameParams) (Game, error) {
	row := q.db.QueryRow(ctx, createGame, arg.RoomID, arg.Status, arg.ConfigJson)
	var g Game
	err := row.Scan(&g.ID, &g.RoomID, &g.Status, &g.ConfigJson, &g.CreatedAt, &g.EndedAt)
	return g, err
}

const getGameById = `
SELECT id, room_id, status, config_json, created_at, ended_at
FROM games WHERE id = $1
`

func (q *Queries) GetGameById(ctx context.Context, id pgtype.UUID) (Game, error) {
	row := q.db.QueryRow(ctx, getGameById, id)
	var g Game
	err := row.Scan(&g.ID, &g.RoomID, &g.Status, &g.ConfigJson, &g.CreatedAt, &g.EndedAt)
	return g, err
}

const getGamesByRoomId = `
SELECT id, room_id, status, config_json, created_at, ended_at
FROM games WHERE room_id = $1 ORDER BY created_at DESC
`

func (q *Queries) GetGamesByRoomId(ctx context.Context, roomID pgtype.UUID) ([]Game, error) {
	rows, err := q.db.Query(ctx, getGamesByRoomId, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.RoomID, &g.Status, &g.ConfigJson, &g.CreatedAt, &g.EndedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

type UpdateGameStatusParams struct {
	ID      pgtype.UUID
	Status  string
	EndedAt pgtype.Timestamptz
}

const updateGameStatus = `UPDATE games SET status = $2, ended_at = $3 WHERE id = $1`

func (q *Queries) UpdateGameStatus(ctx context.Context, arg UpdateGameStatusParams) error {
	_, err := q.db.Exec(ctx, updateGameStatus, arg.ID, arg.Status, arg.EndedAt)
	return err
}

type CreateGamePlayerParams struct {
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Role         pgtype.Text
}

const createGamePlayer = `
INSERT INTO game_players (game_id, room_player_id, role)
VALUES ($1, $2, $3)
RETURNING id, game_id, room_player_id, role, joined_at, left_at
`

func (q *Queries) CreateGamePlayer(ctx context.Context, arg CreateGamePlayerParams) (GamePlayer, error) {
	row := q.db.QueryRow(ctx, createGamePlayer, arg.GameID, arg.RoomPlayerID, arg.Role)
	var gp GamePlayer
	err := row.Scan(&gp.ID, &gp.GameID, &gp.RoomPlayerID, &gp.Role, &gp.JoinedAt, &gp.LeftAt)
	return gp, err
}

const getRoomPlayersByGameId = `
SELECT rp.id, rp.room_id, rp.display_name, rp.is_host, rp.created_at
FROM game_players gp
JOIN room_players rp ON rp.id = gp.room_player_id
WHERE gp.game_id = $1
ORDER BY rp.created_at ASC
`

func (q *Queries) GetRoomPlayersByGameId(ctx context.Context, gameID pgtype.UUID) ([]RoomPlayer, error) {
	rows, err := q.db.Query(ctx, getRoomPlayersByGameId, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var players []RoomPlayer
	for rows.Next() {
		var rp RoomPlayer
		if err := rows.Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, rp)
	}
	return players, rows.Err()
}

type CreateGameStateSnapshotParams struct {
	GameID    pgtype.UUID
	Version   int32
	StateJson []byte
}

const createGameStateSnapshot = `
INSERT INTO game_state_snapshots (game_id, version, state_json)
VALUES ($1, $2, $3)
RETURNING id, game_id, version, state_json, created_at
`

func (q *Queries) CreateGameStateSnapshot(ctx context.Context, arg CreateGameStateSnapshotParams) (GameStateSnapshot, error) {
	row := q.db.QueryRow(ctx, createGameStateSnapshot, arg.GameID, arg.Version, arg.StateJson)
	var s GameStateSnapshot
	err := row.Scan(&s.ID, &s.GameID, &s.Version, &s.StateJson, &s.CreatedAt)
	return s, err
}

const getLatestGameStateSnapshotByGameId = `
SELECT id, game_id, version, state_json, created_at
FROM game_state_snapshots
WHERE game_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestGameStateSnapshotByGameId(ctx context.Context, gameID pgtype.UUID) (GameStateSnapshot, error) {
	row := q.db.QueryRow(ctx, getLatestGameStateSnapshotByGameId, gameID)
	var s GameStateSnapshot
	err := row.Scan(&s.ID, &s.GameID, &s.Version, &s.StateJson, &s.CreatedAt)
	return s, err
}
