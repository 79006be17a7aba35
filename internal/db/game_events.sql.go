package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateGameEventParams struct {
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Type         string
	PayloadJson  []byte
}

const createGameEvent = `
INSERT INTO game_events (game_id, room_player_id, type, payload_json)
VALUES ($1, $2, $3, $4)
RETURNING id, game_id, room_player_id, type, payload_json, created_at
`

func (q *Queries) CreateGameEvent(ctx context.Context, arg CreateGameEventParams) (GameEvent, error) {
	row := q.db.QueryRow(ctx, createGameEvent, arg.GameID, arg.RoomPlayerID, arg.Type, arg.PayloadJson)
	var e GameEvent
	err := row.Scan(&e.ID, &e.GameID, &e.RoomPlayerID, &e.Type, &e.PayloadJson, &e.CreatedAt)
	return e, err
}

const getGameEventsByGameId = `
SELECT id, game_id, room_player_id, type, payload_json, created_at
FROM game_events WHERE game_id = $1 ORDER BY created_at ASC
`

func (q *Queries) GetGameEventsByGameId(ctx context.Context, gameID pgtype.UUID) ([]GameEvent, error) {
	rows, err := q.db.Query(ctx, getGameEventsByGameId, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		if err := rows.Scan(&e.ID, &e.GameID, &e.RoomPlayerID, &e.Type, &e.PayloadJson, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
