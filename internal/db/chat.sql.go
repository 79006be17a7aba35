package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateChatMessageParams struct {
	RoomID       pgtype.UUID
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Message      string
}

const createChatMessage = `
INSERT INTO chat_messages (room_id, game_id, room_player_id, message)
VALUES ($1, $2, $3, $4)
RETURNING id, room_id, game_id, room_player_id, message, created_at
`

func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, createChatMessage, arg.RoomID, arg.GameID, arg.RoomPlayerID, arg.Message)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.RoomID, &m.GameID, &m.RoomPlayerID, &m.Message, &m.CreatedAt)
	return m, err
}
