package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// User mirrors the users table.
type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarUrl    pgtype.Text
	SettingsJson []byte
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Room mirrors the rooms table.
type Room struct {
	ID           pgtype.UUID
	Code         string
	PasswordHash pgtype.Text
	SettingsJson []byte
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// RoomPlayer mirrors the room_players table.
type RoomPlayer struct {
	ID          pgtype.UUID
	RoomID      pgtype.UUID
	DisplayName string
	IsHost      bool
	CreatedAt   pgtype.Timestamptz
}

// Game mirrors the games table.
type Game struct {
	ID         pgtype.UUID
	RoomID     pgtype.UUID
	Status     string
	ConfigJson []byte
	CreatedAt  pgtype.Timestamptz
	EndedAt    pgtype.Timestamptz
}

// GamePlayer mirrors the game_players table.
type GamePlayer struct {
	ID           pgtype.UUID
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Role         pgtype.Text
	JoinedAt     pgtype.Timestamptz
	LeftAt       pgtype.Timestamptz
}

// GameStateSnapshot mirrors the game_state_snapshots table.
type GameStateSnapshot struct {
	ID        pgtype.UUID
	GameID    pgtype.UUID
	Version   int32
	StateJson []byte
	CreatedAt pgtype.Timestamptz
}

// GameEvent mirrors the game_events table.
type GameEvent struct {
	ID           pgtype.UUID
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Type         string
	PayloadJson  []byte
	CreatedAt    pgtype.Timestamptz
}

// ChatMessage mirrors the chat_messages table.
type ChatMessage struct {
	ID           pgtype.UUID
	RoomID       pgtype.UUID
	GameID       pgtype.UUID
	RoomPlayerID pgtype.UUID
	Message      string
	CreatedAt    pgtype.Timestamptz
}
