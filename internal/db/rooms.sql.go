package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkRoomCodeExists = `SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`

func (q *Queries) CheckRoomCodeExists(ctx context.Context, code string) (bool, error) {
	row := q.db.QueryRow(ctx, checkRoomCodeExists, code)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

type CreateRoomParams struct {
	Code         string
	PasswordHash pgtype.Text
	SettingsJson []byte
}

const createRoom = `
INSERT INTO rooms (code, password_hash, settings_json)
VALUES ($1, $2, $3)
RETURNING id, code, password_hash, settings_json, created_at, updated_at
`

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRow(ctx, createRoom, arg.Code, arg.PasswordHash, arg.SettingsJson)
	var r Room
	err := row.Scan(&r.ID, &r.Code, &r.PasswordHash, &r.SettingsJson, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getRoomByCode = `
SELECT id, code, password_hash, settings_json, created_at, updated_at
FROM rooms WHERE code = $1
`

func (q *Queries) GetRoomByCode(ctx context.Context, code string) (Room, error) {
	row := q.db.QueryRow(ctx, getRoomByCode, code)
	var r Room
	err := row.Scan(&r.ID, &r.Code, &r.PasswordHash, &r.SettingsJson, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getRoomById = `
SELECT id, code, password_hash, settings_json, created_at, updated_at
FROM rooms WHERE id = $1
`

func (q *Queries) GetRoomById(ctx context.Context, id pgtype.UUID) (Room, error) {
	row := q.db.QueryRow(ctx, getRoomById, id)
	var r Room
	err := row.Scan(&r.ID, &r.Code, &r.PasswordHash, &r.SettingsJson, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getRoomCodeById = `SELECT code FROM rooms WHERE id = $1`

func (q *Queries) GetRoomCodeById(ctx context.Context, id pgtype.UUID) (string, error) {
	row := q.db.QueryRow(ctx, getRoomCodeById, id)
	var code string
	err := row.Scan(&code)
	return code, err
}

const getRoomPasswordHashById = `SELECT password_hash FROM rooms WHERE id = $1`

func (q *Queries) GetRoomPasswordHashById(ctx context.Context, id pgtype.UUID) (pgtype.Text, error) {
	row := q.db.QueryRow(ctx, getRoomPasswordHashById, id)
	var hash pgtype.Text
	err := row.Scan(&hash)
	return hash, err
}

const countRoomsById = `SELECT count(*) FROM rooms WHERE id = $1`

func (q *Queries) CountRoomsById(ctx context.Context, id pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countRoomsById, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type CreateRoomPlayerParams struct {
	RoomID      pgtype.UUID
	DisplayName string
	IsHost      bool
}

const createRoomPlayer = `
INSERT INTO room_players (room_id, display_name, is_host)
VALUES ($1, $2, $3)
RETURNING id, room_id, display_name, is_host, created_at
`

func (q *Queries) CreateRoomPlayer(ctx context.Context, arg CreateRoomPlayerParams) (RoomPlayer, error) {
	row := q.db.QueryRow(ctx, createRoomPlayer, arg.RoomID, arg.DisplayName, arg.IsHost)
	var rp RoomPlayer
	err := row.Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.CreatedAt)
	return rp, err
}

const getRoomPlayersByRoomId = `
SELECT id, room_id, display_name, is_host, created_at
FROM room_players WHERE room_id = $1 ORDER BY created_at ASC
`

func (q *Queries) GetRoomPlayersByRoomId(ctx context.Context, roomID pgtype.UUID) ([]RoomPlayer, error) {
	rows, err := q.db.Query(ctx, getRoomPlayersByRoomId, roomID)
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

type CheckDisplayNameExistsParams struct {
	RoomID      pgtype.UUID
	DisplayName string
}

const checkDisplayNameExists = `
SELECT EXISTS(SELECT 1 FROM room_players WHERE room_id = $1 AND display_name = $2)
`

func (q *Queries) CheckDisplayNameExists(ctx context.Context, arg CheckDisplayNameExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, checkDisplayNameExists, arg.RoomID, arg.DisplayName)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const countRoomPlayersById = `SELECT count(*) FROM room_players WHERE id = $1`

func (q *Queries) CountRoomPlayersById(ctx context.Context, id pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countRoomPlayersById, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countRoomPlayersByRoomId = `SELECT count(*) FROM room_players WHERE room_id = $1`

func (q *Queries) CountRoomPlayersByRoomId(ctx context.Context, roomID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countRoomPlayersByRoomId, roomID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
