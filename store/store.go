// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store 是對局日誌的 SQLite 持久層（modernc.org/sqlite，純 Go 無 cgo）。
//
// 三張表：
//   - matches：開局設定與 seed，加上是否結束與勝者。
//   - moves：依序被接受的招式；設定 + seed + moves 即可重播整場。
//   - event_batches：每個招式產生的事件，JSON 後以 zstd 壓縮存成一筆 BLOB。
//
// Store 實作 machilab.Store，可直接交給 Hub 做 write-through。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/store/migrations"
	_ "modernc.org/sqlite"
)

const codecZstdJSON = "zstd+json"

// Summary 對局列表的一列。
type Summary struct {
	ID        string               `json:"id"`
	Setting   setting.MatchSetting `json:"setting"`
	Moves     int                  `json:"moves"`
	Over      bool                 `json:"over"`
	Winner    int                  `json:"winner"`
	CreatedAt time.Time            `json:"created_at"`
}

// Store SQLite 對局日誌。
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open 開啟（或建立）path 的資料庫並套用內嵌 migrations。
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.NewFatal("store: path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite db")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "ping sqlite db")
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "zstd encoder")
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "zstd decoder")
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close 釋放資料庫連線與壓縮器。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

// CreateMatch 在同一個交易內寫入對局與紀錄中已有的招式；任何一步失敗都不留下資料。
func (s *Store) CreateMatch(ctx context.Context, id string, rec *machilab.Record) error {
	raw, err := json.Marshal(rec.Setting)
	if err != nil {
		return errs.Wrap(err, "encode setting")
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "begin create")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, setting, seed, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(raw), rec.Seed, now, now,
	); err != nil {
		return errs.Wrap(err, "insert match")
	}
	for i, mv := range rec.Moves {
		if err := s.appendTx(ctx, tx, id, machilab.Entry{Seq: i + 1, Move: mv, Events: []game.Event{}}, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "commit create")
	}
	return nil
}

// AppendMove 在同一個交易內寫入招式與其壓縮後的事件批次。
func (s *Store) AppendMove(ctx context.Context, id string, e machilab.Entry) error {
	now := time.Now().UTC().UnixMilli()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "begin append")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.appendTx(ctx, tx, id, e, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE matches SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return errs.Wrap(err, "touch match")
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "commit append")
	}
	return nil
}

func (s *Store) appendTx(ctx context.Context, tx *sql.Tx, id string, e machilab.Entry, now int64) error {
	mv, err := json.Marshal(e.Move)
	if err != nil {
		return errs.Wrap(err, "encode move")
	}
	evs, err := json.Marshal(e.Events)
	if err != nil {
		return errs.Wrap(err, "encode events")
	}
	payload := s.enc.EncodeAll(evs, nil)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO moves (match_id, seq, player, move, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, e.Seq, e.Player, string(mv), now,
	); err != nil {
		return errs.Wrap(err, "insert move")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_batches (match_id, seq, codec, events, payload) VALUES (?, ?, ?, ?, ?)`,
		id, e.Seq, codecZstdJSON, len(e.Events), payload,
	); err != nil {
		return errs.Wrap(err, "insert event batch")
	}
	return nil
}

func (s *Store) FinishMatch(ctx context.Context, id string, winner int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET over = 1, winner = ?, updated_at = ? WHERE id = ?`,
		winner, time.Now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return errs.Wrap(err, "finish match")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.Reject(machilab.ErrMatchNotFound, "id=%s", id)
	}
	return nil
}

// LoadMatch 讀回可重播的紀錄。
func (s *Store) LoadMatch(ctx context.Context, id string) (*machilab.Record, error) {
	var (
		raw  string
		seed int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT setting, seed FROM matches WHERE id = ?`, id).Scan(&raw, &seed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Reject(machilab.ErrMatchNotFound, "id=%s", id)
	}
	if err != nil {
		return nil, errs.Wrap(err, "load match")
	}
	rec := &machilab.Record{Seed: seed, Moves: []game.Move{}}
	if err := json.Unmarshal([]byte(raw), &rec.Setting); err != nil {
		return nil, errs.Wrap(err, "decode setting")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT move FROM moves WHERE match_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, errs.Wrap(err, "load moves")
	}
	defer rows.Close()
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, errs.Wrap(err, "scan move")
		}
		var mv game.Move
		if err := json.Unmarshal([]byte(m), &mv); err != nil {
			return nil, errs.Wrap(err, "decode move")
		}
		rec.Moves = append(rec.Moves, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate moves")
	}
	return rec, nil
}

// Journal 回傳 seq 大於 since 的招式與其事件。
func (s *Store) Journal(ctx context.Context, id string, since int) ([]machilab.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT m.seq, m.player, m.move, b.codec, b.payload
FROM moves m
JOIN event_batches b ON b.match_id = m.match_id AND b.seq = m.seq
WHERE m.match_id = ? AND m.seq > ?
ORDER BY m.seq`, id, since)
	if err != nil {
		return nil, errs.Wrap(err, "load journal")
	}
	defer rows.Close()

	out := []machilab.Entry{}
	for rows.Next() {
		var (
			e       machilab.Entry
			mv      string
			codec   string
			payload []byte
		)
		if err := rows.Scan(&e.Seq, &e.Player, &mv, &codec, &payload); err != nil {
			return nil, errs.Wrap(err, "scan journal")
		}
		if err := json.Unmarshal([]byte(mv), &e.Move); err != nil {
			return nil, errs.Wrap(err, "decode move")
		}
		if e.Events, err = s.decodeBatch(codec, payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate journal")
	}
	return out, nil
}

// Events 整場對局的事件紀錄（依招式順序攤平）。
func (s *Store) Events(ctx context.Context, id string) ([]game.Event, error) {
	entries, err := s.Journal(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	out := []game.Event{}
	for _, e := range entries {
		out = append(out, e.Events...)
	}
	return out, nil
}

// List 依建立時間由新到舊列出對局。
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		return nil, errs.NewWarn("limit must be greater than zero")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, setting, over, winner, created_at,
       (SELECT COUNT(*) FROM moves WHERE match_id = matches.id)
FROM matches
ORDER BY created_at DESC, id
LIMIT ?`, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list matches")
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sm      Summary
			raw     string
			over    int
			created int64
		)
		if err := rows.Scan(&sm.ID, &raw, &over, &sm.Winner, &created, &sm.Moves); err != nil {
			return nil, errs.Wrap(err, "scan match")
		}
		if err := json.Unmarshal([]byte(raw), &sm.Setting); err != nil {
			return nil, errs.Wrap(err, "decode setting")
		}
		sm.Over = over != 0
		sm.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate matches")
	}
	return out, nil
}

func (s *Store) decodeBatch(codec string, payload []byte) ([]game.Event, error) {
	if codec != codecZstdJSON {
		return nil, errs.Fatalf("store: unknown batch codec %q", codec)
	}
	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, errs.Wrap(err, "decompress event batch")
	}
	evs := []game.Event{}
	if err := json.Unmarshal(raw, &evs); err != nil {
		return nil, errs.Wrap(err, "decode event batch")
	}
	return evs, nil
}
