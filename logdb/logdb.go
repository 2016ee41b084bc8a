// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb persists vault notifications for querying.
package logdb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/vault"
)

// LogDB stores events in sqlite.
type LogDB struct {
	path string
	db   *sql.DB
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &LogDB{path, db}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() {
	db.db.Close()
}

// Path returns the db file path.
func (db *LogDB) Path() string {
	return db.path
}

// Write appends events in one transaction.
func (db *LogDB) Write(events []*ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range events {
		amount := "0"
		if ev.Amount != nil {
			amount = ev.Amount.String()
		}
		if _, err := tx.Exec(
			"INSERT INTO event(type, owner, stakeId, amount, startTime, tier, ts) VALUES(?,?,?,?,?,?,?)",
			ev.Type,
			ev.Owner.Bytes(),
			ev.StakeID,
			amount,
			ev.StartTime,
			uint8(ev.Tier),
			ev.Time,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Order defines the order of query results.
type Order string

// orders
const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Options limits the size of the query result.
type Options struct {
	Offset uint64
	Limit  uint64
}

// TimeRange filters events by emission time, inclusive.
type TimeRange struct {
	From uint64
	To   uint64
}

// EventFilter describes an event query.
type EventFilter struct {
	Owner   *vault.Address
	Type    string
	Range   *TimeRange
	Order   Order
	Options *Options
}

// Filter queries stored events.
func (db *LogDB) Filter(ctx context.Context, filter *EventFilter) ([]*ledger.Event, error) {
	stmt := "SELECT seq, type, owner, stakeId, amount, startTime, tier, ts FROM event WHERE 1"
	var args []any
	if filter != nil {
		if filter.Owner != nil {
			stmt += " AND owner = ?"
			args = append(args, filter.Owner.Bytes())
		}
		if filter.Type != "" {
			stmt += " AND type = ?"
			args = append(args, filter.Type)
		}
		if filter.Range != nil {
			stmt += " AND ts >= ?"
			args = append(args, filter.Range.From)
			if filter.Range.To >= filter.Range.From {
				stmt += " AND ts <= ?"
				args = append(args, filter.Range.To)
			}
		}
		if filter.Order == DESC {
			stmt += " ORDER BY seq DESC"
		} else {
			stmt += " ORDER BY seq ASC"
		}
		if filter.Options != nil {
			stmt += " LIMIT ?, ?"
			args = append(args, filter.Options.Offset, filter.Options.Limit)
		}
	} else {
		stmt += " ORDER BY seq ASC"
	}

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ledger.Event
	for rows.Next() {
		var (
			seq       uint64
			evType    string
			owner     []byte
			stakeID   uint64
			amountStr string
			startTime uint32
			tier      uint8
			ts        uint64
		)
		if err := rows.Scan(&seq, &evType, &owner, &stakeID, &amountStr, &startTime, &tier, &ts); err != nil {
			return nil, err
		}
		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return nil, errors.Errorf("corrupted amount %q at seq %d", amountStr, seq)
		}
		events = append(events, &ledger.Event{
			Type:      evType,
			Owner:     vault.BytesToAddress(owner),
			StakeID:   stakeID,
			Amount:    amount,
			StartTime: startTime,
			Tier:      vault.Tier(tier),
			Time:      ts,
		})
	}
	return events, rows.Err()
}
