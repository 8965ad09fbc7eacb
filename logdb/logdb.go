// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

var logger = log.WithContext("pkg", "logdb")

// LogDB indexes events emitted by blocks in sqlite.
type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	return open(path, db)
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection opens its own in-memory database
	db.SetMaxOpenConns(1)
	return open(":memory:", db)
}

func open(path string, db *sql.DB) (logDB *LogDB, err error) {
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log db opened", "path", path, "sqlite", driverVer)
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

// Path returns the database path.
func (db *LogDB) Path() string {
	return db.path
}

// FilterEvents returns events matching the filter. A nil filter returns all events in ascending order.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if r := filter.Range; r != nil {
		if r.Unit == Time {
			args = append(args, r.From)
			stmt += " AND blockTime >= ?"
			if r.To >= r.From {
				args = append(args, r.To)
				stmt += " AND blockTime <= ?"
			}
		} else {
			// block ranges are served by the primary key
			if r.From > math.MaxUint32 {
				return nil, nil
			}
			to := uint64(math.MaxUint32)
			if r.To >= r.From && r.To < to {
				to = r.To
			}
			lo, hi := blockSpan(uint32(r.From), uint32(to))
			args = append(args, lo, hi)
			stmt += " AND seq >= ? AND seq <= ?"
		}
	}

	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ?"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ?"
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%d = ?", j)
			}
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
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
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       sequence
			blockNum  uint32
			blockTime uint64
			txID      []byte
			txOrigin  []byte
			address   []byte
			name      string
			topics    [MaxTopics][]byte
			data      []byte
		)
		if err := rows.Scan(
			&seq,
			&blockNum,
			&blockTime,
			&txID,
			&txOrigin,
			&address,
			&name,
			&topics[0],
			&topics[1],
			&topics[2],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			BlockTime:   blockTime,
			TxID:        scrap.BytesToBytes32(txID),
			TxOrigin:    scrap.BytesToAddress(txOrigin),
			Address:     scrap.BytesToAddress(address),
			Name:        name,
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := scrap.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewestBlock returns the number of the newest block that has events written.
// The second return value is false when no event is written.
func (db *LogDB) NewestBlock() (uint32, bool, error) {
	var seq sql.NullInt64
	if err := db.stmtCache.MustPrepare("SELECT MAX(seq) FROM event").QueryRow().Scan(&seq); err != nil {
		return 0, false, err
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return sequence(seq.Int64).BlockNumber(), true, nil
}

// Truncate deletes events of blocks since blockNum (included).
func (db *LogDB) Truncate(blockNum uint32) error {
	lo, _ := blockSpan(blockNum, blockNum)
	_, err := db.stmtCache.MustPrepare("DELETE FROM event WHERE seq >= ?").Exec(lo)
	return err
}

// NewWriter creates a writer collecting the events of one block.
func (db *LogDB) NewWriter(blockNum uint32, blockTime uint64) *Writer {
	return &Writer{
		db:        db,
		blockNum:  blockNum,
		blockTime: blockTime,
	}
}

// Writer accumulates events of a block and writes them in one sql transaction.
type Writer struct {
	db        *LogDB
	blockNum  uint32
	blockTime uint64
	events    []*Event
}

// Write appends events emitted by a transaction. Events of the genesis block use the zero tx id.
func (w *Writer) Write(txID scrap.Bytes32, txOrigin scrap.Address, events tx.Events) *Writer {
	for _, ev := range events {
		w.events = append(w.events, newEvent(w.blockNum, w.blockTime, uint32(len(w.events)), txID, txOrigin, ev))
	}
	return w
}

// Len returns the count of uncommitted events.
func (w *Writer) Len() int {
	return len(w.events)
}

// Commit writes accumulated events.
func (w *Writer) Commit() (err error) {
	if len(w.events) == 0 {
		return nil
	}
	insert, err := w.db.stmtCache.Prepare("INSERT OR REPLACE INTO event(seq, blockNumber, blockTime, txID, txOrigin, address, name, topic0, topic1, topic2, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}

	sqlTx, err := w.db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sqlTx.Rollback()
		}
	}()

	stmt := sqlTx.Stmt(insert)
	for _, ev := range w.events {
		var seq sequence
		if seq, err = newSequence(ev.BlockNumber, ev.Index); err != nil {
			return err
		}
		if _, err = stmt.Exec(
			seq,
			ev.BlockNumber,
			ev.BlockTime,
			ev.TxID.Bytes(),
			ev.TxOrigin.Bytes(),
			ev.Address.Bytes(),
			ev.Name,
			topicValue(ev.Topics[0]),
			topicValue(ev.Topics[1]),
			topicValue(ev.Topics[2]),
			[]byte(ev.Data),
		); err != nil {
			return err
		}
	}
	if err = sqlTx.Commit(); err != nil {
		return err
	}
	w.events = nil
	return nil
}

func topicValue(topic *scrap.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
