// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// MaxTopics is the count of event topics indexed.
const MaxTopics = 3

// seq is the primary key, see sequence.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	blockNumber INTEGER NOT NULL,
	blockTime INTEGER NOT NULL,
	txID BLOB NOT NULL,
	txOrigin BLOB NOT NULL,
	address BLOB NOT NULL,
	name TEXT NOT NULL,
	topic0 BLOB,
	topic1 BLOB,
	topic2 BLOB,
	data BLOB
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(blockNumber);
CREATE INDEX IF NOT EXISTS event_i1 ON event(blockTime);
CREATE INDEX IF NOT EXISTS event_i2 ON event(address, name);
CREATE INDEX IF NOT EXISTS event_i3 ON event(topic0);
CREATE INDEX IF NOT EXISTS event_i4 ON event(topic1);
CREATE INDEX IF NOT EXISTS event_i5 ON event(topic2);
`
