// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for events
const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	type text,
	owner blob(20),
	stakeId integer,
	amount text,
	startTime integer,
	tier integer,
	ts integer
);

CREATE INDEX if not exists ownerIndex on event(owner);
CREATE INDEX if not exists typeIndex on event(type);
CREATE INDEX if not exists tsIndex on event(ts);
`
