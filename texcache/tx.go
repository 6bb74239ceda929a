// github.com/jkseppan/dviread - a reader for TeX DVI, TFM and VF files
// Copyright (C) 2024  The dviread Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package texcache

import "database/sql"

// Tx is a scoped write transaction. Every mutating Cache method takes
// one, obtained from WithTx, so that writes always commit on success
// or roll back on any returned error, with no path that leaks an open
// transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a new transaction, committing if fn returns
// nil and rolling back otherwise. This is the only way to obtain a
// *Tx, so every write is scoped.
func (c *Cache) WithTx(fn func(tx *Tx) error) (err error) {
	sqlTx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()
	return fn(&Tx{tx: sqlTx})
}
