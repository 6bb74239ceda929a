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

import (
	"database/sql"
	"os"
)

// DviNewFile records a fresh entry for name, replacing (and cascading
// away the pages of) any prior entry with the same name, and returns
// the new row's id.
func (c *Cache) DviNewFile(name string, tx *Tx) (int64, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, err
	}
	if _, err := tx.tx.Exec("DELETE FROM dvi_file WHERE name = ?", name); err != nil {
		return 0, err
	}
	res, err := tx.tx.Exec(
		"INSERT INTO dvi_file (name, mtime, size) VALUES (?, ?, ?)",
		name, info.ModTime().Unix(), info.Size())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DviID returns the cached row id for name if its recorded mtime and
// size still match the file on disk, and false otherwise (including
// when the file is missing).
func (c *Cache) DviID(name string) (int64, bool, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, false, nil
	}

	var id, mtime, size int64
	err = c.db.QueryRow(
		"SELECT id, mtime, size FROM dvi_file WHERE name = ?", name).
		Scan(&id, &mtime, &size)
	switch {
	case err == sql.ErrNoRows:
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	if mtime != info.ModTime().Unix() || size != info.Size() {
		return 0, false, nil
	}
	return id, true, nil
}
