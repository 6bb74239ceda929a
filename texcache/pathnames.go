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

import "strings"

// GetPathnames queries the cache for pathnames related to filenames.
// The returned map contains an entry only for names present in the
// cache; a nil value means the name is a known negative hit (the file
// does not exist).
func (c *Cache) GetPathnames(filenames []string) (map[string]*string, error) {
	result := make(map[string]*string, len(filenames))
	if len(filenames) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(filenames))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(filenames))
	for i, f := range filenames {
		args[i] = f
	}

	rows, err := c.db.Query(
		"SELECT filename, pathname FROM file_path WHERE filename IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		var pathname *string
		if err := rows.Scan(&filename, &pathname); err != nil {
			return nil, err
		}
		result[filename] = pathname
	}
	return result, rows.Err()
}

// UpdatePathnames upserts filename->pathname pairs. A nil pathname
// records a negative hit (the file is known not to exist).
func (c *Cache) UpdatePathnames(mapping map[string]*string, tx *Tx) error {
	stmt, err := tx.tx.Prepare("INSERT OR REPLACE INTO file_path (filename, pathname) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for filename, pathname := range mapping {
		if _, err := stmt.Exec(filename, pathname); err != nil {
			return err
		}
	}
	return nil
}
