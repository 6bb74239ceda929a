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

// BoxRow is one cached rule mark on a page.
type BoxRow struct {
	X, Y, Height, Width int64
}

// TextRow is one cached glyph mark on a page.
type TextRow struct {
	X, Y, Height, Width, Depth int64
	FontID                     int64
	FontScale                  int64
	Glyph                      int
}

// BoundingBox is the extent of every mark on a page, in DVI scaled
// points, with Y increasing downward as in the rest of this package.
type BoundingBox struct {
	X0, Y0, X1, Y1 int64
}

// DviAddBox inserts a rule mark at (fileID, pageno, seq).
func (c *Cache) DviAddBox(fileID, pageno, seq int64, box BoxRow, tx *Tx) error {
	_, err := tx.tx.Exec(`
		INSERT INTO dvi (fileid, pageno, seq, x, y, height, width, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		fileID, pageno, seq, box.X, box.Y, box.Height, box.Width)
	return err
}

// DviAddText inserts a glyph mark at (fileID, pageno, seq). height and
// depth must already reflect the font's height/depth for glyph, since
// texcache carries no font-metrics evaluation logic of its own.
func (c *Cache) DviAddText(fileID, pageno, seq int64, t TextRow, tx *Tx) error {
	_, err := tx.tx.Exec(`
		INSERT INTO dvi (fileid, pageno, seq, x, y, height, width, depth, fontid, fontscale, glyph)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fileID, pageno, seq, t.X, t.Y, t.Height, t.Width, t.Depth, t.FontID, t.FontScale, t.Glyph)
	return err
}

// DviPageExists reports whether any marks are recorded for (fileID, pageno).
func (c *Cache) DviPageExists(fileID, pageno int64) (bool, error) {
	var one int
	err := c.db.QueryRow(
		"SELECT 1 FROM dvi WHERE fileid = ? AND pageno = ? LIMIT 1", fileID, pageno).
		Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// DviPageBoundingBox computes the union of every mark's extent on a page.
func (c *Cache) DviPageBoundingBox(fileID, pageno int64) (BoundingBox, bool, error) {
	var bb BoundingBox
	err := c.db.QueryRow(`
		SELECT MIN(x), MIN(y - height), MAX(x + width), MAX(y + depth)
		FROM dvi WHERE fileid = ? AND pageno = ?`, fileID, pageno).
		Scan(&bb.X0, &bb.Y0, &bb.X1, &bb.Y1)
	switch {
	case err == sql.ErrNoRows:
		return BoundingBox{}, false, nil
	case err != nil:
		return BoundingBox{}, false, err
	default:
		return bb, true, nil
	}
}

// DviPageBoxes returns every rule mark on a page, in seq order.
func (c *Cache) DviPageBoxes(fileID, pageno int64) ([]BoxRow, error) {
	rows, err := c.db.Query(`
		SELECT x, y, height, width FROM dvi
		WHERE fileid = ? AND pageno = ? AND fontid IS NULL
		ORDER BY seq`, fileID, pageno)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boxes []BoxRow
	for rows.Next() {
		var b BoxRow
		if err := rows.Scan(&b.X, &b.Y, &b.Height, &b.Width); err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// DviPageText returns every glyph mark on a page, in seq order.
func (c *Cache) DviPageText(fileID, pageno int64) ([]TextRow, error) {
	rows, err := c.db.Query(`
		SELECT x, y, height, width, depth, fontid, fontscale, glyph FROM dvi
		WHERE fileid = ? AND pageno = ? AND fontid IS NOT NULL
		ORDER BY seq`, fileID, pageno)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []TextRow
	for rows.Next() {
		var t TextRow
		if err := rows.Scan(&t.X, &t.Y, &t.Height, &t.Width, &t.Depth, &t.FontID, &t.FontScale, &t.Glyph); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// DviAddBaseline records the baseline offset of a page.
func (c *Cache) DviAddBaseline(fileID, pageno int64, baseline float64, tx *Tx) error {
	_, err := tx.tx.Exec(
		"INSERT OR REPLACE INTO dvi_baseline (fileid, pageno, baseline) VALUES (?, ?, ?)",
		fileID, pageno, baseline)
	return err
}

// DviGetBaseline returns the recorded baseline offset of a page, if any.
func (c *Cache) DviGetBaseline(fileID, pageno int64) (float64, bool, error) {
	var baseline float64
	err := c.db.QueryRow(
		"SELECT baseline FROM dvi_baseline WHERE fileid = ? AND pageno = ?", fileID, pageno).
		Scan(&baseline)
	switch {
	case err == sql.ErrNoRows:
		return 0, false, nil
	case err != nil:
		return 0, false, err
	default:
		return baseline, true, nil
	}
}
