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
	"bytes"
	"compress/flate"
	"database/sql"
	"encoding/binary"
	"io"
	"strings"
)

// FontKey identifies a cached font by TeX name and 20.12 fixed-point
// scale, the same pair DviFont equality is defined on in the dvi
// package. texcache stays free of any dependency on dvi's types so
// that dvi, which imports texcache, cannot form a cycle.
type FontKey struct {
	TexName string
	Scale   int64
}

// FontRow is the stored representation of a font's metrics: enough to
// reconstruct a dvi.DviFont's Widths slice without re-parsing a TFM.
type FontRow struct {
	ID     int64
	Widths []int32
}

// DviFontSyncIDs upserts each name into dvi_font (ignoring names
// already present) and returns every name's id, newly inserted or
// pre-existing.
func (c *Cache) DviFontSyncIDs(names []string, tx *Tx) (map[string]int64, error) {
	result := make(map[string]int64, len(names))
	if len(names) == 0 {
		return result, nil
	}

	insert, err := tx.tx.Prepare("INSERT OR IGNORE INTO dvi_font (texname) VALUES (?)")
	if err != nil {
		return nil, err
	}
	defer insert.Close()
	for _, name := range names {
		if _, err := insert.Exec(name); err != nil {
			return nil, err
		}
	}

	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	rows, err := tx.tx.Query(
		"SELECT texname, id FROM dvi_font WHERE texname IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		result[name] = id
	}
	return result, rows.Err()
}

// DviFontSyncMetrics records widths for (id, scale) if not already
// present, packing them as little-endian 32-bit words and deflating
// the result before storing it as a blob.
func (c *Cache) DviFontSyncMetrics(id, scale int64, widths []int, tx *Tx) error {
	var exists int
	err := tx.tx.QueryRow(
		"SELECT 1 FROM dvi_font_metrics WHERE id = ? AND scale = ?", id, scale).
		Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	packed := make([]byte, 4*len(widths))
	for i, w := range widths {
		binary.LittleEndian.PutUint32(packed[4*i:], uint32(int32(w)))
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return err
	}
	if _, err := fw.Write(packed); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}

	_, err = tx.tx.Exec(
		"INSERT INTO dvi_font_metrics (id, scale, widths) VALUES (?, ?, ?)",
		id, scale, buf.Bytes())
	return err
}

// DviFonts reads back every font referenced by fileID's marks, keyed
// by (texname, scale), with widths inflated from their stored blobs.
// This is the read side of the cache: a DVI reader that finds a page
// already cached can rebuild its fonts without touching any TFM file.
func (c *Cache) DviFonts(fileID int64) (map[FontKey]*FontRow, error) {
	rows, err := c.db.Query(`
		SELECT DISTINCT f.texname, d.fontscale, f.id, m.widths
		FROM dvi d
		JOIN dvi_font f ON f.id = d.fontid
		LEFT JOIN dvi_font_metrics m ON m.id = f.id AND m.scale = d.fontscale
		WHERE d.fileid = ? AND d.fontid IS NOT NULL`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[FontKey]*FontRow)
	for rows.Next() {
		var texname string
		var scale, id int64
		var blob []byte
		if err := rows.Scan(&texname, &scale, &id, &blob); err != nil {
			return nil, err
		}
		widths, err := inflateWidths(blob)
		if err != nil {
			return nil, err
		}
		result[FontKey{TexName: texname, Scale: scale}] = &FontRow{ID: id, Widths: widths}
	}
	return result, rows.Err()
}

func inflateWidths(blob []byte) ([]int32, error) {
	if blob == nil {
		return nil, nil
	}
	r := flate.NewReader(bytes.NewReader(blob))
	defer r.Close()
	packed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	widths := make([]int32, len(packed)/4)
	for i := range widths {
		widths[i] = int32(binary.LittleEndian.Uint32(packed[4*i:]))
	}
	return widths, nil
}
