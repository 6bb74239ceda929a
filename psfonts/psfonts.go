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

// Package psfonts parses psfonts.map-style TeX-to-PostScript font maps
// and the .enc encoding-vector files they reference. Neither format
// has a formal grammar; both are line-oriented text conventions that
// grew organically, so the parser here is a direct tokenizer rather
// than anything more structured.
package psfonts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Font is one psfonts.map entry: a TeX font name mapped to a
// PostScript name, optional rendering effects, and optional encoding
// vector / font file references.
type Font struct {
	TexName  string
	PsName   string
	Effects  map[string]float64 // "slant" or "extend" -> amount
	Encoding string             // possibly relative; resolved by caller
	Filename string             // possibly relative; resolved by caller
}

// Map is a parsed psfonts.map (or pdftex.map, dvipdfm.map) file,
// looked up by TeX font name.
type Map struct {
	fonts map[string]Font
}

// Lookup returns the entry for texname, if any.
func (m *Map) Lookup(texname string) (Font, bool) {
	f, ok := m.fonts[texname]
	return f, ok
}

var (
	emptyLineRE = regexp.MustCompile(`^(%|\s*$)`)
	wordRE      = regexp.MustCompile(
		`"<\[(?P<enc1>[^"]+)"` +
			`|"<(?P<enc2>[^"]+\.enc)"` +
			`|"<<?(?P<file1>[^"]+)"` +
			`|"(?P<eff1>[^"]+)"` +
			`|<\[(?P<enc3>\S+)` +
			`|<(?P<enc4>\S+\.enc)` +
			`|<<?(?P<file2>\S+)` +
			`|(?P<eff2>\S+)`)
	effectsRE = regexp.MustCompile(
		`(?P<slant>-?[0-9]*(?:\.[0-9]+))\s*SlantFont` +
			`|(?P<extend>-?[0-9]*(?:\.[0-9]+))\s*ExtendFont`)
)

// namedGroup returns the text matched by name within match, given the
// subexpression names of re, or "" if that group did not participate.
func namedGroup(re *regexp.Regexp, match []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name && i < len(match) {
			return match[i]
		}
	}
	return ""
}

// ParseMap reads a psfonts.map-format file from r.
func ParseMap(r io.Reader) (*Map, error) {
	m := &Map{fonts: make(map[string]Font)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if emptyLineRE.MatchString(line) {
			continue
		}
		words := wordRE.FindAllStringSubmatch(line, -1)
		if len(words) < 2 {
			continue
		}

		texname := firstOf(wordRE, words[0], "eff2", "eff1")
		psname := firstOf(wordRE, words[1], "eff2", "eff1")

		var effects, encoding, filename string
		for _, w := range words[2:] {
			if eff := firstOf(wordRE, w, "eff1", "eff2"); eff != "" {
				effects = eff
				continue
			}
			if enc := firstOf(wordRE, w, "enc4", "enc3", "enc2", "enc1"); enc != "" {
				encoding = enc
				continue
			}
			if file := firstOf(wordRE, w, "file2", "file1"); file != "" {
				filename = file
			}
		}

		m.fonts[texname] = Font{
			TexName:  texname,
			PsName:   psname,
			Effects:  parseEffects(effects),
			Encoding: encoding,
			Filename: filename,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseMapFile opens and parses a psfonts.map-format file by path.
func ParseMapFile(filename string) (*Map, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMap(f)
}

func firstOf(re *regexp.Regexp, match []string, names ...string) string {
	for _, name := range names {
		if v := namedGroup(re, match, name); v != "" {
			return v
		}
	}
	return ""
}

func parseEffects(effects string) map[string]float64 {
	result := make(map[string]float64)
	for _, m := range effectsRE.FindAllStringSubmatch(effects, -1) {
		if slant := namedGroup(effectsRE, m, "slant"); slant != "" {
			if v, err := strconv.ParseFloat(slant, 64); err == nil {
				result["slant"] = v
			}
			continue
		}
		if extend := namedGroup(effectsRE, m, "extend"); extend != "" {
			if v, err := strconv.ParseFloat(extend, 64); err == nil {
				result["extend"] = v
			}
		}
	}
	return result
}

// Encoding is a PostScript encoding vector: an ordered list of glyph
// names, parsed from the very limited PostScript subset that .enc
// files actually use.
type Encoding struct {
	Names []string
}

// ParseEncoding reads a .enc file from r.
func ParseEncoding(r io.Reader) (*Encoding, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var joined strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		if i := strings.IndexByte(line, '%'); i >= 0 {
			line = line[:i]
		}
		joined.WriteString(strings.TrimSpace(line))
	}
	data := joined.String()

	begin := strings.IndexByte(data, '[')
	if begin < 0 {
		return nil, fmt.Errorf("psfonts: cannot locate beginning of encoding")
	}
	data = data[begin:]
	end := strings.IndexByte(data, ']')
	if end < 0 {
		return nil, fmt.Errorf("psfonts: cannot locate end of encoding")
	}
	data = data[:end]

	nameRE := regexp.MustCompile(`/([^\[\]{}<>\s]+)`)
	var names []string
	for _, m := range nameRE.FindAllStringSubmatch(data, -1) {
		names = append(names, m[1])
	}
	return &Encoding{Names: names}, nil
}

// ParseEncodingFile opens and parses a .enc file by path.
func ParseEncodingFile(filename string) (*Encoding, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseEncoding(f)
}
