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

// Command dvidump prints the text and rule marks of every page of a DVI
// file, one line per mark, to stdout. It exists to exercise the dvi
// package end to end, not as a general-purpose DVI tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jkseppan/dviread"
)

func main() {
	dpi := flag.Float64("dpi", 0, "convert page units to this resolution (0 keeps raw DVI scaled points)")
	verbose := flag.Bool("v", false, "log diagnostic traces (specials, missing metrics) to stderr")
	preview := flag.Bool("preview", false, "read a same-stem .baseline sidecar for descent, as the latex preview package writes")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dvidump [-dpi N] [-v] file.dvi")
		os.Exit(2)
	}

	opts := dvi.Options{PreviewBaseline: *preview}
	if *dpi > 0 {
		opts.DPI = dpi
	}
	if *verbose {
		opts.Logger = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	if err := run(flag.Arg(0), opts); err != nil {
		log.Fatal(err)
	}
}

func run(filename string, opts dvi.Options) error {
	r, err := dvi.Open(context.Background(), filename, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("fonts: %v\n", r.Fonts())

	for pageno := 0; ; pageno++ {
		page, err := r.NextPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("page %d: %g x %g, descent %g\n", pageno, page.Width, page.Height, page.Descent)
		for _, t := range page.Text {
			fmt.Printf("  text x=%g y=%g font=%s glyph=%d width=%g\n",
				t.X, t.Y, t.Font.TexName, t.Glyph, t.Width)
		}
		for _, b := range page.Boxes {
			fmt.Printf("  box  x=%g y=%g height=%g width=%g\n", b.X, b.Y, b.Height, b.Width)
		}
	}
}
