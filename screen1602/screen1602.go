// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1602 implements a display.TextDisplay that renders a
// character LCD to the terminal (stdout) using ANSI color codes.
//
// Useful while you are waiting for your LCD1602 module to come by mail, or
// to exercise code that drives a text display without any hardware
// attached.
package screen1602

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// cmdByte in the first position of a Write marks the remaining bytes as
// controller commands, mirroring the lcd1602 driver so the two are
// interchangeable behind display.TextDisplay.
const cmdByte byte = 0xfe

// Opts represents the options available for this display.
type Opts struct {
	// Rows and Cols describe the emulated panel geometry. Both default to
	// the 1602 module (2 rows of 16).
	Rows int
	Cols int
	// W receives the rendered output. Defaults to a colorable stdout.
	W io.Writer
	// Palette used for the backlight indicator blocks.
	Palette *ansi256.Palette

	_ struct{}
}

var backlightOn = color.NRGBA{0, 192, 64, 255}
var backlightOff = color.NRGBA{48, 48, 48, 255}

// rowOffsets is the HD44780 DDRAM base address of each row.
var rowOffsets = []byte{0, 64, 20, 84}

// Dev is a character LCD emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	rows    int
	cols    int
	palette ansi256.Palette

	cells     [][]byte
	row       int // 0 based
	col       int // 0 based
	on        bool
	cursor    bool
	backlight bool
	drawn     bool
	buf       bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = 2
	}
	if cols == 0 {
		cols = 16
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:         w,
		rows:      rows,
		cols:      cols,
		palette:   *p,
		on:        true,
		backlight: true,
	}
	d.cells = make([][]byte, rows)
	for ix := range d.cells {
		d.cells[ix] = bytes.Repeat([]byte{' '}, cols)
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("screen1602: %dx%d", d.cols, d.rows)
}

// Not supported. Returns display.ErrNotImplemented
func (d *Dev) AutoScroll(enabled bool) error {
	return fmt.Errorf("screen1602: %w", display.ErrNotImplemented)
}

// Clear blanks every cell and moves the cursor to the first position.
func (d *Dev) Clear() error {
	d.clearCells()
	d.row, d.col = 0, 0
	return d.refresh()
}

func (d *Dev) clearCells() {
	for ix := range d.cells {
		for jx := range d.cells[ix] {
			d.cells[ix][jx] = ' '
		}
	}
}

// Return the number of columns the display supports
func (d *Dev) Cols() int {
	return d.cols
}

// Set the cursor mode. Only the on/off distinction is rendered.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			d.cursor = false
		case display.CursorBlink, display.CursorUnderline, display.CursorBlock:
			d.cursor = true
		default:
			return fmt.Errorf("screen1602: unexpected cursor: %d", mode)
		}
	}
	return d.refresh()
}

// Turn the display on / off
func (d *Dev) Display(on bool) error {
	d.on = on
	return d.refresh()
}

// Move the cursor home (MinRow(),MinCol())
func (d *Dev) Home() error {
	d.row, d.col = 0, 0
	return nil
}

// Return the min column position.
func (d *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (d *Dev) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Forward:
		d.advance()
	case display.Backward:
		if d.col > 0 {
			d.col--
		} else if d.row > 0 {
			d.row--
			d.col = d.cols - 1
		}
	default:
		return fmt.Errorf("screen1602: %w", display.ErrNotImplemented)
	}
	return nil
}

// Move the cursor to arbitrary position.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.rows || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("screen1602: MoveTo(%d,%d) value out of range", row, col)
	}
	d.row, d.col = row-1, col-1
	return nil
}

// Return the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// Write stores the bytes at the cursor with auto increment and wrap, then
// redraws. A leading cmdByte marks the remainder of p as controller
// commands instead of cell data.
func (d *Dev) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if p[0] == cmdByte {
		for _, c := range p[1:] {
			d.command(c)
		}
		if err := d.refresh(); err != nil {
			return 0, err
		}
		return len(p) - 1, nil
	}
	for _, b := range p {
		if b < ' ' || b > '~' {
			b = ' '
		}
		d.cells[d.row][d.col] = b
		d.advance()
	}
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// command interprets the HD44780 instructions an emulator can show.
// Instructions with no visible effect (CGRAM, function set, shifts,
// entry mode) are accepted and ignored.
func (d *Dev) command(c byte) {
	switch {
	case c >= 0x80:
		d.moveToAddr(int(c & 0x7f))
	case c >= 0x40:
		// CGRAM address, custom glyphs not emulated.
	case c >= 0x20:
		// Function set, the geometry here is fixed at construction.
	case c >= 0x10:
		// Cursor/display shift, not emulated.
	case c >= 0x08:
		d.on = c&0x04 != 0
		d.cursor = c&0x03 != 0
	case c >= 0x04:
		// Entry mode, auto increment is the only mode emulated.
	case c == 0x02:
		d.row, d.col = 0, 0
	case c == 0x01:
		d.clearCells()
		d.row, d.col = 0, 0
	}
}

// moveToAddr maps a DDRAM address to a cell, using the same row offset
// table as the real controller. Addresses outside the panel are ignored,
// as the controller ignores writes past the visible columns.
func (d *Dev) moveToAddr(addr int) {
	// Offsets ordered so the highest base wins when ranges overlap.
	for _, ix := range []int{3, 1, 2, 0} {
		if ix >= d.rows {
			continue
		}
		off := int(rowOffsets[ix])
		if addr >= off && addr-off < d.cols {
			d.row, d.col = ix, addr-off
			return
		}
	}
}

// Write a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Turn the emulated backlight on or off.
func (d *Dev) Backlight(intensity display.Intensity) error {
	d.backlight = intensity > 0
	return d.refresh()
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so later output is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Text returns the current contents, one string per row.
func (d *Dev) Text() []string {
	lines := make([]string, d.rows)
	for ix := range d.cells {
		lines[ix] = string(d.cells[ix])
	}
	return lines
}

func (d *Dev) advance() {
	d.col++
	if d.col >= d.cols {
		d.col = 0
		d.row++
		if d.row >= d.rows {
			d.row = 0
		}
	}
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per
	// call.
	d.buf.Reset()
	if d.drawn {
		// Rewind over the previous frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows)
	}
	bl := backlightOff
	if d.backlight {
		bl = backlightOn
	}
	for ix := range d.cells {
		_, _ = d.buf.WriteString("\r\033[2K\033[0m")
		_, _ = io.WriteString(&d.buf, d.palette.Block(bl))
		if d.on {
			_, _ = d.buf.Write(d.cells[ix])
		} else {
			_, _ = d.buf.Write(bytes.Repeat([]byte{' '}, d.cols))
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(bl))
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
