// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen1602

import (
	"bytes"
	"strings"
	"testing"
)

func newBuffered() (*Dev, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Opts{W: buf}), buf
}

func TestWriteAndText(t *testing.T) {
	d, buf := newBuffered()
	if err := d.MoveTo(1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("Temperature:"); err != nil {
		t.Fatal(err)
	}
	if err := d.MoveTo(2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("27 C "); err != nil {
		t.Fatal(err)
	}
	lines := d.Text()
	if lines[0] != "Temperature:    " {
		t.Errorf("row 1 = %q", lines[0])
	}
	if lines[1] != "27 C            " {
		t.Errorf("row 2 = %q", lines[1])
	}
	if !strings.Contains(buf.String(), "Temperature:") {
		t.Error("rendered output lacks the written text")
	}
}

func TestWrapAndOverwrite(t *testing.T) {
	d, _ := newBuffered()
	if _, err := d.WriteString(strings.Repeat("x", 17)); err != nil {
		t.Fatal(err)
	}
	lines := d.Text()
	if lines[0] != strings.Repeat("x", 16) {
		t.Errorf("row 1 = %q", lines[0])
	}
	if lines[1] != "x               " {
		t.Errorf("row 2 = %q", lines[1])
	}

	// A narrower rewrite with a trailing space must scrub the stale digit.
	if err := d.MoveTo(2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("9 C "); err != nil {
		t.Fatal(err)
	}
	if lines = d.Text(); lines[1] != "9 C             " {
		t.Errorf("row 2 after rewrite = %q", lines[1])
	}
}

func TestClearAndBounds(t *testing.T) {
	d, _ := newBuffered()
	if _, err := d.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	for ix, line := range d.Text() {
		if strings.TrimSpace(line) != "" {
			t.Errorf("row %d not blank after Clear: %q", ix+1, line)
		}
	}
	if err := d.MoveTo(3, 1); err == nil {
		t.Error("MoveTo(3,1) expected an error on a 2 row display")
	}
	if err := d.MoveTo(1, 0); err == nil {
		t.Error("MoveTo(1,0) expected an error")
	}
}

func TestWriteCommands(t *testing.T) {
	d, _ := newBuffered()
	if _, err := d.WriteString("hello"); err != nil {
		t.Fatal(err)
	}

	// Clear display.
	n, err := d.Write([]byte{cmdByte, 0x01})
	if err != nil || n != 1 {
		t.Fatalf("Write(clear) = %d, %v", n, err)
	}
	for ix, line := range d.Text() {
		if strings.TrimSpace(line) != "" {
			t.Errorf("row %d not blank after clear command: %q", ix+1, line)
		}
	}
	if d.row != 0 || d.col != 0 {
		t.Errorf("cursor after clear = (%d,%d), expected home", d.row, d.col)
	}

	// Set DDRAM address to the start of row 2, then write data.
	if _, err = d.Write([]byte{cmdByte, 0x80 | 0x40}); err != nil {
		t.Fatal(err)
	}
	if _, err = d.WriteString("27 C "); err != nil {
		t.Fatal(err)
	}
	if lines := d.Text(); lines[1] != "27 C            " {
		t.Errorf("row 2 = %q", lines[1])
	}

	// Display off hides the cells without discarding them.
	if _, err = d.Write([]byte{cmdByte, 0x08}); err != nil {
		t.Fatal(err)
	}
	if d.on {
		t.Error("display still on after display control command")
	}
	if _, err = d.Write([]byte{cmdByte, 0x0c}); err != nil {
		t.Fatal(err)
	}
	if !d.on {
		t.Error("display still off after display control command")
	}
	if lines := d.Text(); lines[1] != "27 C            " {
		t.Errorf("row 2 lost across display off/on: %q", lines[1])
	}

	// Return home repositions without blanking.
	if _, err = d.Write([]byte{cmdByte, 0x02}); err != nil {
		t.Fatal(err)
	}
	if d.row != 0 || d.col != 0 {
		t.Errorf("cursor after home = (%d,%d), expected home", d.row, d.col)
	}
}

func TestEmptyWrite(t *testing.T) {
	d, buf := newBuffered()
	before := buf.Len()
	n, err := d.WriteString("")
	if err != nil || n != 0 {
		t.Fatalf("WriteString(\"\") = %d, %v", n, err)
	}
	if buf.Len() != before {
		t.Error("empty write redrew the screen")
	}
}
