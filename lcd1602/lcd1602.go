// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd1602 controls HD44780 compatible character LCD modules wired
// to a PCF8574 I²C backpack, the combination commonly sold as LCD1602 or
// LCD2004.
//
// The backpack gives the host no access to the controller's busy flag, so
// the driver is open loop: every transfer is a fixed 4 bit nibble sequence
// and correctness depends on the datasheet minimum delays honored during
// initialization and after the slow commands.
//
// Implements periph.io/x/conn/display.TextDisplay
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// Backpack wiring:
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
package lcd1602

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the factory address of most PCF8574 backpacks.
	// Modules built around the PCF8574A answer at 0x3f.
	DefaultAddress uint16 = 0x27

	packageName = "lcd1602"

	// cmdByte in the first position of a Write marks the remaining bytes
	// as controller commands instead of display data.
	cmdByte byte = 0xfe
)

// HD44780 instruction set.
const (
	cmdClearDisplay   byte = 0x01
	cmdReturnHome     byte = 0x02
	cmdEntryModeSet   byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdCursorShift    byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetDDRAMAddr   byte = 0x80
)

// PCF8574 port bit assignment on these backpacks. The data nibble sits in
// the high 4 bits, the control lines in the low 4.
const (
	bitRS        byte = 0x01
	bitRW        byte = 0x02
	bitEnable    byte = 0x04
	bitBacklight byte = 0x08
)

const (
	// Clear and home shuffle the whole DDRAM and need 1.52ms on a real
	// controller. Everything else settles within one I²C frame time.
	delaySlowCommand = 2 * time.Millisecond
)

var (
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

	rowConstants = [][]byte{{0, 0, 64}, {0, 0, 64, 20, 84}}
)

// Dev is an open connection to one LCD module. All methods serialize on an
// internal mutex; the nibble sequence is not atomic at the controller and a
// second interleaved sender would corrupt its state with no visible symptom.
type Dev struct {
	rows int
	cols int

	mu        sync.Mutex
	d         *i2c.Dev
	backlight bool
	on        bool
	cursor    bool
	blink     bool
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// frameByte builds one PCF8574 port byte from an already aligned data
// nibble and the three control lines. Keeping the composition in one place
// makes the timing critical encoding auditable without hardware.
func frameByte(nibble byte, rs, backlight, enable bool) byte {
	b := nibble & 0xf0
	if rs {
		b |= bitRS
	}
	if backlight {
		b |= bitBacklight
	}
	if enable {
		b |= bitEnable
	}
	return b
}

// Return the row offset value
func getRowConstant(row, maxcols int) byte {
	var offset int
	if maxcols != 16 {
		offset = 1
	}
	return rowConstants[offset][row]
}

// New opens the display at address on bus and runs the 4 bit mode
// initialization handshake. rows and cols describe the panel geometry,
// 2 and 16 for the ubiquitous 1602 module.
func New(bus i2c.Bus, address uint16, rows, cols int) (*Dev, error) {
	if rows < 1 || cols < 1 || rows > 4 || (cols == 16 && rows > 2) {
		return nil, fmt.Errorf("%s: unsupported geometry %d cols x %d rows", packageName, cols, rows)
	}
	dev := &Dev{
		d:         &i2c.Dev{Bus: bus, Addr: address},
		rows:      rows,
		cols:      cols,
		backlight: true,
		on:        true,
	}
	if err := dev.init(); err != nil {
		return nil, wrap(err)
	}
	return dev, nil
}

// init performs the power-on handshake from the HD44780 datasheet. The
// backpack never reads the busy flag, so the ordering and the minimum
// delays are the only thing standing between this driver and a garbled
// display.
func (dev *Dev) init() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	// Power-on stabilization. Controllers are unreliable before Vcc has
	// been stable for ~40ms, and there is no way to ask.
	time.Sleep(50 * time.Millisecond)

	// The controller may wake in 8 bit mode, in 4 bit mode, or halfway
	// through a 4 bit transfer. Three function-set frames force it back
	// to a known 8 bit state before the switch to the 4 bit interface.
	if err := dev.sendByte(0x30, false); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := dev.sendByte(0x30, false); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	if err := dev.sendByte(0x30, false); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	if err := dev.sendByte(0x20, false); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)

	lineMode := cmdFunctionSet // 4 bit bus, 5x8 font
	if dev.rows > 1 {
		lineMode |= 0x08
	}
	return dev.command(
		lineMode,
		cmdDisplayControl|0x04, // display on, cursor off, blink off
		cmdClearDisplay,
		cmdEntryModeSet|0x02, // auto increment, no shift
		cmdReturnHome,
	)
}

// sendByte splits b into two nibbles and clocks each into the controller
// with an Enable strobe. The four port states go out as one I²C write so
// a strobe pair can never be split across bus transactions.
func (dev *Dev) sendByte(b byte, rs bool) error {
	hi := b & 0xf0
	lo := (b << 4) & 0xf0
	frame := [4]byte{
		frameByte(hi, rs, dev.backlight, true),
		frameByte(hi, rs, dev.backlight, false),
		frameByte(lo, rs, dev.backlight, true),
		frameByte(lo, rs, dev.backlight, false),
	}
	return dev.d.Tx(frame[:], nil)
}

// command sends instruction bytes, pausing after the ones the controller
// executes slowly. Callers hold dev.mu.
func (dev *Dev) command(cmds ...byte) error {
	for _, c := range cmds {
		if err := dev.sendByte(c, false); err != nil {
			return err
		}
		if c == cmdClearDisplay || c == cmdReturnHome {
			time.Sleep(delaySlowCommand)
		}
	}
	return nil
}

// Write sends bytes to the display. A leading cmdByte marks the remainder
// of p as controller commands; anything else is written as character data
// in order, with no terminator.
func (dev *Dev) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if p[0] == cmdByte {
		if err = dev.command(p[1:]...); err != nil {
			return 0, wrap(err)
		}
		return len(p) - 1, nil
	}
	for _, b := range p {
		if err = dev.sendByte(b, true); err != nil {
			return n, wrap(err)
		}
		n++
	}
	return n, nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Not supported by this device. Returns display.ErrNotImplemented
func (dev *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Clears the screen and moves the cursor to the first position.
func (dev *Dev) Clear() error {
	_, err := dev.Write([]byte{cmdByte, cmdClearDisplay})
	return err
}

// Return the number of columns the display supports
func (dev *Dev) Cols() int {
	return dev.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var val = cmdDisplayControl
	if dev.on {
		val |= 0x04
	}
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			dev.blink = false
			dev.cursor = false
		case display.CursorBlink:
			dev.blink = true
			dev.cursor = true
			val |= 0x01
		case display.CursorUnderline:
			dev.cursor = true
			dev.blink = true
			val |= 0x02
		case display.CursorBlock:
			dev.cursor = true
			dev.blink = true
			val |= 0x01
		default:
			return fmt.Errorf("%s: unexpected cursor: %d", packageName, mode)
		}
	}
	return wrap(dev.command(val))
}

// Turn the display on / off
func (dev *Dev) Display(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.on = on
	val := cmdDisplayControl
	if on {
		val |= 0x04
	}
	if dev.blink {
		val |= 0x01
	}
	if dev.cursor {
		val |= 0x02
	}
	return wrap(dev.command(val))
}

// Move the cursor home (MinRow(),MinCol())
func (dev *Dev) Home() error {
	_, err := dev.Write([]byte{cmdByte, cmdReturnHome})
	return err
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) (err error) {
	val := cmdCursorShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= 0x04
	case display.Down, display.Up:
		fallthrough
	default:
		return ErrNotImplemented
	}
	_, err = dev.Write([]byte{cmdByte, val})
	return
}

// Move the cursor to arbitrary position.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	cmd := cmdSetDDRAMAddr | (getRowConstant(row, dev.cols) + byte(col-1))
	_, err := dev.Write([]byte{cmdByte, cmd})
	return err
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s: PCF8574_%02x Rows: %d Cols: %d", packageName, dev.d.Addr, dev.rows, dev.cols)
}

// Turn the display's backlight on or off. The backlight line is driven by
// the backpack directly, so this refreshes the port without strobing
// Enable.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.backlight = intensity > 0
	return wrap(dev.d.Tx([]byte{frameByte(0, false, dev.backlight, false)}, nil))
}

// Halt clears the display, turns the display off, and turns the backlight
// off.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Display(false)
	return dev.Backlight(0)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
