// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermometer drives the measure, format, display cycle of a
// temperature readout: an LM35 sampled once per interval, formatted in
// whole degrees Celsius, written to the second line of a text display.
//
// The hardware has no feedback channel, so the loop never aborts on a
// transport or conversion failure. Failures are counted, optionally
// logged, and the next scheduled sample proceeds.
package thermometer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/display"

	"github.com/terr1fY/LCD1602-and-LM35-on-S32K144/lm35"
)

// banner is written once at startup. Rewriting only the second line keeps
// the display from flickering.
const banner = "Temperature:"

// Opts holds the configuration options for the loop.
type Opts struct {
	// Interval is the time between samples. Defaults to one second.
	Interval time.Duration
	// Logger receives one line per failed cycle. nil silences them; the
	// counters still advance.
	Logger *log.Logger
}

// Stats reports how many cycles failed since the loop started.
type Stats struct {
	SensorFailures  uint64
	DisplayFailures uint64
}

// Thermometer owns one display and one sensor. Run drives them until the
// context is cancelled.
type Thermometer struct {
	lcd      display.TextDisplay
	sensor   *lm35.Dev
	interval time.Duration
	logger   *log.Logger

	sensorFailures  atomic.Uint64
	displayFailures atomic.Uint64
}

// New returns a loop over lcd and sensor. opts may be nil for defaults.
func New(lcd display.TextDisplay, sensor *lm35.Dev, opts *Opts) *Thermometer {
	t := &Thermometer{
		lcd:      lcd,
		sensor:   sensor,
		interval: time.Second,
	}
	if opts != nil {
		if opts.Interval > 0 {
			t.interval = opts.Interval
		}
		t.logger = opts.Logger
	}
	return t
}

// FormatCelsius renders a temperature for the display. The trailing space
// overwrites the stale last digit of a previous, wider reading.
func FormatCelsius(tempC int) string {
	return fmt.Sprintf("%d C ", tempC)
}

// Run writes the static banner, then samples and refreshes the readout
// every interval until ctx is cancelled. Only a failure to write the
// banner is fatal; per-cycle failures are counted and the loop keeps its
// schedule.
func (t *Thermometer) Run(ctx context.Context) error {
	if err := t.lcd.Clear(); err != nil {
		return fmt.Errorf("thermometer: %w", err)
	}
	if err := t.lcd.MoveTo(t.lcd.MinRow(), t.lcd.MinCol()); err != nil {
		return fmt.Errorf("thermometer: %w", err)
	}
	if _, err := t.lcd.WriteString(banner); err != nil {
		return fmt.Errorf("thermometer: %w", err)
	}
	for {
		t.cycle()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.interval):
		}
	}
}

// cycle performs one measurement and one readout refresh. A failed read
// leaves the previous value on the display; a failed write is retried
// naturally by the next cycle.
func (t *Thermometer) cycle() {
	code, err := t.sensor.ReadCode()
	if err != nil {
		t.sensorFailures.Add(1)
		t.logf("thermometer: sensor: %v", err)
		return
	}
	row := 2
	if t.lcd.Rows() < 2 {
		row = t.lcd.MinRow()
	}
	if err := t.lcd.MoveTo(row, t.lcd.MinCol()); err != nil {
		t.displayFailures.Add(1)
		t.logf("thermometer: display: %v", err)
		return
	}
	if _, err := t.lcd.WriteString(FormatCelsius(lm35.Celsius(code))); err != nil {
		t.displayFailures.Add(1)
		t.logf("thermometer: display: %v", err)
	}
}

// Stats returns the failure counters. Safe to call while Run is active.
func (t *Thermometer) Stats() Stats {
	return Stats{
		SensorFailures:  t.sensorFailures.Load(),
		DisplayFailures: t.displayFailures.Load(),
	}
}

func (t *Thermometer) logf(format string, v ...any) {
	if t.logger != nil {
		t.logger.Printf(format, v...)
	}
}
