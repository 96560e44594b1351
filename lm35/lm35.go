// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lm35 reads a Texas Instruments LM35 analog temperature sensor
// through a 12 bit analog to digital converter exposed as an
// analog.PinADC.
//
// The LM35 outputs 10mV per °C. With the converter referenced at 5V the
// full 12 bit code space [0,4095] spans 0°C to 500°C; the sensor itself
// only reaches 150°C, the upper codes are headroom.
//
// The lm35.Dev type implements the physic.SenseEnv interface. Only the
// Temperature field of physic.Env is set.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/lm35.pdf
package lm35

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

const (
	maxCode             = 4095 // 12 bit converter
	referenceMillivolts = 5000 // full-scale reference
	millivoltsPerDegree = 10   // LM35 transfer function
)

// ReadError reports a failed or timed out conversion on the underlying
// converter.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("lm35: reading converter: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Dev represents an LM35 attached to one converter channel.
type Dev struct {
	pin analog.PinADC

	mu   sync.Mutex
	stop chan struct{}
}

// New returns a sensor that samples pin. The pin must be configured for
// single ended conversion against the 5V reference.
func New(pin analog.PinADC) (*Dev, error) {
	return &Dev{pin: pin}, nil
}

// ReadCode triggers one conversion and returns the raw 12 bit code,
// clamped to [0,4095].
func (d *Dev) ReadCode() (uint16, error) {
	sample, err := d.pin.Read()
	if err != nil {
		return 0, &ReadError{Err: err}
	}
	raw := sample.Raw
	if raw < 0 {
		raw = 0
	}
	if raw > maxCode {
		raw = maxCode
	}
	return uint16(raw), nil
}

// Celsius converts a raw converter code to whole degrees Celsius. The
// fractional part is truncated, not rounded; one code step is ~0.12°C so
// the loss is below the sensor's own accuracy.
func Celsius(code uint16) int {
	if code > maxCode {
		code = maxCode
	}
	return int(float64(code) / maxCode * referenceMillivolts / millivoltsPerDegree)
}

// Sense implements physic.SenseEnv. It performs one conversion and sets
// the temperature from the exact, non-truncated scaling.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	code, err := d.ReadCode()
	if err != nil {
		return err
	}
	mV := float64(code) / maxCode * referenceMillivolts
	e.Temperature = physic.Temperature(mV/millivoltsPerDegree*float64(physic.Kelvin)) + physic.ZeroCelsius
	return nil
}

// SenseContinuous implements physic.SenseEnv. It returns a channel that
// receives a measurement every interval. It is the caller's responsibility
// to call Halt() when done.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, fmt.Errorf("lm35: already sensing continuously")
	}
	stop := make(chan struct{})
	d.stop = stop

	sensing := make(chan physic.Env)
	go func() {
		defer close(sensing)
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval):
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case sensing <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return sensing, nil
}

// Precision implements physic.SenseEnv. It reports one converter code
// step.
func (d *Dev) Precision(e *physic.Env) {
	step := float64(physic.Kelvin) * referenceMillivolts / maxCode / millivoltsPerDegree
	e.Temperature = physic.Temperature(step)
	e.Pressure = 0
	e.Humidity = 0
}

// Halt stops a SenseContinuous reader if one is running. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("lm35: %s", d.pin.Name())
}

var _ physic.SenseEnv = &Dev{}
var _ conn.Resource = &Dev{}
