// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command lm35lcd samples an LM35 temperature sensor on an ADS1015
// channel and shows whole degrees Celsius on an LCD1602 I²C backpack,
// refreshed once per interval.
//
// With -sim it runs entirely without hardware, rendering the display to
// the terminal and replaying a synthetic temperature ramp.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/terr1fY/LCD1602-and-LM35-on-S32K144/lcd1602"
	"github.com/terr1fY/LCD1602-and-LM35-on-S32K144/lm35"
	"github.com/terr1fY/LCD1602-and-LM35-on-S32K144/screen1602"
	"github.com/terr1fY/LCD1602-and-LM35-on-S32K144/thermometer"
)

// rampPin is a hardware-free analog.PinADC producing a slow sawtooth
// through the plausible LM35 code range, for -sim runs.
type rampPin struct {
	code int32
}

func (p *rampPin) Read() (analog.Sample, error) {
	p.code += 8
	if p.code > 1228 { // ~150°C, the sensor's ceiling
		p.code = 0
	}
	return analog.Sample{Raw: p.code}, nil
}

func (p *rampPin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: 4095}
}

func (p *rampPin) Name() string { return "RAMP0" }
func (p *rampPin) Number() int { return 0 }
func (p *rampPin) Function() string { return "ADC" }
func (p *rampPin) String() string { return p.Name() }
func (p *rampPin) Halt() error { return nil }

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use (\"\" for the first available)")
	lcdAddr := flag.Uint("lcd", uint(lcd1602.DefaultAddress), "I²C address of the PCF8574 backpack")
	interval := flag.Duration("interval", time.Second, "time between samples")
	sim := flag.Bool("sim", false, "no hardware: terminal display and synthetic sensor")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Arg(0))
	}

	var lcd display.TextDisplay
	var pin analog.PinADC
	if *sim {
		lcd = screen1602.New(&screen1602.Opts{Rows: 2, Cols: 16})
		pin = &rampPin{}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		bus, err := i2creg.Open(*busName)
		if err != nil {
			return err
		}
		defer bus.Close()

		lcd, err = lcd1602.New(bus, uint16(*lcdAddr), 2, 16)
		if err != nil {
			return err
		}
		adc, err := ads1x15.NewADS1015(bus, &ads1x15.DefaultOpts)
		if err != nil {
			return err
		}
		pin, err = adc.PinForChannel(ads1x15.Channel0, 5*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
		if err != nil {
			return err
		}
		defer func() { _ = pin.Halt() }()
	}

	sensor, err := lm35.New(pin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t := thermometer.New(lcd, sensor, &thermometer.Opts{
		Interval: *interval,
		Logger:   log.Default(),
	})
	err = t.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if s := t.Stats(); s.SensorFailures != 0 || s.DisplayFailures != 0 {
		log.Printf("failed cycles: sensor=%d display=%d", s.SensorFailures, s.DisplayFailures)
	}
	_ = lcd.(conn.Resource).Halt()
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		log.Fatalf("lm35lcd: %v", err)
	}
}
