// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Urad-device-mock stands in for a uRAD sensor on the bench. It serves
// GET /j with the device's JSON envelope, each reading drifting a
// little from the last, so the ingester can be run without hardware.
//
// --fail-every N answers every Nth request with 500 to exercise the
// ingester's skip path. --delay holds every response to exercise the
// fetch timeout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"

	"github.com/uradlab/urad-ingester/lib/process"
	"github.com/uradlab/urad-ingester/lib/reading"
	"github.com/uradlab/urad-ingester/lib/service"
	"github.com/uradlab/urad-ingester/lib/version"
)

const binaryName = "urad-device-mock"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		listen      string
		failEvery   int
		delay       time.Duration
		seed        uint64
		showVersion bool
	)
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8080", "address to serve the device endpoint on")
	flagSet.IntVar(&failEvery, "fail-every", 0, "answer every Nth request with 500 (0 never fails)")
	flagSet.DurationVar(&delay, "delay", 0, "hold each response this long before answering")
	flagSet.Uint64Var(&seed, "seed", 1, "random seed for the synthetic readings")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, binaryName)
		return nil
	}
	if failEvery < 0 {
		return fmt.Errorf("--fail-every must not be negative, got %d", failEvery)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: listen,
		Handler: newDevice(deviceConfig{
			FailEvery: failEvery,
			Delay:     delay,
			Seed:      seed,
			Logger:    logger,
		}),
		Logger: logger,
	})
	if err := server.Listen(); err != nil {
		return err
	}
	logger.Info("mock device ready",
		"url", "http://"+server.Addr().String()+"/j",
		"fail_every", failEvery,
		"delay", delay,
	)
	return server.Serve(ctx)
}

type deviceConfig struct {
	FailEvery int
	Delay     time.Duration
	Seed      uint64
	Logger    *slog.Logger
}

// device produces a random walk of plausible indoor readings.
type device struct {
	config  deviceConfig
	started time.Time

	mu       sync.Mutex
	random   *rand.Rand
	current  reading.Reading
	requests int
}

func newDevice(config deviceConfig) http.Handler {
	d := &device{
		config:  config,
		started: time.Now(),
		random:  rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
		current: reading.Reading{
			Temperature: 21.5,
			Humidity:    45,
			VOC:         120,
			CO2:         450,
			CH2O:        4,
			O3:          0.02,
			PM1:         3,
			PM25:        5,
			PM10:        8,
			Noise:       38,
		},
	}
	router := mux.NewRouter()
	router.HandleFunc("/j", d.serveReading).Methods(http.MethodGet)
	return router
}

// envelope is the device's response shape, including fields the
// ingester ignores.
type envelope struct {
	Data deviceData `json:"data"`
}

type deviceData struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Uptime int64  `json:"uptime"`
	reading.Reading
}

func (d *device) serveReading(writer http.ResponseWriter, request *http.Request) {
	if d.config.Delay > 0 {
		select {
		case <-time.After(d.config.Delay):
		case <-request.Context().Done():
			return
		}
	}

	d.mu.Lock()
	d.requests++
	failing := d.config.FailEvery > 0 && d.requests%d.config.FailEvery == 0
	var current reading.Reading
	if !failing {
		d.step()
		current = d.current
	}
	count := d.requests
	d.mu.Unlock()

	if failing {
		d.config.Logger.Info("failing request on purpose", "request", count)
		http.Error(writer, "sensor busy", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(envelope{Data: deviceData{
		ID:      "82000141",
		Type:    "8",
		Uptime:  int64(time.Since(d.started).Seconds()),
		Reading: current,
	}})
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.Write(body)
}

// step moves every value a small random amount, clamped to a sane
// range. Callers hold mu.
func (d *device) step() {
	walk := func(value, spread, low, high float64) float64 {
		value += (d.random.Float64()*2 - 1) * spread
		return min(max(value, low), high)
	}
	c := &d.current
	c.Temperature = round(walk(c.Temperature, 0.1, 15, 30), 2)
	c.Humidity = round(walk(c.Humidity, 0.5, 20, 80), 2)
	c.VOC = int32(walk(float64(c.VOC), 5, 0, 500))
	c.CO2 = int32(walk(float64(c.CO2), 10, 400, 2000))
	c.CH2O = int32(walk(float64(c.CH2O), 1, 0, 50))
	c.O3 = round(walk(c.O3, 0.005, 0, 0.2), 3)
	c.PM1 = round(walk(c.PM1, 0.5, 0, 100), 1)
	c.PM25 = round(walk(c.PM25, 0.5, 0, 150), 1)
	c.PM10 = round(walk(c.PM10, 0.8, 0, 200), 1)
	c.Noise = round(walk(c.Noise, 1, 25, 90), 1)
}

func round(value float64, places int) float64 {
	scale := 1.0
	for range places {
		scale *= 10
	}
	return float64(int64(value*scale+0.5)) / scale
}
