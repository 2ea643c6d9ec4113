// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/uradlab/urad-ingester/lib/config"
	"github.com/uradlab/urad-ingester/lib/lifecycle"
)

func isWindowsService() (bool, error) {
	return svc.IsWindowsService()
}

// runService hands the process to the service control manager and
// returns once the service has stopped.
func runService(cfg *config.Config, logger *slog.Logger) error {
	handler := &serviceHandler{
		logger: logger,
		run: func(ctx context.Context, reporter lifecycle.StatusReporter) error {
			return collect(ctx, cfg, logger, reporter)
		},
	}
	if err := svc.Run(serviceName, handler); err != nil {
		return fmt.Errorf("running as service %s: %w", serviceName, err)
	}
	return handler.err
}

// serviceHandler translates service control requests into cancellation
// of the collector's context.
type serviceHandler struct {
	logger *slog.Logger
	run    func(context.Context, lifecycle.StatusReporter) error

	// err is the collector's result, read after svc.Run returns.
	err error
}

// Execute implements svc.Handler.
func (h *serviceHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	reporter := newStatusReporter(changes)
	reporter.Report(lifecycle.StartPending)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.run(ctx, reporter)
	}()

	for {
		select {
		case request := <-requests:
			switch request.Cmd {
			case svc.Interrogate:
				changes <- reporter.current()
			case svc.Stop, svc.Shutdown:
				h.logger.Info("service stop requested", "control", controlName(request.Cmd))
				reporter.Report(lifecycle.StopPending)
				cancel()
			default:
				// The Accepts mask reported with Running is what tells the
				// service manager other controls are not implemented; it
				// should never deliver them.
				h.logger.Warn("ignoring unsupported service control", "control", uint32(request.Cmd))
			}
		case err := <-done:
			h.err = err
			if err != nil {
				h.logger.Error("collector failed", "error", err)
				return false, 1
			}
			return false, 0
		}
	}
}

func controlName(cmd svc.Cmd) string {
	if cmd == svc.Shutdown {
		return "shutdown"
	}
	return "stop"
}

// statusReporter maps lifecycle states onto service status updates.
// The final Stopped state is left to svc.Run, which reports it with
// the exit code when Execute returns.
type statusReporter struct {
	changes chan<- svc.Status

	mu     sync.Mutex
	status svc.Status
}

func newStatusReporter(changes chan<- svc.Status) *statusReporter {
	return &statusReporter{changes: changes}
}

func (r *statusReporter) Report(state lifecycle.State) error {
	var status svc.Status
	switch state {
	case lifecycle.StartPending:
		status = svc.Status{State: svc.StartPending, WaitHint: 10000}
	case lifecycle.Running:
		status = svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}
	case lifecycle.StopPending:
		status = svc.Status{State: svc.StopPending, WaitHint: 15000}
	case lifecycle.Stopped:
		return nil
	default:
		return fmt.Errorf("unknown lifecycle state %s", state)
	}

	r.mu.Lock()
	// StopPending may be reported twice: once by the control handler
	// and once by the coordinator.
	if r.status.State == status.State {
		r.mu.Unlock()
		return nil
	}
	if status.State == svc.StopPending || status.State == svc.StartPending {
		status.CheckPoint = r.status.CheckPoint + 1
	}
	r.status = status
	r.mu.Unlock()

	r.changes <- status
	return nil
}

func (r *statusReporter) current() svc.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// installService registers the running executable with the service
// manager, storing the explicitly given flags as start arguments.
func installService(opts *options) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	if opts.configPath != "" {
		absolute, err := filepath.Abs(opts.configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		if err := opts.flags.Set("config", absolute); err != nil {
			return err
		}
	}

	manager, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service manager: %w", err)
	}
	defer manager.Disconnect()

	if existing, err := manager.OpenService(serviceName); err == nil {
		existing.Close()
		return fmt.Errorf("service %s already exists", serviceName)
	}

	service, err := manager.CreateService(serviceName, executable, mgr.Config{
		DisplayName: "uRAD Ingester",
		Description: "Polls a uRAD air-quality sensor and serves its reading history over HTTP.",
		StartType:   mgr.StartAutomatic,
	}, opts.serviceArgs()...)
	if err != nil {
		return fmt.Errorf("creating service %s: %w", serviceName, err)
	}
	defer service.Close()

	recovery := []mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
		{Type: mgr.NoAction},
	}
	if err := service.SetRecoveryActions(recovery, uint32((24 * time.Hour).Seconds())); err != nil {
		return fmt.Errorf("setting recovery actions: %w", err)
	}

	fmt.Fprintf(os.Stdout, "installed service %s (%s)\n", serviceName, executable)
	return nil
}

// removeService unregisters the service. A running instance keeps
// running until stopped.
func removeService() error {
	manager, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service manager: %w", err)
	}
	defer manager.Disconnect()

	service, err := manager.OpenService(serviceName)
	if err != nil {
		return fmt.Errorf("service %s is not installed: %w", serviceName, err)
	}
	defer service.Close()

	if err := service.Delete(); err != nil {
		return fmt.Errorf("removing service %s: %w", serviceName, err)
	}
	fmt.Fprintf(os.Stdout, "removed service %s\n", serviceName)
	return nil
}
