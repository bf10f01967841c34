// cmd/zephyr/main.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// zephyr flies simulated drones through a synthetic wind field.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/nav"
	"github.com/zephyrsim/zephyr/sim"
	"github.com/zephyrsim/zephyr/util"
	"github.com/zephyrsim/zephyr/wx"
)

var (
	cpuprofile       = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile       = flag.String("memprofile", "", "write memory profile to this file")
	logLevel         = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir           = flag.String("logdir", "", "log file directory")
	scenarioFilename = flag.String("scenario", "", "filename of YAML file with a scenario definition (default: built-in scenario)")
	lintScenario     = flag.Bool("lint", false, "check the validity of the scenario and exit")
	dumpScenario     = flag.Bool("dump", false, "print the resolved scenario and exit")
	listPresets      = flag.Bool("listpresets", false, "list the built-in wind presets")
	presetName       = flag.String("preset", "", "wind preset to apply after the scenario's presets")
	seed             = flag.Uint64("seed", 0, "random seed (overrides the scenario's seed if non-zero)")
	recordFilename   = flag.String("record", "", "write a flight recording to this file")
	summarize        = flag.String("summarize", "", "print a summary of the given flight recording and exit")
	batchRuns        = flag.Int("batch", 0, "run the scenario this many times with successive seeds, in parallel")
	quiet            = flag.Bool("quiet", false, "do not print mission events as they happen")
	navLog           = flag.Bool("navlog", false, "enable navigation logging (navlog builds only)")
	navLogCategories = flag.String("navlog-categories", "all", "navigation log categories (comma-separated: state,control,wind,host)")
	navLogVehicle    = flag.String("navlog-vehicle", "", "filter navigation logs to only show this vehicle (empty = show all)")
)

func main() {
	flag.Parse()

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	nav.InitNavLog(*navLog, *navLogCategories, *navLogVehicle)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, lg); err != nil {
		lg.Error("exiting with error", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "%v\n", err)
		profiler.Cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *log.Logger) error {
	if *listPresets {
		presets := wx.DefaultPresets()
		for _, name := range wx.PresetNames() {
			p := presets[name]
			fmt.Printf("%-10s speed %5.1f m/s  turbulence %.2f  gusts %.1f Hz / %.1f m/s / %.1f s\n", name,
				p.MeanSpeed, p.TurbulenceIntensity, p.Gust.Frequency, p.Gust.Amplitude, p.Gust.Duration)
		}
		return nil
	}

	if *summarize != "" {
		return summarizeRecording(*summarize)
	}

	scenario, err := loadScenario()
	if err != nil {
		return err
	}

	if *lintScenario {
		fmt.Printf("%s: ok\n", util.Select(*scenarioFilename != "", *scenarioFilename, "built-in scenario"))
		return nil
	}
	if *dumpScenario {
		godump.Dump(scenario)
		return nil
	}

	if *batchRuns > 0 {
		return runBatch(ctx, scenario, *batchRuns, lg)
	}
	return runSingle(ctx, scenario, lg)
}

func loadScenario() (*sim.Scenario, error) {
	var s *sim.Scenario
	if *scenarioFilename != "" {
		var err error
		if s, err = sim.LoadScenario(*scenarioFilename); err != nil {
			return nil, fmt.Errorf("%s: %w", *scenarioFilename, err)
		}
	} else {
		s = sim.DefaultScenario()
	}

	if *seed != 0 {
		s.Seed = *seed
	}
	if *presetName != "" {
		s.Presets = append(s.Presets, *presetName)
	}
	return s, s.Validate()
}

func runSingle(ctx context.Context, scenario *sim.Scenario, lg *log.Logger) error {
	events := sim.NewEventStream(lg)
	opts := sim.MissionOptions{Events: events}

	if *recordFilename != "" {
		f, err := os.Create(*recordFilename)
		if err != nil {
			return err
		}
		defer f.Close()

		var vehicles []string
		for _, v := range scenario.Vehicles {
			vehicles = append(vehicles, v.Name)
		}
		rec, err := sim.NewRecorder(f, sim.RecordingHeader{
			Scenario: scenario.Name,
			Seed:     scenario.Seed,
			Dt:       scenario.Dt,
			Vehicles: vehicles,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				lg.Error("unable to finish recording", slog.Any("error", err))
			}
		}()
		opts.Recorder = rec
		lg.Info("recording", slog.String("file", *recordFilename), slog.String("run_id", rec.Header.RunID))
	}

	r, err := scenario.Build(nil, opts, lg)
	if err != nil {
		return err
	}

	sub := events.Subscribe()
	defer sub.Unsubscribe()

	eg, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var results []sim.MissionResult
	eg.Go(func() error {
		defer close(done)
		var err error
		results, err = r.Fleet.Run(ctx)
		return err
	})
	eg.Go(func() error {
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				printEvents(sub.Get())
				return nil
			case <-tick.C:
				printEvents(sub.Get())
			}
		}
	})
	err = eg.Wait()

	for _, res := range results {
		printResult(res)
	}
	return err
}

func printEvents(events []sim.Event) {
	if *quiet {
		return
	}
	for _, ev := range events {
		if ev.Type != sim.StatusEvent {
			fmt.Println(ev.String())
		}
	}
}

func printResult(r sim.MissionResult) {
	status := util.Select(r.Completed, "complete", "INCOMPLETE")
	fmt.Printf("%-12s %-10s waypoints %d/%d  time %7.2fs  path %7.2fm  max speed %5.2f m/s  max wind %5.2f m/s\n",
		r.Vehicle, status, r.WaypointsReached, r.Waypoints, r.Time, r.PathLength, r.MaxSpeed, r.MaxWind)
}

func runBatch(ctx context.Context, scenario *sim.Scenario, n int, lg *log.Logger) error {
	results := make([][]sim.MissionResult, n)
	errs := make([]error, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i := range n {
		eg.Go(func() error {
			s := scenario.Clone()
			s.Seed = scenario.Seed + uint64(i)

			r, err := s.Build(nil, sim.MissionOptions{}, lg.With(slog.Int("run", i)))
			if err != nil {
				return err
			}
			results[i], errs[i] = r.Fleet.Run(ctx)
			if errors.Is(errs[i], context.Canceled) {
				return errs[i]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := 0
	for i := range n {
		fmt.Printf("seed %d\n", scenario.Seed+uint64(i))
		for _, res := range results[i] {
			printResult(res)
		}
		if errs[i] != nil {
			failed++
			fmt.Printf("  %v\n", errs[i])
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs did not complete", failed, n)
	}
	return nil
}

func summarizeRecording(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr, frames, err := sim.ReadRecording(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	s := sim.Summarize(hdr, frames)
	fmt.Printf("run %s scenario %q seed %d recorded %s\n", s.RunID, s.Scenario, hdr.Seed,
		hdr.Created.Format(time.RFC3339))
	fmt.Println(strings.Repeat("-", 78))
	for _, v := range s.Vehicles {
		fmt.Printf("%-12s frames %6d  time %7.2fs  path %7.2fm  waypoints %d  max speed %5.2f  wind max %5.2f mean %5.2f\n",
			v.Vehicle, v.Frames, v.Duration, v.PathLength, v.WaypointsReached, v.MaxSpeed, v.MaxWind, v.MeanWind)
	}
	return nil
}
