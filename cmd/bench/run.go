package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/urfave/cli/v3"
)

const (
	itersFlag   = "iters"
	profileFlag = "profile"
	outFlag     = "out"
	engineFlag  = "engine"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Sweep the propagate benchmark across one or more engines",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: itersFlag, Value: 100, Usage: "Samples per (width, height) cell"},
			&cli.BoolFlag{Name: profileFlag, Value: false, Usage: "Write a default.pgo CPU profile"},
			&cli.StringFlag{Name: outFlag, Value: "bench-results.json", Usage: "Where to write the results for export/report"},
			&cli.StringSliceFlag{Name: engineFlag, Value: []string{"corereactive", "alien", "reactively"}, Usage: "Engines to run"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool(profileFlag) {
		f, err := os.Create("default.pgo")
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Int(itersFlag))
	log.Printf("reactivegraph bench: warming up, %d samples per cell", iters)

	engines := map[string]func(int, bool) Group{
		"corereactive": benchmarkCorereactive,
		"alien":        benchmarkAlien,
		"reactively":   benchmarkReactively,
	}

	results := Results{RunID: runID(), Iters: iters}
	for _, name := range cmd.StringSlice(engineFlag) {
		fn, ok := engines[name]
		if !ok {
			return fmt.Errorf("unknown engine %q", name)
		}
		results.Groups = append(results.Groups, fn(iters, true))
	}

	out := cmd.String(outFlag)
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	log.Printf("wrote %s (run %s)", out, results.RunID)
	return nil
}

// runID derives a short label for this run's results file by hashing the
// process id and the time the run started (the hash just needs to be a
// label, not a timestamp).
func runID() string {
	sum := xxhash.Sum64String(fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano()))
	return fmt.Sprintf("run-%06x", sum&0xffffff)
}
