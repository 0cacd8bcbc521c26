package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const inFlag = "in"

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render a prior `bench run`'s results as a plain-text table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: inFlag, Value: "bench-results.json", Usage: "Results file written by `bench run`"},
			&cli.StringFlag{Name: outFlag, Value: "bench-results.txt", Usage: "Where to write the rendered table"},
		},
		Action: exportAction,
	}
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	results, err := loadResults(cmd.String(inFlag))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, g := range results.Groups {
		fmt.Fprintf(&buf, "# %s (run %s, %d iters)\n", g.Engine, results.RunID, results.Iters)

		tw := tablewriter.NewWriter(&buf)
		tw.SetHeader([]string{"benchmark", "avg", "min", "p75", "p99", "max"})
		for _, r := range g.Rows {
			tw.Append([]string{
				r.Label,
				r.Avg.String(),
				r.Min.String(),
				r.P75.String(),
				r.P99.String(),
				r.Max.String(),
			})
		}
		tw.Render()
		buf.WriteString("\n")
	}

	out := cmd.String(outFlag)
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	log.Printf("wrote %s (%s)", out, humanize.Bytes(uint64(buf.Len())))
	return nil
}

func loadResults(path string) (Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Results{}, fmt.Errorf("read results: %w", err)
	}
	var results Results
	if err := json.Unmarshal(data, &results); err != nil {
		return Results{}, fmt.Errorf("parse results: %w", err)
	}
	return results, nil
}
