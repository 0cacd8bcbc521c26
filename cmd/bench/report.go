package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render a prior `bench run`'s results as an HTML report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: inFlag, Value: "bench-results.json", Usage: "Results file written by `bench run`"},
			&cli.StringFlag{Name: outFlag, Value: "bench-report.html", Usage: "Where to write the rendered report"},
		},
		Action: reportAction,
	}
}

func reportAction(ctx context.Context, cmd *cli.Command) error {
	results, err := loadResults(cmd.String(inFlag))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, results); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	out := cmd.String(outFlag)
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("wrote %s (%s)", out, humanize.Bytes(uint64(buf.Len())))
	return nil
}
