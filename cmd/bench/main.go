package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "bench",
		Usage: "Benchmark the reactive core against its alien/reactively baselines",
		Commands: []*cli.Command{
			runCommand(),
			exportCommand(),
			reportCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
