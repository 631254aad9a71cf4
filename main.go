package main

import (
	"log/slog"
	"os"

	"knitchart/chart"
	"knitchart/parallel"

	"github.com/alecthomas/kong"
)

var cli struct {
	Workers int          `help:"Number of worker goroutines, 0 for one per CPU" default:"0"`
	Chart   chart.CLICmd `cmd:"" help:"Convert every image in a folder into a knitting chart"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("knitchart"),
		kong.Description("Converts raster images into small-palette, pixel-block knitting charts."),
	)

	pool := parallel.Start(cli.Workers)
	if err := kctx.Run(pool.Do, pool.Wait); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
