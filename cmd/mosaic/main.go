package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/b1naryth1ef/mosaic"
	"github.com/b1naryth1ef/mosaic/build"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	app := &cli.App{
		Name:        "mosaic",
		Description: "incremental minecraft region tile renderer",
		Commands: []*cli.Command{
			{
				Name:    "render",
				Aliases: []string{"build"},
				Usage:   "render every map in the configuration, only redrawing changed chunks",
				Action:  commandRender,
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  "config",
						Usage: "path to the configuration file",
						Value: "config.hcl",
					},
					&cli.BoolFlag{
						Name:  "clean",
						Usage: "force a clean build ignoring chunk modification time data",
						Value: false,
					},
					&cli.StringFlag{
						Name:  "cache-mode",
						Usage: "override the cache mode of every map (read-write, write-only, read-only, disabled)",
					},
					&cli.StringSliceFlag{
						Name:    "range",
						Aliases: []string{"R"},
						Usage:   "restrict rendering to regions between one or two x,z locations",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "list the chunk timestamps of a region and the chunks that changed since a snapshot",
				Action: commandInspect,
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     "region",
						Usage:    "path to the region file",
						Required: true,
					},
					&cli.PathFlag{
						Name:  "snapshot",
						Usage: "path to a snapshot to diff against",
					},
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func parseRange(values []string) (*mosaic.Bounds, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1, 2:
	default:
		return nil, fmt.Errorf("--range accepts at most two locations")
	}

	a, err := mosaic.ParseLocation(values[0])
	if err != nil {
		return nil, err
	}
	b := a
	if len(values) == 2 {
		b, err = mosaic.ParseLocation(values[1])
		if err != nil {
			return nil, err
		}
	}

	bounds := mosaic.NewBounds(a, b)
	return &bounds, nil
}

func commandRender(ctx *cli.Context) error {
	config, err := mosaic.LoadConfig(ctx.Path("config"))
	if err != nil {
		return err
	}

	if config.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			Compress:   true,
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	bounds, err := parseRange(ctx.StringSlice("range"))
	if err != nil {
		return err
	}

	return build.Build(config, build.BuildOpts{
		ForceClean: ctx.Bool("clean"),
		CacheMode:  ctx.String("cache-mode"),
		Bounds:     bounds,
	})
}

func commandInspect(ctx *cli.Context) error {
	table, err := mosaic.ExtractTimestamps(ctx.Path("region"))
	if err != nil {
		return err
	}

	for _, entry := range table.Entries() {
		fmt.Println(entry)
	}

	var snapshot *mosaic.TimestampTable
	if path := ctx.Path("snapshot"); path != "" {
		fd, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fd.Close()

		snapshot, err = mosaic.ReadTimestampTable(fd)
		if err != nil {
			return err
		}
	}

	diff := table.Diff(snapshot)
	fmt.Printf("%d chunks changed\n", len(diff))
	for _, c := range diff {
		fmt.Printf("  %v\n", c)
	}
	return nil
}
