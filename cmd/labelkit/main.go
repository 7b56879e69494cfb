// Package main is the labelkit command itself.
package main

import (
	"log"
	"os"
	"strings"

	"github.com/edaniels/golog"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/cloudlabel/labelkit/classify"
	"github.com/cloudlabel/labelkit/editor"
	"github.com/cloudlabel/labelkit/matching"
	"github.com/cloudlabel/labelkit/records"
)

const (
	flagClouds = "clouds"
	flagCutoff = "cutoff"
)

func main() {
	app := &cli.App{
		Name:            "labelkit",
		Usage:           "inspect and repair point cloud annotation files",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "summarize the records in a label file",
				ArgsUsage: "<labels.json>",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  flagClouds,
						Usage: "cloud directory; when set, clouds are loaded and classified",
					},
				},
				Action: inspectAction,
			},
			{
				Name:      "resolve",
				Usage:     "match each record filename against a cloud directory",
				ArgsUsage: "<labels.json> <cloud-dir>",
				Action:    resolveAction,
			},
			{
				Name:      "sync",
				Usage:     "fuzzy-rewrite record filenames to the actual cloud files and reorder chronologically",
				ArgsUsage: "<labels.json> <cloud-dir>",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagCutoff,
						Value: matching.DefaultSyncCutoff,
						Usage: "minimum similarity ratio for a fuzzy match",
					},
				},
				Action: syncAction,
			},
			{
				Name:      "roundtrip",
				Usage:     "load a label file and write it back, normalized, to the edited path",
				ArgsUsage: "<labels.json>",
				Action:    roundtripAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(c *cli.Context) golog.Logger {
	if c.Bool("debug") {
		return golog.NewDebugLogger("labelkit")
	}
	return golog.NewLogger("labelkit")
}

func loadArg(c *cli.Context) (string, []records.Record, error) {
	if c.NArg() < 1 {
		return "", nil, cli.Exit("missing label file argument", 1)
	}
	path := c.Args().First()
	recs, err := records.Load(path, newLogger(c))
	if err != nil {
		return "", nil, err
	}
	return path, recs, nil
}

func inspectAction(c *cli.Context) error {
	path, recs, err := loadArg(c)
	if err != nil {
		return err
	}

	var source *editor.DirectorySource
	if dir := c.Path(flagClouds); dir != "" {
		source, err = editor.NewDirectorySource(dir, newLogger(c))
		if err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	header := table.Row{"#", "Timestamp", "File", "Classes", "Boxes"}
	if source != nil {
		header = append(header, "Points", "In Boxes")
	}
	t.AppendHeader(header)

	flagged := 0
	for i, rec := range recs {
		classes := strings.Join(lo.Map(rec.Labels, func(l records.Label, _ int) string {
			return l.Class
		}), ", ")
		row := table.Row{i, rec.Timestamp, rec.File, classes, len(rec.Labels)}
		if rec.Err() != nil {
			flagged++
			row[2] = color.RedString("%s", rec.File)
			row[3] = color.RedString("unreadable: %v", rec.Err())
		}
		if source != nil {
			row = append(row, inspectCloud(source, &recs[i])...)
		}
		t.AppendRow(row)
	}
	t.Render()

	total := lo.SumBy(recs, func(r records.Record) int { return len(r.Labels) })
	color.New(color.Bold).Fprintf(c.App.Writer, "%d records, %d boxes in %s", len(recs), total, path)
	if flagged > 0 {
		color.New(color.FgRed).Fprintf(c.App.Writer, " (%d flagged)", flagged)
	}
	color.New().Fprintln(c.App.Writer)
	return nil
}

func inspectCloud(source *editor.DirectorySource, rec *records.Record) table.Row {
	cloud, err := source.CloudFor(rec)
	if err != nil {
		return table.Row{color.RedString("unresolved"), "-"}
	}
	boxes, err := rec.Boxes()
	if err != nil {
		return table.Row{cloud.Size(), "-"}
	}
	result := classify.Classify(cloud, boxes)
	inside := lo.CountBy(result, func(b int) bool { return b != classify.Unclassified })
	return table.Row{cloud.Size(), inside}
}

func resolveAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: labelkit resolve <labels.json> <cloud-dir>", 1)
	}
	logger := newLogger(c)
	recs, err := records.Load(c.Args().First(), logger)
	if err != nil {
		return err
	}
	source, err := editor.NewDirectorySource(c.Args().Get(1), logger)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"#", "Record File", "Cloud File"})
	unresolved := 0
	for i, rec := range recs {
		name, err := matching.Resolve(rec.File, source.Names(), logger)
		if err != nil {
			unresolved++
			name = color.RedString("unresolved")
		}
		t.AppendRow(table.Row{i, rec.File, name})
	}
	t.Render()

	if unresolved > 0 {
		return cli.Exit(color.RedString("%d of %d records unresolved", unresolved, len(recs)), 1)
	}
	return nil
}

func syncAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: labelkit sync <labels.json> <cloud-dir>", 1)
	}
	logger := newLogger(c)
	path := c.Args().First()
	recs, err := records.Load(path, logger)
	if err != nil {
		return err
	}
	source, err := editor.NewDirectorySource(c.Args().Get(1), logger)
	if err != nil {
		return err
	}

	plan, err := matching.BuildSyncPlan(recs, source.Names(), c.Float64(flagCutoff), logger)
	if err != nil {
		return err
	}
	written, err := records.Save(path, plan.Apply(recs))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "synchronized %d records -> %s\n", len(recs), written)
	return nil
}

func roundtripAction(c *cli.Context) error {
	path, recs, err := loadArg(c)
	if err != nil {
		return err
	}
	written, err := records.Save(path, recs)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "wrote %s (input untouched)\n", written)
	return nil
}
