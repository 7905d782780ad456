// Package main is the demflow command.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/gosuri/uiprogress"
	"github.com/maseology/mmio"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/demtools/demflow/basin"
	"github.com/demtools/demflow/flow"
	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/img"
	"github.com/demtools/demflow/tem"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "demflow",
		Usage: "derive flow directions, accumulation and watersheds from a raster DEM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "i",
				Usage: "input DEM `FILE` (txt|csv|bin)",
			},
			&cli.StringFlag{
				Name:  "p",
				Usage: "process to run: d8|dinf|mdf|slope|aspect",
			},
			&cli.BoolFlag{
				Name:  "fa",
				Usage: "accumulate flow under the chosen process",
			},
			&cli.IntFlag{
				Name:  "w",
				Usage: "trace watersheds for the top `K` pour points",
			},
			&cli.StringFlag{
				Name:  "wdir",
				Usage: "watershed output `DIR`",
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "write the result grid to `FILE` (txt|csv|bin)",
			},
			&cli.StringFlag{
				Name:  "img",
				Usage: "render the result to `FILE` (bmp)",
			},
			&cli.StringFlag{
				Name:  "c",
				Value: "g1",
				Usage: "colourmap `SHORTCODE` (g1|g2|dw|d8|sf|hs or a ramp file name)",
			},
			&cli.BoolFlag{
				Name:    "v",
				Aliases: []string{"verbose"},
				Usage:   "report timings and cell counts",
			},
			&cli.BoolFlag{
				Name:    "int",
				Aliases: []string{"interactive"},
				Usage:   "start the interactive shell",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	var logger golog.Logger
	if c.Bool("v") {
		logger = golog.NewDebugLogger("demflow")
	} else {
		logger = zap.NewNop().Sugar()
	}
	e := &engine{logger: logger, verbose: c.Bool("v")}

	if c.Bool("int") {
		return runShell(e, os.Stdin, os.Stdout)
	}

	in := c.String("i")
	proc := c.String("p")
	k := c.Int("w")
	switch {
	case in == "":
		return cli.Exit("demflow: -i is required", 1)
	case c.Bool("fa") && (proc == "slope" || proc == "aspect"):
		return cli.Exit("demflow: -fa cannot be combined with slope or aspect", 1)
	case c.Bool("fa") && k > 0:
		return cli.Exit("demflow: -fa and -w are mutually exclusive", 1)
	case c.Bool("fa") && proc == "":
		return cli.Exit("demflow: -fa requires -p d8|dinf|mdf", 1)
	case k > 0 && c.String("wdir") == "":
		return cli.Exit("demflow: -w requires -wdir", 1)
	case k > 0 && proc == "":
		return cli.Exit("demflow: -w requires -p d8|dinf|mdf", 1)
	}

	if err := e.load(in); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if proc != "" {
		if err := e.process(proc); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	if c.Bool("fa") {
		if err := e.accumulate(proc); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	if k > 0 {
		if err := e.watersheds(k, c.String("wdir"), c.String("c"), proc); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	if fp := c.String("o"); fp != "" {
		if err := e.save(fp); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	if fp := c.String("img"); fp != "" {
		if err := e.image(fp, c.String("c")); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}

// engine carries the working grids of a processing session. result
// holds the last scalar product; d8 is kept separately so direction
// maps can be saved and rendered with their own semantics.
type engine struct {
	logger  golog.Logger
	verbose bool

	inputDir string
	dem      *grid.Grid[float64]
	d8       *grid.Grid[int32]
	aspect   *grid.Grid[float64]
	gradient *grid.Grid[float64]
	result   *grid.Grid[float64]
}

func (e *engine) load(fp string) error {
	format, err := grid.ParseFormat(filepath.Ext(fp))
	if err != nil {
		return errors.Wrapf(err, "load %s", fp)
	}
	tt := mmio.NewTimer()
	dem := grid.New[float64](0, 0)
	if err := dem.LoadFrom(fp, format); err != nil {
		return err
	}
	dem.FillSinks()
	e.dem = dem
	e.inputDir = mmio.GetFileDir(fp)
	e.d8, e.aspect, e.gradient, e.result = nil, nil, nil, nil
	if e.verbose {
		w, h := dem.Dims()
		e.logger.Infof("loaded %s cells from %s, sinks filled", mmio.Thousands(int64(w*h)), fp)
		tt.Lap("load")
	}
	return nil
}

func (e *engine) process(proc string) error {
	if e.dem == nil {
		return errors.New("process: no elevation grid loaded")
	}
	tt := mmio.NewTimer()
	switch proc {
	case "slope":
		e.result = tem.NewSlopeAnalyser(e.dem).ComputeSlope(tem.SlopeCombined)
	case "aspect":
		e.result = tem.NewSlopeAnalyser(e.dem).ComputeAspect()
	case "d8":
		e.d8 = tem.NewD8Analyser(e.dem).ComputeDirections()
	case "dinf":
		sa := tem.NewSlopeAnalyser(e.dem)
		e.aspect = sa.ComputeAspect()
		e.gradient = sa.ComputeSlope(tem.SlopeCombined)
	case "mdf":
		e.gradient = tem.NewSlopeAnalyser(e.dem).ComputeSlope(tem.SlopeCombined)
	default:
		return errors.Errorf("process: unknown process %q", proc)
	}
	if e.verbose {
		tt.Lap(proc)
	}
	return nil
}

func (e *engine) accumulate(proc string) error {
	method, err := flow.ParseMethod(proc)
	if err != nil {
		return errors.Wrap(err, "accumulate")
	}
	ac := flow.NewAccumulator(e.dem)
	ac.D8 = e.d8
	ac.Aspect = e.aspect
	ac.Gradient = e.gradient
	tt := mmio.NewTimer()
	fa := ac.Accumulate(method)
	if fa.IsEmpty() {
		return errors.Errorf("accumulate: %s produced no output", method)
	}
	e.result = fa
	if e.verbose {
		tt.Lap("accumulate " + method.String())
		_, hi := fa.MinMax()
		e.logger.Infof("peak accumulation %.1f", hi)
	}
	return nil
}

func (e *engine) watersheds(k int, dir, code, proc string) error {
	method, err := flow.ParseMethod(proc)
	if err != nil {
		return errors.Wrap(err, "watershed")
	}
	if e.result == nil {
		if err := e.accumulate(proc); err != nil {
			return err
		}
	}
	cm, err := img.ByCode(code, e.inputDir)
	if err != nil {
		return errors.Wrap(err, "watershed")
	}

	a := basin.NewAnalyser(e.dem, e.result)
	a.D8 = e.d8
	a.Aspect = e.aspect

	// dinf pour points are ranked off a D8 candidacy pass; dinf has no
	// terminal-cell notion of its own
	pmethod := method
	if method == flow.Dinf {
		pmethod = flow.D8
		if a.D8 == nil {
			a.D8 = tem.NewD8Analyser(e.dem).ComputeDirections()
		}
	}
	pts := a.PourPoints(k, pmethod)
	if len(pts) == 0 {
		return errors.New("watershed: no pour point candidates")
	}
	mmio.MakeDir(dir)

	uiprogress.Start()
	bar := uiprogress.AddBar(len(pts)).AppendCompleted().PrependElapsed()
	for i, p := range pts {
		ws := a.Watershed(p, method)
		ws.ApplyScaling(grid.ScaleLog, 0)
		fp := filepath.Join(dir, fmt.Sprintf("watershed_%d.bmp", i))
		if err := img.Export(ws, fp, cm); err != nil {
			uiprogress.Stop()
			return err
		}
		bar.Incr()
	}
	uiprogress.Stop()
	if e.verbose {
		e.logger.Infof("wrote %d watersheds to %s", len(pts), dir)
	}
	return nil
}

func (e *engine) save(fp string) error {
	format, err := grid.ParseFormat(filepath.Ext(fp))
	if err != nil {
		return errors.Wrapf(err, "save %s", fp)
	}
	switch {
	case e.result != nil:
		return e.result.SaveTo(fp, format)
	case e.d8 != nil:
		return e.d8.SaveTo(fp, format)
	case e.dem != nil:
		return e.dem.SaveTo(fp, format)
	}
	return errors.New("save: nothing to save")
}

func (e *engine) image(fp, code string) error {
	cm, err := img.ByCode(code, e.inputDir)
	if err != nil {
		return errors.Wrapf(err, "image %s", fp)
	}
	switch {
	case e.result != nil:
		return img.Export(e.result, fp, cm)
	case e.d8 != nil:
		return img.ExportDirections(e.d8, fp, cm)
	case e.dem != nil:
		return img.Export(e.dem, fp, cm)
	}
	return errors.New("image: nothing to render")
}
