package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/demtools/demflow/grid"
)

const shellHelp = `commands:
  load <file>                 read a DEM (txt|csv|bin) and fill its sinks
  save <file>                 write the current result grid
  process <name>              d8|dinf|mdf|slope|aspect
  fa <method>                 accumulate flow under d8|dinf|mdf
  watershed <k> <dir> [code]  export the top-k watersheds as bitmaps
  image <file> [code]         render the current result to a bitmap
  scale <mode> [percentile]   log|log-filter on the current result
  info                        show session state
  help                        this text
  quit                        leave the shell`

// runShell drives the engine from a line-oriented command loop.
func runShell(e *engine, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "demflow interactive shell; type help for commands")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := shellDispatch(e, out, cmd, args); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func shellDispatch(e *engine, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(out, shellHelp)
		return nil
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <file>")
		}
		return e.load(args[0])
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save <file>")
		}
		return e.save(args[0])
	case "process":
		if len(args) != 1 {
			return fmt.Errorf("usage: process <d8|dinf|mdf|slope|aspect>")
		}
		return e.process(args[0])
	case "fa":
		if len(args) != 1 {
			return fmt.Errorf("usage: fa <d8|dinf|mdf>")
		}
		if err := e.process(args[0]); err != nil {
			return err
		}
		return e.accumulate(args[0])
	case "watershed":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: watershed <k> <dir> [code]")
		}
		k, err := strconv.Atoi(args[0])
		if err != nil || k <= 0 {
			return fmt.Errorf("watershed: k must be a positive integer")
		}
		code := "g1"
		if len(args) == 3 {
			code = args[2]
		}
		method := "d8"
		if e.aspect != nil {
			method = "dinf"
		} else if e.d8 == nil && e.gradient != nil {
			method = "mdf"
		}
		return e.watersheds(k, args[1], code, method)
	case "image":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: image <file> [code]")
		}
		code := "g1"
		if len(args) == 2 {
			code = args[1]
		}
		return e.image(args[0], code)
	case "scale":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: scale <log|log-filter> [percentile]")
		}
		if e.result == nil {
			return fmt.Errorf("scale: nothing to scale")
		}
		mode, err := grid.ParseScaleMode(args[0])
		if err != nil {
			return err
		}
		pct := 0.9
		if len(args) == 2 {
			if pct, err = strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("scale: bad percentile %q", args[1])
			}
		}
		e.result.ApplyScaling(mode, pct)
		return nil
	case "info":
		shellInfo(e, out)
		return nil
	default:
		return fmt.Errorf("unknown command %q; type help", cmd)
	}
}

func shellInfo(e *engine, out io.Writer) {
	if e.dem == nil {
		fmt.Fprintln(out, "no elevation grid loaded")
		return
	}
	w, h := e.dem.Dims()
	fmt.Fprintf(out, "elevation grid %dx%d\n", w, h)
	if e.d8 != nil {
		fmt.Fprintln(out, "d8 direction map ready")
	}
	if e.aspect != nil {
		fmt.Fprintln(out, "aspect map ready")
	}
	if e.gradient != nil {
		fmt.Fprintln(out, "gradient map ready")
	}
	if e.result != nil {
		lo, hi := e.result.MinMax()
		fmt.Fprintf(out, "result grid ready, range [%g, %g]\n", lo, hi)
	}
}
