package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/pkg/types"
)

type outputOptions struct {
	JSON    bool
	Plain   bool
	NoColor bool
}

// resolve forces plain output when stdout is not a terminal, matching what
// a pipe or redirect expects.
func (o *outputOptions) resolve() {
	if !o.JSON && !o.Plain {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			o.Plain = true
		}
	}
}

func (o outputOptions) colorEnabled() bool {
	return !o.JSON && !o.Plain && !o.NoColor
}

func colorize(s, code string, enabled bool) string {
	if !enabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// progressPrinter renders live chart points on stdout during a test run.
type progressPrinter struct {
	color bool
}

func (p progressPrinter) ChartUpdate(pt types.ChartPoint) {
	label := pt.Direction
	code := "36"
	if pt.Direction == types.DirectionUpload {
		code = "33"
	}

	if pt.Summary {
		fmt.Printf("  %s average: %s\n",
			colorize(label, code, p.color),
			colorize(fmt.Sprintf("%.1f Mbps", pt.Mbps), "1", p.color))
		return
	}
	fmt.Printf("  %s %7.1f Mbps  %s\n", colorize(label, code, p.color), pt.Mbps, pt.Timestamp)
}

// stderrNoticeSink surfaces engine notifications on stderr so they do not
// interleave with parseable stdout output.
func stderrNoticeSink(color bool) notify.SinkFunc {
	return func(n notify.Notice) {
		code := "37"
		switch n.Kind {
		case notify.KindSuccess:
			code = "32"
		case notify.KindError:
			code = "31"
		}
		fmt.Fprintf(os.Stderr, "%s\n", colorize(n.Text, code, color))
	}
}
