package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/swoga/moto-exporter/collect"
)

// Progress reports each step of an interactive run to the operator.
type Progress struct {
	out io.Writer
}

func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out}
}

func (p *Progress) StepStarted(step collect.Step) {
	fmt.Fprintf(p.out, "%s...", capitalize(step.Action()))
}

func (p *Progress) StepFinished(result collect.StepResult) {
	if !result.OK() {
		fmt.Fprintf(p.out, " failed: %s\n", result.Err)
		return
	}
	if result.Step == collect.StepLogin {
		fmt.Fprintln(p.out, " done")
		return
	}
	fmt.Fprintf(p.out, " %d %s (%s)\n", result.Records, plural(result.Records), result.Duration.Round(time.Millisecond))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int) string {
	if n == 1 {
		return "record"
	}
	return "records"
}
