package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/report"
	"github.com/fatih/color"
)

var (
	headFmt = color.New(color.FgBlue, color.Bold).SprintFunc()
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	badFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

func fidelityFmt(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	switch {
	case v >= 0.99:
		return okFmt(s)
	case v >= 0.75:
		return warnFmt(s)
	default:
		return badFmt(s)
	}
}

// writeSummaries prints summaries as a table, or encodes them for json/yaml.
func writeSummaries(w io.Writer, format string, summaries []orchestrator.Summary) error {
	if format != "table" {
		if len(summaries) == 1 {
			return report.Encode(w, format, summaries[0])
		}
		return report.Encode(w, format, summaries)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCHANNEL\tCAPACITY\tTRIALS\tSTATE\tCODES\tPACKETS\tCONSENSUS\tFIDELITY")
	for _, s := range summaries {
		codes := "identity"
		if len(s.Parameters.Codes) > 0 {
			codes = fmt.Sprint(s.Parameters.Codes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%g\t%s\t%d\t%.4f\t%s\n",
			dimFmt(s.RunID[:8]), s.Channel, s.Parameters.Capacity, s.Parameters.Trials,
			s.Parameters.State, codes, s.Packets, s.ConsensusFidelity, fidelityFmt(s.Fidelity))
	}
	return tw.Flush()
}

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, headFmt(title))
}

func printSample(w io.Writer, s orchestrator.Summary) {
	if s.Reconstructed == "" {
		return
	}
	fmt.Fprintf(w, "%s %s\n", dimFmt("reconstructed:"), s.Reconstructed)
}
