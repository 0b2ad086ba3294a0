// Package report renders transmission summaries as tables and plots.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Axis names the parameter summaries are plotted against.
type Axis string

const (
	AxisState    Axis = "state"
	AxisCapacity Axis = "capacity"
	AxisTrials   Axis = "trials"
)

const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

func ParseAxis(raw string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(raw))); a {
	case AxisState, AxisCapacity, AxisTrials:
		return a, nil
	default:
		return "", fmt.Errorf("report: unknown axis %q", raw)
	}
}

func (a Axis) value(s orchestrator.Summary) float64 {
	switch a {
	case AxisCapacity:
		return float64(s.Parameters.Capacity)
	case AxisTrials:
		return float64(s.Parameters.Trials)
	default:
		return s.Parameters.State
	}
}

func (a Axis) label() string {
	switch a {
	case AxisCapacity:
		return "Packet capacity (bits)"
	case AxisTrials:
		return "Trials"
	default:
		return "Channel state"
	}
}

// seriesLabel groups runs that differ only in the plotted parameter.
func seriesLabel(s orchestrator.Summary) string {
	codes := "identity"
	if len(s.Parameters.Codes) > 0 {
		codes = strings.Join(s.Parameters.Codes, "+")
	}
	return fmt.Sprintf("%s %s", s.Channel, codes)
}

// FidelityPlot draws one line per channel and code chain, fidelity against axis.
func FidelityPlot(title string, axis Axis, summaries []orchestrator.Summary) (*plot.Plot, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("report: no summaries to plot")
	}
	groups := make(map[string]plotter.XYs)
	for _, s := range summaries {
		label := seriesLabel(s)
		groups[label] = append(groups[label], plotter.XY{X: axis.value(s), Y: s.Fidelity})
	}
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axis.label()
	p.Y.Label.Text = "Fidelity"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	for i, label := range labels {
		pts := groups[label]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("report: series %q: %w", label, err)
		}
		line.Color = plotutil.Color(i)
		points, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("report: series %q: %w", label, err)
		}
		points.GlyphStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(label, line, points)
	}
	return p, nil
}

func WritePlot(p *plot.Plot, width, height vg.Length, output io.Writer, format string) error {
	w, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = w.WriteTo(output)
	return err
}

func combineErrors(errs ...error) error {
	var out *multierror.Error
	for _, e := range errs {
		if e != nil {
			out = multierror.Append(out, e)
		}
	}
	return out.ErrorOrNil()
}

func WriteClosePlot(p *plot.Plot, width, height vg.Length, output io.WriteCloser, format string) (err error) {
	defer func() {
		err = combineErrors(err, output.Close())
	}()
	return WritePlot(p, width, height, output, format)
}

// SavePlot writes p to path in the format named by its extension.
func SavePlot(p *plot.Plot, width, height vg.Length, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("report: %s has no extension to pick a format from", path)
	}
	output, err := os.Create(path)
	if err != nil {
		return err
	}
	return WriteClosePlot(p, width, height, output, format)
}
