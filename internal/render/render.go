package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/colorstring"

	"github.com/i474232898/power-user-weather/internal/cache"
	"github.com/i474232898/power-user-weather/internal/weather"
)

const ruleWidth = 100

// Printer writes reports for a terminal.
type Printer struct {
	w     io.Writer
	color colorstring.Colorize
}

// New returns a Printer writing to w. Colors are stripped when noColor is set.
func New(w io.Writer, noColor bool) *Printer {
	return &Printer{
		w: w,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: noColor,
			Reset:   true,
		},
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprint(p.w, p.color.Color(fmt.Sprintf(format, args...)))
}

func (p *Printer) rule() {
	p.printf("[light_blue]%s\n", strings.Repeat("=", ruleWidth))
}

// Info prints a progress line.
func (p *Printer) Info(format string, args ...any) {
	p.printf("[cyan]"+format+"\n", args...)
}

// Done prints the closing line.
func (p *Printer) Done() {
	p.printf("[bold][green]Analysis complete!\n")
}

// Header prints the resolved location and period.
func (p *Printer) Header(loc weather.Location, start, end time.Time) {
	name := loc.Name
	if name == "" {
		name = loc.Key()
	}
	p.printf("[green]Location: %s (%.4f, %.4f)\n", name, loc.Lat, loc.Lon)
	p.printf("[green]Period: %s to %s\n\n", start.Format(weather.DateLayout), end.Format(weather.DateLayout))
}

// Status prints one line per source saying whether it was retrieved.
func (p *Printer) Status(sources []weather.SourceReport) {
	for _, s := range sources {
		if s.Err != nil || s.Error != "" {
			msg := s.Error
			if s.Err != nil {
				msg = s.Err.Error()
			}
			p.printf("  [yellow]! %s error:[reset] %s\n", s.Source, msg)
			continue
		}
		p.printf("  [green]ok[reset] %s data retrieved (%s to %s)\n",
			s.Source, s.Start.Format(weather.DateLayout), s.End.Format(weather.DateLayout))
	}
	fmt.Fprintln(p.w)
}

// Report prints the pivot table of every retrieved source, the ensemble
// spread when present, and the per-date breakdown when verbose is set.
func (p *Printer) Report(r *weather.Report, verbose bool) error {
	for _, s := range r.Sources {
		if s.Dataset == nil {
			continue
		}
		p.rule()
		p.printf("[bold][light_blue]%s - PRECIPITATION BY MODEL AND MEASURE (%s)\n", strings.ToUpper(s.Source.String()), r.Unit)
		p.rule()
		fmt.Fprintln(p.w)

		if err := PivotTable(p.w, s.Totals); err != nil {
			return err
		}
		fmt.Fprintln(p.w)

		if len(s.Spread) > 0 {
			p.printf("[bold]Ensemble spread (%s, %s)\n", weather.SpreadMeasure, r.Unit)
			if err := SpreadTable(p.w, s.Spread); err != nil {
				return err
			}
			fmt.Fprintln(p.w)
		}
	}

	if verbose {
		p.rule()
		p.printf("[bold][light_blue]DETAILED DAILY BREAKDOWN\n")
		p.rule()
		fmt.Fprintln(p.w)
		for _, s := range r.Sources {
			if s.Dataset == nil {
				continue
			}
			p.Breakdown(s.Source, weather.ByDate(s.Dataset), r.Unit)
		}
	}
	return nil
}

// Breakdown prints every value of a source grouped by date.
func (p *Printer) Breakdown(source weather.Source, days []weather.DayBreakdown, unit weather.PrecipitationUnit) {
	p.printf("[bold][yellow]Source: %s\n\n", source)
	for _, d := range days {
		p.printf("  Date: [cyan]%s\n", d.Date)
		for _, e := range d.Entries {
			fmt.Fprintf(p.w, "    %s - %s: %s %s\n", e.Model, e.Measure, formatValue(e.Value), unit)
		}
		fmt.Fprintln(p.w)
	}
}

// PivotTable writes totals with one row per model and one column per measure.
// Cells with no reported day are shown as "-".
func PivotTable(w io.Writer, totals []weather.Total) error {
	var models, measures []string
	cells := make(map[weather.MeasureAndModel]weather.Total, len(totals))
	for _, t := range totals {
		if !slices.Contains(models, t.Model) {
			models = append(models, t.Model)
		}
		if !slices.Contains(measures, t.Measure) {
			measures = append(measures, t.Measure)
		}
		cells[t.MeasureAndModel] = t
	}
	slices.Sort(models)
	slices.Sort(measures)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintf(tw, "Model\t%s\t\n", strings.Join(measures, "\t"))
	for _, model := range models {
		row := make([]string, 0, len(measures))
		for _, measure := range measures {
			t, ok := cells[weather.MeasureAndModel{Measure: measure, Model: model}]
			if !ok || t.Days == 0 {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.1f", t.Total))
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", model, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// SpreadTable writes the per-day ensemble min, mean and max.
func SpreadTable(w io.Writer, spread []weather.DailySpread) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(tw, "Date\tMin\tMean\tMax\tModels\t")
	for _, d := range spread {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%d\t\n", d.Date, d.Min, d.Mean, d.Max, d.Members)
	}
	return tw.Flush()
}

// CacheEntries lists cached responses with their size and age.
func CacheEntries(w io.Writer, entries []cache.Entry, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tAGE\tFRESH")
	for _, e := range entries {
		fresh := "no"
		if e.Fresh {
			fresh = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Name, humanize.Bytes(uint64(e.Size)), humanize.RelTime(e.Modified, now, "ago", "from now"), fresh)
	}
	return tw.Flush()
}

func formatValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}
