package bench

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	nameWidth     = 60
	durationWidth = 16
	secondsWidth  = 8
	rateWidth     = 12
)

// Reporter writes one row per run, as an aligned table or as CSV. Widths
// are fixed so table output diffs cleanly between runs.
type Reporter struct {
	w               io.Writer
	machineReadable bool
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, machineReadable bool) *Reporter {
	return &Reporter{w: w, machineReadable: machineReadable}
}

// Header writes the CSV header or the table header and its rule.
func (r *Reporter) Header() error {
	if r.machineReadable {
		_, err := io.WriteString(r.w, "name,elapsed,operations\n")
		return err
	}
	header := fmt.Sprintf("%-*s | %-*s | %*s", nameWidth, "Name", durationWidth, "Duration", rateWidth, "Operations/s")
	_, err := fmt.Fprintf(r.w, "%s\n%s\n", header, strings.Repeat("-", len(header)))
	return err
}

// Result writes the row of a completed run. A run without a measurement
// gets the placeholder row.
func (r *Reporter) Result(run *Run) error {
	elapsed, err := run.Elapsed()
	if err != nil || elapsed <= 0 {
		return r.Unavailable(run)
	}
	return r.row(run.Name, elapsed, run.TotalOperations())
}

func (r *Reporter) row(name string, elapsed time.Duration, ops int64) error {
	secs := elapsed.Seconds()
	if r.machineReadable {
		_, err := fmt.Fprintf(r.w, "%s,%s,%d\n", name, strconv.FormatFloat(secs, 'f', -1, 64), ops)
		return err
	}
	rate := strconv.FormatInt(int64(float64(ops)/secs), 10) + "/s"
	_, err := fmt.Fprintf(r.w, "%-*s | %*.3f seconds | %*s\n", nameWidth, name, secondsWidth, secs, rateWidth, rate)
	return err
}

// Unavailable writes the placeholder row for a run that did not complete.
func (r *Reporter) Unavailable(run *Run) error {
	if r.machineReadable {
		_, err := fmt.Fprintf(r.w, "%s,-,-\n", run.Name)
		return err
	}
	_, err := fmt.Fprintf(r.w, "%-*s | %*s seconds | %*s\n", nameWidth, run.Name, secondsWidth, "-", rateWidth, "-/s")
	return err
}
