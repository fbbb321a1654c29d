package bench

import (
	"fmt"
	"strconv"

	"github.com/gezibash/arc-bench/internal/cli"
)

// WriteSummary renders one row per result after the suite, followed by a
// totals footer. The per-benchmark rows on stdout stay the primary output;
// the summary is for humans and CI logs.
func WriteSummary(out *cli.Output, results []Result) error {
	tbl := out.Table("bench-summary", "Name", "Status", "Duration", "Operations/s", "Passes", "Phase").
		Title("Summary")
	tbl.Align(2, cli.AlignRight).Align(3, cli.AlignRight).Align(4, cli.AlignRight)

	var failed int
	for _, r := range results {
		if !r.OK() {
			failed++
			tbl.AddRow(r.Name, "failed", "-", "-", strconv.Itoa(r.Passes), string(r.Phase))
			continue
		}
		tbl.AddRow(r.Name, "ok",
			fmt.Sprintf("%.3fs", r.Elapsed.Seconds()),
			strconv.FormatInt(int64(r.Throughput), 10),
			strconv.Itoa(r.Passes),
			"",
		)
	}
	tbl.Footer(fmt.Sprintf("%d benchmarks", len(results)), fmt.Sprintf("%d failed", failed), "", "", "", "")
	return tbl.Render()
}
