package main

// Written by hand against quicktemplate's runtime Writer (no .qtpl source,
// no qtc step) so the report renderer pays quicktemplate's buffer-pooled
// cost instead of repeated string concatenation via fmt/strings.

import (
	"io"

	qt "github.com/valyala/quicktemplate"
)

func streamReportHeader(w *qt.Writer, runID string, iters int) {
	w.N().S(`<!doctype html><html><head><meta charset="utf-8"><title>reactivegraph bench report `)
	w.E().S(runID)
	w.N().S(`</title><style>body{font-family:monospace}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 8px;text-align:right}th{text-align:center}</style></head><body>`)
	w.N().S(`<h1>reactivegraph bench report</h1><p>run `)
	w.E().S(runID)
	w.N().S(`, `)
	w.N().D(iters)
	w.N().S(` iters per cell</p>`)
}

func streamGroupTable(w *qt.Writer, g Group) {
	w.N().S(`<h2>`)
	w.E().S(g.Engine)
	w.N().S(`</h2><table><tr><th>benchmark</th><th>avg</th><th>min</th><th>p75</th><th>p99</th><th>max</th></tr>`)
	for _, r := range g.Rows {
		w.N().S(`<tr><td>`)
		w.E().S(r.Label)
		w.N().S(`</td><td>`)
		w.E().S(r.Avg.String())
		w.N().S(`</td><td>`)
		w.E().S(r.Min.String())
		w.N().S(`</td><td>`)
		w.E().S(r.P75.String())
		w.N().S(`</td><td>`)
		w.E().S(r.P99.String())
		w.N().S(`</td><td>`)
		w.E().S(r.Max.String())
		w.N().S(`</td></tr>`)
	}
	w.N().S(`</table>`)
}

func streamReportFooter(w *qt.Writer) {
	w.N().S(`</body></html>`)
}

// writeReport renders results as a single HTML document to dst, streaming
// through quicktemplate's pooled byte buffer rather than building the
// whole document in memory as one string first.
func writeReport(dst io.Writer, results Results) error {
	bb := qt.AcquireByteBuffer()
	defer qt.ReleaseByteBuffer(bb)

	w := qt.AcquireWriter(bb)
	defer qt.ReleaseWriter(w)

	streamReportHeader(w, results.RunID, results.Iters)
	for _, g := range results.Groups {
		streamGroupTable(w, g)
	}
	streamReportFooter(w)

	_, err := dst.Write(bb.B)
	return err
}
