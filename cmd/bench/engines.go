package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reactivegraph/corereactive/alien"
	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/reactivegraph/corereactive/reactively"
)

var (
	widths  = []int{1, 10, 100, 1_000}
	heights = []int{1, 10, 100, 1_000}
)

func printLive(title string, rows []Row) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	for _, r := range rows {
		tbl.AppendRows([]table.Row{{r.Label, r.Avg, r.Min, r.P75, r.P99, r.Max}})
	}
	tbl.Render()
}

func rowFromCalc(label string, w, h int, calc tachymeter.Metrics) Row {
	return Row{
		Label: label, Width: w, Height: h,
		Avg: calc.Time.Avg, Min: calc.Time.Min,
		P75: calc.Time.P75, P99: calc.Time.P99, Max: calc.Time.Max,
	}
}

// benchmarkCorereactive sweeps the widths x heights propagation grid over
// pkg/reactive's Ref/Computed/Effect, the direct baseline comparison the
// rest of this command's engines were already being compared against.
func benchmarkCorereactive(iters int, live bool) Group {
	var rows []Row
	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := reactive.NewRuntime()
			src := reactive.NewRef(rt, 1)
			for i := 0; i < w; i++ {
				var last func() int
				last = src.Value
				for j := 0; j < h; j++ {
					prev := last
					c := reactive.NewComputed(rt, func() int { return prev() + 1 })
					last = c.Value
				}
				read := last
				rt.Effect(func() (any, error) { read(); return nil, nil })
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Value() + 1)
				rt.Tick()
				tach.AddTime(time.Since(start))
			}

			rows = append(rows, rowFromCalc(fmt.Sprintf("propagate: %d * %d", w, h), w, h, *tach.Calc()))
		}
	}
	if live {
		printLive("corereactive", rows)
	}
	return Group{Engine: "corereactive", Rows: rows}
}

// benchmarkAlien sweeps the same grid over the alien package's lock-free
// push-pull reactive core.
func benchmarkAlien(iters int, live bool) Group {
	getValue := func(x any) int {
		switch x := x.(type) {
		case *alien.WriteableSignal[int]:
			return x.Value() + 1
		case *alien.ReadonlySignal[int]:
			return x.Value() + 1
		default:
			panic("unknown type")
		}
	}

	var rows []Row
	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := alien.CreateReactiveSystem(func(from alien.SignalAware, err error) {
				panic(err)
			})
			src := alien.Signal(rs, 1)
			for i := 0; i < w; i++ {
				var last any = src
				for j := 0; j < h; j++ {
					prev := last
					last = alien.Computed(rs, func(oldValue int) int { return getValue(prev) })
				}
				read := last
				alien.Effect(rs, func() error { getValue(read); return nil })
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Value() + 1)
				tach.AddTime(time.Since(start))
			}

			rows = append(rows, rowFromCalc(fmt.Sprintf("propagate: %d * %d", w, h), w, h, *tach.Calc()))
		}
	}
	if live {
		printLive("alien", rows)
	}
	return Group{Engine: "alien", Rows: rows}
}

// benchmarkReactively sweeps the same grid over the teacher's own pull-based
// reactively package (Signal/Memo backed by CacheState). It has no
// scheduler of its own - a write only marks downstream nodes stale, the
// recompute happens lazily the next time something Read()s them - so each
// iteration reads every leaf after writing the source, the same way
// cmd/benchmark_reactively's own runGraph loop does.
func benchmarkReactively(iters int, live bool) Group {
	var rows []Row
	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rctx := &reactively.ReactiveContext{}
			src := reactively.Signal(rctx, 1)
			leaves := make([]*reactively.Reactive[int], 0, w)
			for i := 0; i < w; i++ {
				var last *reactively.Reactive[int] = src
				for j := 0; j < h; j++ {
					prev := last
					last = reactively.Memo(rctx, func() int { return prev.Read() + 1 })
				}
				leaves = append(leaves, last)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Write(src.Read() + 1)
				for _, leaf := range leaves {
					leaf.Read()
				}
				tach.AddTime(time.Since(start))
			}

			rows = append(rows, rowFromCalc(fmt.Sprintf("propagate: %d * %d", w, h), w, h, *tach.Calc()))
		}
	}
	if live {
		printLive("reactively", rows)
	}
	return Group{Engine: "reactively", Rows: rows}
}

