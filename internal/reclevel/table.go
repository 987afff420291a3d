package reclevel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"reclevel-sim/internal/common"
)

var errEmptyTable = errors.New("received-level table needs at least one call and one receiver")

// CallSpec is one emission: an on-axis level and where it was emitted from.
type CallSpec struct {
	Level  float64
	Source common.Vector
}

// Table holds received levels indexed by (receiver, call).
type Table struct {
	levels *mat.Dense
}

// CalculateTable computes the received level of every call at every
// receiver. Calls are independent and are computed concurrently, bounded by
// the configured parallelism. The first failing call cancels the rest.
func CalculateTable(ctx context.Context, calls []CallSpec, receivers []common.Vector, opts ...Option) (*Table, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(calls) == 0 || len(receivers) == 0 {
		return nil, errEmptyTable
	}

	levels := mat.NewDense(len(receivers), len(calls), nil)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for c, call := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			col, err := calculate(cfg, call.Level, call.Source, receivers)
			if err != nil {
				return fmt.Errorf("call %d: %w", c, err)
			}
			// Each goroutine owns exactly one column.
			levels.SetCol(c, col)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Table{levels: levels}, nil
}

// Receivers returns the number of rows.
func (t *Table) Receivers() int {
	r, _ := t.levels.Dims()
	return r
}

// Calls returns the number of columns.
func (t *Table) Calls() int {
	_, c := t.levels.Dims()
	return c
}

// At returns the level of call c at receiver r.
func (t *Table) At(r, c int) float64 {
	return t.levels.At(r, c)
}

// Column returns the levels of call c at every receiver.
func (t *Table) Column(c int) []float64 {
	return mat.Col(nil, c, t.levels)
}

// Row returns the levels of every call at receiver r.
func (t *Table) Row(r int) []float64 {
	return mat.Row(nil, r, t.levels)
}

// Dense returns a copy of the underlying matrix.
func (t *Table) Dense() *mat.Dense {
	return mat.DenseCopyOf(t.levels)
}

// Format renders the table as aligned text. rowNames and colNames may be
// nil, in which case indices are used.
func (t *Table) Format(rowNames, colNames []string) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(w, "\t")
	for c := 0; c < t.Calls(); c++ {
		fmt.Fprintf(w, "%s\t", label(colNames, c, "call"))
	}
	fmt.Fprintln(w)

	for r := 0; r < t.Receivers(); r++ {
		fmt.Fprintf(w, "%s\t", label(rowNames, r, "mic"))
		for c := 0; c < t.Calls(); c++ {
			fmt.Fprintf(w, "%.2f\t", t.At(r, c))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return sb.String()
}

func label(names []string, i int, prefix string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("%s-%d", prefix, i)
}
