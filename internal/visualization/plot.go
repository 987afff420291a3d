package visualization

import (
	"fmt"
	"math"

	plt "github.com/phil-mansfield/pyplot"

	"reclevel-sim/internal/common"
)

var callColors = []string{"b", "g", "r", "c", "m", "y", "k"}

// PlotScenario queues a figure of the microphones, the call positions and
// the call directions, written to fname when plt.Execute runs.
func PlotScenario(s *Scene, fname string) {
	plt.Figure(plt.FigSize(8, 8))

	xs, ys := split(s.CallPos)
	plt.Plot(xs, ys, "b*")
	xs, ys = split(s.Mics)
	plt.Plot(xs, ys, "r*")

	for _, a := range s.Arrows {
		plt.Plot([]float64{a.From[0], a.To[0]}, []float64{a.From[1], a.To[1]}, "k", plt.LW(1))
	}

	plt.Title(fmt.Sprintf("%d calls, %d microphones", len(s.Calls), len(s.Mics)))
	plt.XLabel("x [m]", plt.FontSize(16))
	plt.YLabel("y [m]", plt.FontSize(16))
	minX, maxX, minY, maxY := s.Extent()
	plt.XLim(minX-0.1, maxX+0.1)
	plt.YLim(minY-0.1, maxY+0.1)
	plt.Grid(plt.Axis("x"))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

// PlotLevels queues a figure of the received level at every microphone, one
// line per call.
func PlotLevels(s *Scene, fname string) {
	if len(s.Levels) == 0 {
		return
	}

	plt.Figure()
	idx := make([]float64, len(s.Mics))
	for i := range idx {
		idx[i] = float64(i)
	}
	for c, levels := range s.Levels {
		plt.Plot(idx, levels, plt.LW(2), plt.C(callColors[c%len(callColors)]))
	}

	plt.Title("Received level, omnidirectional source")
	plt.XLabel("microphone", plt.FontSize(16))
	plt.YLabel("received level [dB SPL]", plt.FontSize(16))
	plt.XLim(-0.5, float64(len(s.Mics))-0.5)
	if lo, hi, ok := s.LevelRange(); ok {
		plt.YLim(math.Floor(lo)-1, math.Ceil(hi)+1)
	}
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

func split(points []common.Vector) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p[0], p[1]
	}
	return xs, ys
}
