// Package live draws a simulation in an ebiten window.
package live

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"reclevel-sim/internal/visualization"
)

const (
	objectRadiusOnScreen = 6.0
	padding              = 60.0
)

var (
	backgroundColor = color.RGBA{230, 230, 230, 255}
	pathColor       = color.RGBA{120, 120, 120, 255}
	callColor       = color.RGBA{0, 0, 0, 255}
	selectedColor   = color.RGBA{0, 160, 0, 255}
	micColor        = color.RGBA{0, 0, 255, 255}
)

// Renderer implements ebiten.Game for a static scene. Left and right arrow
// keys select the call whose received levels colour the microphones.
type Renderer struct {
	scene    *visualization.Scene
	selected int

	screenWidth  int
	screenHeight int
	view         visualization.Viewport
}

// NewRenderer creates a renderer for scene.
func NewRenderer(scene *visualization.Scene) *Renderer {
	return &Renderer{scene: scene}
}

// Run opens a window and blocks until it is closed.
func Run(scene *visualization.Scene) error {
	ebiten.SetWindowSize(900, 900)
	ebiten.SetWindowTitle("Received levels")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(NewRenderer(scene))
}

// Update handles call selection.
func (r *Renderer) Update() error {
	n := len(r.scene.Calls)
	if n == 0 {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		r.selected = (r.selected + 1) % n
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		r.selected = (r.selected + n - 1) % n
	}
	return nil
}

// Draw is called every frame to render the scene.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	// Flight path
	for i := 1; i < len(r.scene.CallPos); i++ {
		x0, y0 := r.toScreen(r.scene.CallPos[i-1])
		x1, y1 := r.toScreen(r.scene.CallPos[i])
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, pathColor, true)
	}

	// Calls and their directions
	for i, a := range r.scene.Arrows {
		clr := callColor
		if i == r.selected {
			clr = selectedColor
		}
		x0, y0 := r.toScreen(a.From)
		x1, y1 := r.toScreen(a.To)
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, clr, true)
		vector.DrawFilledCircle(screen, x0, y0, objectRadiusOnScreen/2, clr, true)
	}

	// Microphones, coloured by received level of the selected call
	lo, hi, haveLevels := r.scene.LevelRange()
	for i, m := range r.scene.Mics {
		x, y := r.toScreen(m)
		clr := color.Color(micColor)
		if haveLevels && r.selected < len(r.scene.Levels) {
			level := r.scene.Levels[r.selected][i]
			clr = visualization.LevelColor(level, lo, hi)
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.1f", level), int(x)+8, int(y)-8)
		}
		vector.DrawFilledCircle(screen, x, y, objectRadiusOnScreen, clr, true)
	}

	r.drawDebugInfo(screen)
}

func (r *Renderer) toScreen(p []float64) (float32, float32) {
	return r.view.ToScreen(p[0], p[1])
}

func (r *Renderer) drawDebugInfo(screen *ebiten.Image) {
	lines := []string{
		fmt.Sprintf("Simulation time: %.2fs", r.scene.Time),
		fmt.Sprintf("Dimension: %dD -> 2D", r.scene.Dimension),
		fmt.Sprintf("Mics: %d, Calls: %d (left/right to select)", len(r.scene.Mics), len(r.scene.Calls)),
	}
	if r.selected < len(r.scene.Calls) {
		c := r.scene.Calls[r.selected]
		lines = append(lines, fmt.Sprintf("Call %d: SL %.1f dB, direction %.0f deg", c.Index, c.Level, c.Direction*180/math.Pi))
	}
	if r.selected < len(r.scene.Estimates) {
		lines = append(lines, fmt.Sprintf("Apparent SL: %s", r.scene.Estimates[r.selected]))
	}
	if r.selected < len(r.scene.Located) && r.scene.Located[r.selected].Position != nil {
		loc := r.scene.Located[r.selected]
		lines = append(lines, fmt.Sprintf("Located at %s, %.3f m off", loc.Position, loc.Error))
	}
	ebitenutil.DebugPrint(screen, strings.Join(lines, "\n"))
}

// Layout is called when the window size changes.
func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != r.screenWidth || outsideHeight != r.screenHeight {
		r.screenWidth = outsideWidth
		r.screenHeight = outsideHeight
		minX, maxX, minY, maxY := r.scene.Extent()
		r.view = visualization.FitViewport(minX, maxX, minY, maxY, r.screenWidth, r.screenHeight, padding)
	}
	return r.screenWidth, r.screenHeight
}
