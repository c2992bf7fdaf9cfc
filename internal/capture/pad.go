// Package capture implements the freehand signature surface: a fixed size
// canvas fed with pointer strokes that rasterises to a PNG artifact.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

const (
	DefaultWidth  = 500
	DefaultHeight = 200

	lineWidth = 2

	dataURLPrefix = "data:image/png;base64,"
)

var (
	ErrEmptyArtifact = errors.New("signature has no strokes")
	ErrInvalidSize   = errors.New("invalid canvas size")
)

var (
	background = color.White
	ink        = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
)

// State is the overall capture state.
type State string

const (
	StateEmpty      State = "empty"
	StateHasStrokes State = "has_strokes"
)

// Point is a pointer position. Points handed to the Pad are in client space
// and translated by the Pad's origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pad is a single-user drawing surface. It is not safe for concurrent use;
// one session owns one Pad.
type Pad struct {
	width   int
	height  int
	origin  Point
	strokes [][]Point
	drawing bool
}

func NewPad(width, height int) (*Pad, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Pad{width: width, height: height}, nil
}

// SetOrigin records where the surface sits in client space.
func (p *Pad) SetOrigin(left, top float64) {
	p.origin = Point{X: left, Y: top}
}

func (p *Pad) Size() (int, int) {
	return p.width, p.height
}

func (p *Pad) BeginStroke(pt Point) {
	if !finite(pt) {
		return
	}
	p.drawing = true
	p.strokes = append(p.strokes, []Point{p.local(pt)})
}

// ExtendStroke is ignored unless a stroke is in progress.
func (p *Pad) ExtendStroke(pt Point) {
	if !p.drawing || !finite(pt) {
		return
	}
	last := len(p.strokes) - 1
	p.strokes[last] = append(p.strokes[last], p.local(pt))
}

func (p *Pad) EndStroke() {
	p.drawing = false
}

// Reset discards every stroke. Artifacts exported earlier are unaffected.
func (p *Pad) Reset() {
	p.strokes = nil
	p.drawing = false
}

func (p *Pad) Drawing() bool {
	return p.drawing
}

func (p *Pad) HasStrokes() bool {
	return len(p.strokes) > 0
}

func (p *Pad) State() State {
	if p.HasStrokes() {
		return StateHasStrokes
	}
	return StateEmpty
}

// Export rasterises the current strokes. An empty pad yields a blank image;
// use Finalize when the result has to be a real signature.
func (p *Pad) Export() (*Artifact, error) {
	dc := gg.NewContext(p.width, p.height)
	dc.SetColor(background)
	dc.Clear()

	dc.SetColor(ink)
	dc.SetLineWidth(lineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, stroke := range p.strokes {
		if len(stroke) < 2 {
			continue
		}
		dc.MoveTo(stroke[0].X, stroke[0].Y)
		for _, pt := range stroke[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}

	return &Artifact{
		PNG:     buf.Bytes(),
		Width:   p.width,
		Height:  p.height,
		Strokes: len(p.strokes),
	}, nil
}

// Finalize exports the pad, refusing an empty capture.
func (p *Pad) Finalize() (*Artifact, error) {
	if !p.HasStrokes() {
		return nil, ErrEmptyArtifact
	}
	return p.Export()
}

func (p *Pad) local(pt Point) Point {
	return Point{X: pt.X - p.origin.X, Y: pt.Y - p.origin.Y}
}

func finite(pt Point) bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}

// Artifact is an exported signature image.
type Artifact struct {
	PNG     []byte
	Width   int
	Height  int
	Strokes int
}

// Empty reports whether the artifact carries no drawn strokes.
func (a *Artifact) Empty() bool {
	return a == nil || a.Strokes == 0 || len(a.PNG) == 0
}

// DataURL is the portable encoding stored with the signature and fed to the
// signature hash.
func (a *Artifact) DataURL() string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(a.PNG)
}

// Replay feeds recorded strokes through the pad's state machine, one
// begin/extend.../end sequence per stroke.
func Replay(p *Pad, strokes [][]Point) {
	for _, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		p.BeginStroke(stroke[0])
		for _, pt := range stroke[1:] {
			p.ExtendStroke(pt)
		}
		p.EndStroke()
	}
}
