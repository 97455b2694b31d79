package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

var space = geometry.Size{Width: 400, Height: 300}

func fixtures() ([]overlay.Instruction, []overlay.Instruction) {
	hl, hover := 3, 4
	balloons := []model.Balloon{
		{Number: 3, Coordinates: model.Point{X: 100, Y: 100}, Value: model.NumberValue(12.5), Unit: "mm", Status: status.Fail},
		{Number: 4, Coordinates: model.Point{X: 200, Y: 150}, Value: model.StringValue("R5 <typ>"), Status: status.Pass},
	}
	region := model.Region{X: 250, Y: 150, Width: 100, Height: 60}
	return overlay.RenderBalloons(balloons, &hl, &hover, space),
		overlay.RenderHighlight(&region, status.Fail, "#3 FAIL", space)
}

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestSVG(t *testing.T) {
	balloons, highlight := fixtures()
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, space, SVGOptions{Background: "master.png"}, highlight, balloons))

	doc := buf.String()
	wellFormed(t, doc)
	assert.Contains(t, doc, `viewBox="0 0 400 300"`)
	assert.Contains(t, doc, `master.png`)
	assert.Contains(t, doc, "fill-rule:evenodd")
	assert.Contains(t, doc, `id="balloon-3"`)
	assert.Contains(t, doc, `data-balloon="4"`)
	assert.Contains(t, doc, `attributeName="r"`)
	assert.Contains(t, doc, `repeatCount="indefinite"`)
	assert.Contains(t, doc, "#3 FAIL")
	assert.Contains(t, doc, "R5 &lt;typ&gt;", "text is escaped")

	// The mask is painted before the balloons.
	assert.Less(t, strings.Index(doc, `class="mask"`), strings.Index(doc, `id="balloon-3"`))
}

func TestSVGStatic(t *testing.T) {
	balloons, highlight := fixtures()
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, space, SVGOptions{Static: true}, highlight, balloons))
	doc := buf.String()
	wellFormed(t, doc)
	assert.NotContains(t, doc, "<animate")
	assert.NotContains(t, doc, "<image")
}

func TestSVGUnknownSpace(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SVG(&buf, geometry.Size{}, SVGOptions{}))
}

func TestRoundedRectPath(t *testing.T) {
	assert.Equal(t, "M0 0H10V5H0Z", roundedRectPath(0, 0, 10, 5, 0))
	d := roundedRectPath(10, 10, 100, 50, 6)
	assert.True(t, strings.HasPrefix(d, "M16 10H104A6 6 0 0 1 110 16"), d)
	assert.Equal(t, 4, strings.Count(d, "A"))
}

func TestCSS(t *testing.T) {
	in := overlay.Instruction{Fill: "#ef4444", FillOpacity: 0.12, Stroke: "#ef4444", StrokeWidth: 3, Opacity: 1}
	assert.Equal(t, "fill:#ef4444;fill-opacity:0.12;stroke:#ef4444;stroke-width:3", css(in))

	in = overlay.Instruction{Stroke: "#000000", StrokeWidth: 2, Opacity: 0.6}
	assert.Equal(t, "fill:none;stroke:#000000;stroke-width:2;opacity:0.6", css(in))
}

func TestSettle(t *testing.T) {
	in := overlay.Instruction{R: 18, Opacity: 1, StrokeWidth: 1, Animations: []overlay.Animation{
		{Attr: "r", Values: []float64{18, 28}},
		{Attr: "opacity", Values: []float64{0.6, 0}},
		{Attr: "stroke-width", Values: []float64{2, 5, 2}},
	}}
	out := settle(in)
	assert.Equal(t, 18.0, out.R)
	assert.Equal(t, 0.6, out.Opacity)
	assert.Equal(t, 2.0, out.StrokeWidth)
	assert.Empty(t, out.Animations)
}

func TestRasterize(t *testing.T) {
	_, highlight := fixtures()
	img, err := Rasterize(space, highlight)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())

	// Outside the region the mask dims the canvas.
	_, _, _, a := img.At(20, 20).RGBA()
	assert.InDelta(t, 0.35*0xffff, float64(a), 0.02*0xffff)

	// Inside the region only the faint tint remains.
	_, _, _, a = img.At(300, 170).RGBA()
	assert.Less(t, float64(a), 0.2*0xffff)
}

func TestRasterizeRejectsHugeSpace(t *testing.T) {
	// One runaway balloon coordinate grows the resolved space.
	balloons := []model.Balloon{{Number: 1, Coordinates: model.Point{X: 1e12, Y: 100}, Status: status.Fail}}
	huge := geometry.Resolve(balloons, nil, nil)
	layer := overlay.RenderBalloons(balloons, nil, nil, huge)

	_, err := Rasterize(huge, layer)
	assert.ErrorIs(t, err, imaging.ErrTooLarge)

	var buf bytes.Buffer
	assert.ErrorIs(t, PNG(&buf, huge, nil, layer), imaging.ErrTooLarge)
	assert.Zero(t, buf.Len())

	// The vector backend has no allocation tied to the space.
	buf.Reset()
	require.NoError(t, SVG(&buf, huge, SVGOptions{Static: true}, layer))
}

func TestRasterizeMarkerColor(t *testing.T) {
	balloons, _ := fixtures()
	img, err := Rasterize(space, balloons)
	require.NoError(t, err)

	// Balloon 4 marker centered at (225,125); sample left of the number.
	c := color.NRGBAModel.Convert(img.At(225-9, 125)).(color.NRGBA)
	want := rgba(status.StyleOf(status.Pass).Hex(), 1).(color.NRGBA)
	assert.InDelta(t, want.R, c.R, 2)
	assert.InDelta(t, want.G, c.G, 2)
	assert.InDelta(t, want.B, c.B, 2)
	assert.Equal(t, uint8(255), c.A)
}

func TestPNG(t *testing.T) {
	balloons, highlight := fixtures()
	drawing := image.NewRGBA(image.Rect(0, 0, 800, 600))

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, space, drawing, highlight, balloons))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRGBA(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 128}, rgba("#ef4444", 0.5))
	assert.Equal(t, color.Transparent, rgba("", 1))
	assert.Equal(t, color.Transparent, rgba("nope", 1))
}
