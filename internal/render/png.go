package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// RenderPNG rasterizes a compiled draw command buffer to a PNG image of the
// given pixel dimensions.
func RenderPNG(commands []DrawCommand, width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    12,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)

	for _, cmd := range commands {
		switch cmd.Op {
		case "polyline":
			if len(cmd.Points) < 2 {
				continue
			}
			dc.SetColor(color.Black)
			dc.SetLineWidth(max(cmd.Size, 1))
			dc.MoveTo(cmd.Points[0][0], cmd.Points[0][1])
			for _, p := range cmd.Points[1:] {
				dc.LineTo(p[0], p[1])
			}
			if cmd.Closed {
				dc.ClosePath()
			}
			dc.Stroke()

		case "dot":
			if len(cmd.Points) == 0 {
				continue
			}
			if cmd.Selected {
				dc.SetRGB(0.1, 0.35, 0.9)
			} else {
				dc.SetColor(color.Black)
			}
			dc.DrawCircle(cmd.Points[0][0], cmd.Points[0][1], max(cmd.Size, 1))
			dc.Fill()

		case "text":
			if len(cmd.Points) == 0 || cmd.Text == "" {
				continue
			}
			dc.SetColor(color.Black)
			dc.DrawString(cmd.Text, cmd.Points[0][0], cmd.Points[0][1])

		case "rect":
			if len(cmd.Points) < 2 {
				continue
			}
			dc.SetRGB(0.1, 0.35, 0.9)
			dc.SetLineWidth(1)
			dc.DrawRectangle(
				cmd.Points[0][0],
				cmd.Points[0][1],
				cmd.Points[1][0]-cmd.Points[0][0],
				cmd.Points[1][1]-cmd.Points[0][1],
			)
			dc.Stroke()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
