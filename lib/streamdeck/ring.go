package streamdeck

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ringRadius = 38
	dotRadius  = 2
)

// RingImage draws one LCD segment: a circle of len(levels) dots, clockwise
// from the top, each grey in proportion to level/hi, and a label in the
// corner.
func RingImage(levels []int, hi int, label string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, SegmentWidth, LCDHeight))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	cx, cy := SegmentWidth/2, LCDHeight/2
	for i, l := range levels {
		if l <= 0 || hi <= 0 {
			continue
		}
		x, y := dotCentre(i, len(levels), cx, cy)
		g := uint8(min(l, hi) * 255 / hi)
		fillDot(img, x, y, color.Gray{Y: g})
	}

	if label != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.White,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(4, basicfont.Face7x13.Metrics().Ascent.Ceil()+2),
		}
		d.DrawString(label)
	}
	return img
}

func dotCentre(i, n, cx, cy int) (int, int) {
	a := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
	return cx + int(math.Round(ringRadius*math.Cos(a))), cy + int(math.Round(ringRadius*math.Sin(a)))
}

func fillDot(img *image.RGBA, cx, cy int, c color.Color) {
	for y := cy - dotRadius; y <= cy+dotRadius; y++ {
		for x := cx - dotRadius; x <= cx+dotRadius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= dotRadius*dotRadius {
				img.Set(x, y, c)
			}
		}
	}
}

// Segment is the LCD rectangle above an encoder.
func Segment(ring int) image.Rectangle {
	return image.Rect(ring*SegmentWidth, 0, (ring+1)*SegmentWidth, LCDHeight)
}
