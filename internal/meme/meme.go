// Package meme draws caption text onto a base image.
package meme

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // base images may be PNG
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrEmptyText is returned when there is nothing to draw.
var ErrEmptyText = errors.New("meme text is empty")

const (
	defaultWidth    = 800
	defaultHeight   = 600
	defaultFontSize = 40
	defaultQuality  = 90
	bottomMargin    = 50
	sideMargin      = 20
	maxTextRunes    = 280
)

// Options configures a Generator. Empty paths select the built-in canvas and face.
type Options struct {
	BaseImagePath string
	FontPath      string
	FontSize      float64
	Quality       int
}

// Generator renders captions. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	base    image.Image
	face    font.Face
	scale   int
	stroke  int
	quality int
}

// New loads the base image and font face described by opts.
func New(opts Options) (*Generator, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = defaultFontSize
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}

	g := &Generator{quality: opts.Quality}

	if opts.BaseImagePath != "" {
		base, err := loadImage(opts.BaseImagePath)
		if err != nil {
			return nil, err
		}
		g.base = base
	} else {
		g.base = plainCanvas(defaultWidth, defaultHeight)
	}

	if opts.FontPath != "" {
		face, err := loadFace(opts.FontPath, opts.FontSize)
		if err != nil {
			return nil, err
		}
		g.face, g.scale, g.stroke = face, 1, 2
	} else {
		// The built-in face is 13px tall; scale it up to roughly the requested size.
		g.face = basicfont.Face7x13
		g.scale = max(1, int(opts.FontSize/13+0.5))
		g.stroke = 1
	}
	return g, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open base image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode base image: %w", err)
	}
	return img, nil
}

func loadFace(path string, size float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	parsed, err := opentype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

func plainCanvas(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x22, G: 0x22, B: 0x2a, A: 0xff}), image.Point{}, draw.Src)
	return img
}

// Render returns the base image with text centered near the bottom,
// white with a black outline.
func (g *Generator) Render(text string) (image.Image, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil, ErrEmptyText
	}
	if r := []rune(text); len(r) > maxTextRunes {
		text = string(r[:maxTextRunes])
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	bounds := g.base.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), g.base, bounds.Min, draw.Src)

	maxWidth := (bounds.Dx() - 2*sideMargin) / g.scale
	layer := g.textLayer(wrap(g.face, text, maxWidth))
	if g.scale > 1 {
		lb := layer.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, lb.Dx()*g.scale, lb.Dy()*g.scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), layer, lb, draw.Over, nil)
		layer = scaled
	}

	lb := layer.Bounds()
	x := max(0, (bounds.Dx()-lb.Dx())/2)
	y := max(0, bounds.Dy()-lb.Dy()-bottomMargin)
	draw.Draw(canvas, lb.Add(image.Pt(x, y)), layer, image.Point{}, draw.Over)
	return canvas, nil
}

// RenderJPEG renders text and writes the result as JPEG.
func (g *Generator) RenderJPEG(w io.Writer, text string) error {
	img, err := g.Render(text)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: g.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

func (g *Generator) textLayer(lines []string) *image.RGBA {
	metrics := g.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	width := 0
	for _, line := range lines {
		width = max(width, font.MeasureString(g.face, line).Ceil())
	}
	s := g.stroke
	layer := image.NewRGBA(image.Rect(0, 0, width+2*s, len(lines)*lineHeight+2*s))

	outline := image.NewUniform(color.Black)
	fill := image.NewUniform(color.White)
	for i, line := range lines {
		lw := font.MeasureString(g.face, line).Ceil()
		x := s + (width-lw)/2
		y := s + ascent + i*lineHeight

		for dx := -s; dx <= s; dx++ {
			for dy := -s; dy <= s; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				g.drawString(layer, outline, line, x+dx, y+dy)
			}
		}
		g.drawString(layer, fill, line, x, y)
	}
	return layer
}

func (g *Generator) drawString(dst draw.Image, src image.Image, s string, x, y int) {
	d := font.Drawer{Dst: dst, Src: src, Face: g.face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

// wrap breaks text into lines no wider than maxWidth pixels. A single word
// wider than maxWidth gets a line of its own.
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
