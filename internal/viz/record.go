package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	gifCellWidth  = 8
	gifCellHeight = 16
	gifDelay      = 2
)

// Image rasterises the canvas with each dot as a filled block.
func (c *Canvas) Image() *image.Paletted {
	dotW, dotH := gifCellWidth/2, gifCellHeight/4
	img := image.NewPaletted(image.Rect(0, 0, c.Width*gifCellWidth, c.Height*gifCellHeight), color.Palette{color.Black, color.White})
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	return img
}

// Recorder collects canvas frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func (r *Recorder) Capture(c *Canvas) { r.frames = append(r.frames, c.Image()) }

func (r *Recorder) Len() int { return len(r.frames) }

// Save writes the frames to path and clears the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, gifDelay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return err
	}
	r.frames = nil
	return nil
}
