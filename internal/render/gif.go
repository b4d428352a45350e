package render

import (
	"fmt"
	"image"
	"image/color/palette"
	imgdraw "image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
)

// NativeGIF assembles the PNG frames in framesDir into a looping GIF
// without ffmpeg. Colors are reduced to the Plan 9 palette with
// Floyd-Steinberg dithering.
func NativeGIF(framesDir, out string, fps int) error {
	paths, err := filepath.Glob(filepath.Join(framesDir, "[0-9][0-9][0-9][0-9].png"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: no frames in %s", ErrEncoding, framesDir)
	}
	sort.Strings(paths)

	delay := 100 / max(fps, 1)
	anim := gif.GIF{LoopCount: 0}
	for _, p := range paths {
		img, err := readPNG(p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEncoding, p, err)
		}
		pal := image.NewPaletted(img.Bounds(), palette.Plan9)
		imgdraw.FloydSteinberg.Draw(pal, img.Bounds(), img, img.Bounds().Min)

		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, &anim); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return f.Close()
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
