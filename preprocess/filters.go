package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// grayscale flattens src onto white paper and converts it to gray. The
// result has its origin at (0,0) and every pixel has R == G == B.
func grayscale(src image.Image) *image.NRGBA {
	b := src.Bounds()
	paper := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Grayscale(imaging.Overlay(paper, src, image.Pt(0, 0), 1))
}

// normalize stretches the intensity range of a gray image to [0,255].
// Flat images and images already spanning the full range are returned as is.
func normalize(img *image.NRGBA) *image.NRGBA {
	lo, hi := intensityRange(img)
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}
	span := float64(hi - lo)
	var lut [256]uint8
	for v := int(lo); v <= int(hi); v++ {
		lut[v] = clampByte(float64(v-int(lo)) * 255 / span)
	}
	for v := int(hi) + 1; v < 256; v++ {
		lut[v] = 255
	}
	return applyLUT(img, &lut)
}

// intensityRange returns the darkest and brightest gray level in img.
func intensityRange(img *image.NRGBA) (lo, hi uint8) {
	lo, hi = 255, 0
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			v := row[i]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// sharpen convolves img with sharpenKernel. Edge pixels are extended.
func sharpen(img *image.NRGBA) *image.NRGBA {
	return imaging.Convolve3x3(img, sharpenKernel, nil)
}

// linear applies v' = slope*v + intercept.
func linear(img *image.NRGBA, slope, intercept float64) *image.NRGBA {
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		lut[v] = clampByte(slope*float64(v) + intercept)
	}
	return applyLUT(img, &lut)
}

func applyLUT(img *image.NRGBA, lut *[256]uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

// median applies a 3x3 median filter to a gray image. Edge pixels are extended.
func median(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					win[n] = img.Pix[clampInt(y+ky, h)*img.Stride+clampInt(x+kx, w)*4]
					n++
				}
			}
			insertionSort(win[:])
			off := y*dst.Stride + x*4
			v := win[4]
			dst.Pix[off], dst.Pix[off+1], dst.Pix[off+2] = v, v, v
			dst.Pix[off+3] = img.Pix[y*img.Stride+x*4+3]
		}
	}
	return dst
}

// upscale enlarges img by factor using Catmull-Rom resampling.
func upscale(img *image.NRGBA, factor int) *image.NRGBA {
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.CatmullRom)
}

// toGray converts a gray NRGBA image to an 8-bit image for compact encoding.
func toGray(img *image.NRGBA) *image.Gray {
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g
}

func insertionSort(a []uint8) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
