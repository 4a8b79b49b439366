package extract

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"sort"

	"github.com/merchantiq/docengine/internal/config"
)

const minRecognitionWidth = 1200

// PreprocessImage runs the configured enhancement steps over a scanned page
// and re-encodes it as PNG for the recognizer. Each applied step is named in
// the returned improvements list. Decode failure returns the input unchanged.
func PreprocessImage(data []byte, cfg config.PreprocessConfig) ([]byte, []string) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, []string{"preprocessing skipped - undecodable image"}
	}

	var improvements []string
	gray := toGray(img)

	if cfg.Upscale && gray.Bounds().Dx() < minRecognitionWidth {
		gray = upscaleBilinear(gray, minRecognitionWidth)
		improvements = append(improvements, "resolution upscaling applied")
	}
	if cfg.Contrast {
		gray = stretchContrast(gray, 5, 95)
		improvements = append(improvements, "contrast and brightness optimization")
	}
	if cfg.Denoise {
		gray = medianFilter(gray)
		improvements = append(improvements, "noise reduction filter")
	}
	if cfg.Sharpen {
		gray = unsharpMask(gray, 0.6)
		improvements = append(improvements, "text sharpening")
	}
	if cfg.Grayscale {
		gray = applyGamma(gray, 1.2)
		improvements = append(improvements, "grayscale conversion with gamma correction")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return data, improvements
	}
	return buf.Bytes(), improvements
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func upscaleBilinear(src *image.Gray, targetWidth int) *image.Gray {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	scale := float64(targetWidth) / float64(srcW)
	dstW := targetWidth
	dstH := int(math.Round(float64(srcH) * scale))
	dst := image.NewGray(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		sy := float64(y) / scale
		y0 := int(sy)
		y1 := y0 + 1
		if y1 >= srcH {
			y1 = srcH - 1
		}
		fy := sy - float64(y0)
		for x := 0; x < dstW; x++ {
			sx := float64(x) / scale
			x0 := int(sx)
			x1 := x0 + 1
			if x1 >= srcW {
				x1 = srcW - 1
			}
			fx := sx - float64(x0)
			top := float64(src.GrayAt(x0, y0).Y)*(1-fx) + float64(src.GrayAt(x1, y0).Y)*fx
			bottom := float64(src.GrayAt(x0, y1).Y)*(1-fx) + float64(src.GrayAt(x1, y1).Y)*fx
			dst.SetGray(x, y, color.Gray{Y: uint8(math.Round(top*(1-fy) + bottom*fy))})
		}
	}
	return dst
}

// stretchContrast maps the given luminance percentiles onto the full range.
func stretchContrast(src *image.Gray, lowPct, highPct int) *image.Gray {
	var hist [256]int
	total := 0
	for _, v := range src.Pix {
		hist[v]++
		total++
	}
	if total == 0 {
		return src
	}
	low := percentileLevel(hist[:], total, lowPct)
	high := percentileLevel(hist[:], total, highPct)
	if high <= low {
		return src
	}
	dst := image.NewGray(src.Bounds())
	scale := 255.0 / float64(high-low)
	for i, v := range src.Pix {
		mapped := (float64(v) - float64(low)) * scale
		dst.Pix[i] = clampByte(mapped)
	}
	return dst
}

func percentileLevel(hist []int, total, pct int) int {
	target := total * pct / 100
	acc := 0
	for level, count := range hist {
		acc += count
		if acc >= target {
			return level
		}
	}
	return 255
}

func medianFilter(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	var window [9]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					window[n] = int(src.GrayAt(px, py).Y)
					n++
				}
			}
			values := window[:n]
			sort.Ints(values)
			dst.SetGray(x, y, color.Gray{Y: uint8(values[n/2])})
		}
	}
	return dst
}

func unsharpMask(src *image.Gray, amount float64) *image.Gray {
	blurred := boxBlur(src)
	dst := image.NewGray(src.Bounds())
	for i := range src.Pix {
		orig := float64(src.Pix[i])
		sharp := orig + amount*(orig-float64(blurred.Pix[i]))
		dst.Pix[i] = clampByte(sharp)
	}
	return dst
}

func boxBlur(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum, n := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					sum += int(src.GrayAt(px, py).Y)
					n++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return dst
}

func applyGamma(src *image.Gray, gamma float64) *image.Gray {
	var table [256]uint8
	for i := range table {
		table[i] = clampByte(255 * math.Pow(float64(i)/255, gamma))
	}
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = table[v]
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
