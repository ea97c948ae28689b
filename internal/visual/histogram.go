package visual

import (
	"fmt"
	"image"
	"sort"
)

const (
	// Screenshot sampling grid. Coarse on purpose: we want area-dominant
	// colors, not detail.
	sampleGridWidth  = 160
	sampleGridHeight = 100

	// Each RGB channel quantized to 4 bits.
	quantShift = 4

	// Top buckets kept from the histogram.
	histogramTopN = 16
)

// HistogramColors downsamples img to a fixed grid, quantizes each sample to
// 4 bits per channel, and returns the top buckets as (hex, area-ratio)
// pairs, ranked by ratio.
func HistogramColors(img image.Image) []ColorRatio {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	counts := make(map[uint16]int)
	total := 0
	for gy := 0; gy < sampleGridHeight; gy++ {
		for gx := 0; gx < sampleGridWidth; gx++ {
			x := bounds.Min.X + gx*w/sampleGridWidth
			y := bounds.Min.Y + gy*h/sampleGridHeight
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			key := quantKey(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	buckets := make([]uint16, 0, len(counts))
	for k := range counts {
		buckets = append(buckets, k)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if counts[buckets[i]] != counts[buckets[j]] {
			return counts[buckets[i]] > counts[buckets[j]]
		}
		return buckets[i] < buckets[j]
	})
	if len(buckets) > histogramTopN {
		buckets = buckets[:histogramTopN]
	}

	out := make([]ColorRatio, 0, len(buckets))
	for _, k := range buckets {
		out = append(out, ColorRatio{
			Hex:   bucketHex(k),
			Ratio: float64(counts[k]) / float64(total),
		})
	}
	return out
}

// quantKey packs three 4-bit channels into one key.
func quantKey(r, g, b uint8) uint16 {
	return uint16(r>>quantShift)<<8 | uint16(g>>quantShift)<<4 | uint16(b>>quantShift)
}

// bucketHex maps a quantized bucket back to a representative color. A 4-bit
// level l represents [l*16, l*16+15]; l*17 spreads levels evenly over 0-255.
func bucketHex(key uint16) string {
	r := uint8(key>>8&0xF) * 17
	g := uint8(key>>4&0xF) * 17
	b := uint8(key&0xF) * 17
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
