package editor

import (
	"hash/fnv"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// The first five human classes keep their fixed palette entries; anything
// else gets a stable derived color so a class always renders the same across
// sessions.
var labelColors = map[string]color.NRGBA{
	"human1": {R: 0xff, G: 0x59, B: 0x5e, A: 0xff},
	"human2": {R: 0xff, G: 0xca, B: 0x3a, A: 0xff},
	"human3": {R: 0x8a, G: 0xc9, B: 0x26, A: 0xff},
	"human4": {R: 0x19, G: 0x82, B: 0xc4, A: 0xff},
	"human5": {R: 0x6a, G: 0x4c, B: 0x93, A: 0xff},
}

// ColorFor returns the display color for a class label. Lookup is
// case-insensitive; unknown classes map deterministically onto the HCL color
// wheel from a hash of the name.
func ColorFor(class string) color.NRGBA {
	if c, ok := labelColors[strings.ToLower(class)]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(class)))
	hue := float64(h.Sum32() % 360)
	c := colorful.Hcl(hue, 0.5, 0.7).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
