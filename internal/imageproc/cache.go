package imageproc

import "sync"

type dimKey struct {
	w, h, boxW, boxH int
}

// DimensionCache memoizes fit-dimension results. Shared read-mostly across
// jobs; constructed once in main and injected - never a package-level
// singleton.
type DimensionCache struct {
	mu sync.RWMutex
	m  map[dimKey][2]int
}

func NewDimensionCache() *DimensionCache {
	return &DimensionCache{m: make(map[dimKey][2]int)}
}

// Fit returns the memoized bounding-box fit for (w,h) into (boxW,boxH).
func (c *DimensionCache) Fit(w, h, boxW, boxH int) (int, int) {
	key := dimKey{w: w, h: h, boxW: boxW, boxH: boxH}

	c.mu.RLock()
	dims, ok := c.m[key]
	c.mu.RUnlock()
	if ok {
		return dims[0], dims[1]
	}

	nw, nh := fitBox(w, h, boxW, boxH)

	c.mu.Lock()
	c.m[key] = [2]int{nw, nh}
	c.mu.Unlock()

	return nw, nh
}

// fitBox - scale = min(boxW/w, boxH/h) capped at 1.0 (thumbnail semantics,
// never upscaled), results truncated toward zero.
func fitBox(w, h, boxW, boxH int) (int, int) {
	scale := float64(boxW) / float64(w)
	if s := float64(boxH) / float64(h); s < scale {
		scale = s
	}
	if scale > 1.0 {
		scale = 1.0
	}

	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
