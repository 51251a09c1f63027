package buffer

import "OppRadar/internal/domain/models"

// ring is a fixed-capacity FIFO of price samples. push is O(1); when full
// the oldest sample is overwritten.
type ring struct {
	data  []models.PriceSample
	start int
	count int
}

func newRing(capacity int) *ring {
	return &ring{data: make([]models.PriceSample, capacity)}
}

func (r *ring) push(s models.PriceSample) {
	if r.count < len(r.data) {
		r.data[(r.start+r.count)%len(r.data)] = s
		r.count++
		return
	}
	r.data[r.start] = s
	r.start = (r.start + 1) % len(r.data)
}

func (r *ring) len() int { return r.count }

// copyOut returns the samples oldest-first in a fresh slice.
func (r *ring) copyOut() []models.PriceSample {
	out := make([]models.PriceSample, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.data[(r.start+i)%len(r.data)]
	}
	return out
}
