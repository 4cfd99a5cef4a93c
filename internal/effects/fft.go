package effects

import (
	"math"
	"math/bits"
)

// fftPlan is a table-driven in-place radix-2 FFT of a fixed power-of-two size.
// Transform allocates nothing, so it can run on the audio thread.
type fftPlan struct {
	n       int
	reverse []int
	twiddle []complex128 // e^(-2πik/n), k < n/2
}

func newFFTPlan(n int) *fftPlan {
	if n < 2 || n&(n-1) != 0 {
		panic("fft size must be a power of two")
	}
	logN := bits.TrailingZeros(uint(n))
	p := &fftPlan{
		n:       n,
		reverse: make([]int, n),
		twiddle: make([]complex128, n/2),
	}
	for i := range p.reverse {
		p.reverse[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - logN))
	}
	for k := range p.twiddle {
		s, c := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		p.twiddle[k] = complex(c, s)
	}
	return p
}

// transform computes the forward DFT of x in place, or the inverse (scaled by 1/n).
func (p *fftPlan) transform(x []complex128, inverse bool) {
	n := p.n
	for i, j := range p.reverse {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := p.twiddle[k*stride]
				if inverse {
					w = complex(real(w), -imag(w))
				}
				a := start + k
				b := a + half
				t := x[b] * w
				x[b] = x[a] - t
				x[a] += t
			}
		}
	}
	if inverse {
		scale := complex(1/float64(n), 0)
		for i := range x {
			x[i] *= scale
		}
	}
}
