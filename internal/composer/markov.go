package composer

import (
	"errors"
	"fmt"
	"math"
)

// RowTolerance is how far a row sum may stray from 1.
const RowTolerance = 1e-9

// Rand is the random source the composer draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// TransitionMatrix is a square row-stochastic matrix over palette indices.
type TransitionMatrix [][]float64

// NewTransitionMatrix validates rows and returns a copy.
func NewTransitionMatrix(rows [][]float64) (TransitionMatrix, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty transition matrix")
	}
	m := make(TransitionMatrix, len(rows))
	for i, row := range rows {
		if len(row) != len(rows) {
			return nil, fmt.Errorf("transition row %d has %d columns, want %d", i, len(row), len(rows))
		}
		var sum float64
		for j, p := range row {
			if p < 0 || math.IsNaN(p) {
				return nil, fmt.Errorf("transition [%d][%d] = %v is not a probability", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > RowTolerance {
			return nil, fmt.Errorf("transition row %d sums to %v", i, sum)
		}
		m[i] = append([]float64(nil), row...)
	}
	return m, nil
}

// NormalizeRows scales every row of weights to sum to 1 and validates the result.
func NormalizeRows(weights [][]float64) (TransitionMatrix, error) {
	rows := make([][]float64, len(weights))
	for i, w := range weights {
		var sum float64
		for _, v := range w {
			sum += v
		}
		if sum <= 0 {
			return nil, fmt.Errorf("transition row %d has no weight", i)
		}
		rows[i] = make([]float64, len(w))
		for j, v := range w {
			rows[i][j] = v / sum
		}
	}
	return NewTransitionMatrix(rows)
}

// DefaultMatrix favours moves toward IV and vi and resolves V home to I.
func DefaultMatrix() TransitionMatrix {
	return TransitionMatrix{
		{0.10, 0.35, 0.35, 0.20},
		{0.35, 0.10, 0.25, 0.30},
		{0.20, 0.40, 0.10, 0.30},
		{0.55, 0.15, 0.25, 0.05},
	}
}

// Pick selects a column of row by cumulative roulette for r in [0,1). The last
// non-zero bucket absorbs rounding residue, so a valid row always yields an index.
func (m TransitionMatrix) Pick(row int, r float64) int {
	var acc float64
	last := -1
	for j, p := range m[row] {
		if p == 0 {
			continue
		}
		acc += p
		last = j
		if r < acc {
			return j
		}
	}
	if last < 0 {
		return row
	}
	return last
}

// Stationary returns the stationary distribution by power iteration on the lazy
// chain (I+M)/2, which shares M's fixed point and converges for periodic M too.
func (m TransitionMatrix) Stationary() []float64 {
	n := len(m)
	pi := make([]float64, n)
	next := make([]float64, n)
	for i := range pi {
		pi[i] = 1 / float64(n)
	}
	for iter := 0; iter < 100000; iter++ {
		for j := range next {
			next[j] = pi[j] / 2
		}
		for i, row := range m {
			for j, p := range row {
				next[j] += pi[i] * p / 2
			}
		}
		var diff float64
		for j := range pi {
			diff += math.Abs(next[j] - pi[j])
		}
		pi, next = next, pi
		if diff < 1e-14 {
			break
		}
	}
	return pi
}

// Markov walks a transition matrix.
type Markov struct {
	m   TransitionMatrix
	cur int
}

func NewMarkov(m TransitionMatrix, start int) *Markov {
	return &Markov{m: m, cur: start}
}

// Current returns the current state index.
func (k *Markov) Current() int { return k.cur }

// Next moves to the next state drawn from the current row.
func (k *Markov) Next(r Rand) int {
	k.cur = k.m.Pick(k.cur, r.Float64())
	return k.cur
}
