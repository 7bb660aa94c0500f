/*
Copyright © 2018 the hacknostics authors.
This file is part of hacknostics.

hacknostics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

hacknostics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with hacknostics.  If not, see <http://www.gnu.org/licenses/>.
*/

package hacknostics

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
)

// InterpolateColumn interpolates one vertical column of data from
// sourceLevels onto targetLevels by piecewise-linear interpolation.
// Target levels outside the range of sourceLevels are clamped to the
// nearest endpoint value rather than extrapolated, to avoid producing
// physically implausible values outside the observed column.
// sourceLevels may be either increasing or decreasing, but must be
// monotonic.
func InterpolateColumn(targetLevels, sourceLevels, sourceValues []float64) ([]float64, error) {
	if len(sourceLevels) != len(sourceValues) {
		return nil, ShapeError{
			Name1: "sourceLevels", Shape1: []int{len(sourceLevels)},
			Name2: "sourceValues", Shape2: []int{len(sourceValues)},
		}
	}
	if len(sourceLevels) == 0 {
		return nil, fmt.Errorf("hacknostics: empty source column")
	}
	if !monotonic(sourceLevels) {
		return nil, NonMonotonicError{}
	}
	out := make([]float64, len(targetLevels))
	buf := newColumnBuffer(len(sourceLevels))
	buf.interpolate(out, targetLevels, sourceLevels, sourceValues)
	return out, nil
}

// InterpolateToPressureLevels interpolates values, defined on per-column
// pressure coordinates, onto the fixed targetLevels. values and pressure
// must have identical shapes of rank 3 (level, y, x) or rank 4
// (time, level, y, x); pressure holds the pressure at each element of
// values, and targetLevels must use the same pressure unit as pressure.
// The output replaces the level axis with one of length len(targetLevels).
//
// Columns are interpolated independently, in parallel across grid rows.
// A column with a non-monotonic pressure coordinate fails the whole call
// with a NonMonotonicError; no partial results are returned.
func InterpolateToPressureLevels(values, pressure *sparse.DenseArray, targetLevels []float64) (*sparse.DenseArray, error) {
	rank := len(values.Shape)
	if rank != 3 && rank != 4 {
		return nil, RankError{Rank: rank}
	}
	if !shapesEqual(values.Shape, pressure.Shape) {
		return nil, ShapeError{
			Name1: "values", Shape1: values.Shape,
			Name2: "pressure", Shape2: pressure.Shape,
		}
	}

	// Rank 3 is treated as a single leading batch (time) axis of length 1
	// so both ranks share one code path.
	nt := 1
	sh := values.Shape
	if rank == 4 {
		nt, sh = sh[0], sh[1:]
	}
	nz, ny, nx := sh[0], sh[1], sh[2]
	nl := len(targetLevels)

	var out *sparse.DenseArray
	if rank == 4 {
		out = sparse.ZerosDense(nt, nl, ny, nx)
	} else {
		out = sparse.ZerosDense(nl, ny, nx)
	}

	errChan := make(chan error)
	for t := 0; t < nt; t++ {
		for j := 0; j < ny; j++ {
			go func(t, j int) { // concurrent processing; each row owns a disjoint output slice
				buf := newColumnBuffer(nz)
				pcol := make([]float64, nz)
				vcol := make([]float64, nz)
				dst := make([]float64, nl)
				base := t * nz * ny * nx
				obase := t * nl * ny * nx
				for i := 0; i < nx; i++ {
					for k := 0; k < nz; k++ {
						idx := base + (k*ny+j)*nx + i
						pcol[k] = pressure.Elements[idx]
						vcol[k] = values.Elements[idx]
					}
					if !monotonic(pcol) {
						errChan <- NonMonotonicError{T: t, J: j, I: i}
						return
					}
					buf.interpolate(dst, targetLevels, pcol, vcol)
					for m := 0; m < nl; m++ {
						out.Elements[obase+(m*ny+j)*nx+i] = dst[m]
					}
				}
				errChan <- nil
			}(t, j)
		}
	}
	var firstErr error
	for n := 0; n < nt*ny; n++ { // wait for routines to finish
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// columnBuffer holds scratch space for reordering decreasing columns so
// that repeated column interpolations do not allocate.
type columnBuffer struct {
	p, v []float64
}

func newColumnBuffer(nz int) *columnBuffer {
	return &columnBuffer{p: make([]float64, nz), v: make([]float64, nz)}
}

// interpolate fills dst with vals interpolated from the coordinates src
// onto targets, clamping outside the range of src. src and vals must have
// equal length, and src must be monotonic (either direction).
func (b *columnBuffer) interpolate(dst, targets, src, vals []float64) {
	n := len(src)
	p, v := src, vals
	if src[0] > src[n-1] { // decreasing coordinate; flip into scratch
		for i := range src {
			b.p[n-1-i] = src[i]
			b.v[n-1-i] = vals[i]
		}
		p, v = b.p[:n], b.v[:n]
	}
	pmin, pmax := p[0], p[n-1]
	for m, t := range targets {
		switch {
		case t <= pmin:
			dst[m] = v[0]
		case t >= pmax:
			dst[m] = v[n-1]
		default:
			k := sort.SearchFloat64s(p, t) // p[k-1] < t <= p[k]
			dst[m] = v[k-1] + (t-p[k-1])*(v[k]-v[k-1])/(p[k]-p[k-1])
		}
	}
}

// monotonic reports whether x is entirely non-decreasing or entirely
// non-increasing.
func monotonic(x []float64) bool {
	var up, down bool
	for i := 1; i < len(x); i++ {
		if x[i] > x[i-1] {
			up = true
		} else if x[i] < x[i-1] {
			down = true
		}
	}
	return !(up && down)
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if b[i] != v {
			return false
		}
	}
	return true
}
