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
	"errors"
	"testing"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

const tolerance = 1.e-10

func TestInterpolateColumn(t *testing.T) {
	sourceLevels := []float64{20000, 50000, 90000}
	sourceValues := []float64{10, 20, 30}
	targetLevels := []float64{10000, 35000, 70000, 95000}
	want := []float64{10, 15, 25, 30} // clamp, interpolate, interpolate, clamp

	got, err := InterpolateColumn(targetLevels, sourceLevels, sourceValues)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(got, want, tolerance) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInterpolateColumn_clamp(t *testing.T) {
	sourceLevels := []float64{20000, 50000, 90000}
	sourceValues := []float64{10, 20, 30}
	targetLevels := []float64{1, 100, 19999, 90001, 200000}

	got, err := InterpolateColumn(targetLevels, sourceLevels, sourceValues)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got[:3] {
		if v != 10 {
			t.Errorf("target %d below column: got %g, want 10", i, v)
		}
	}
	for i, v := range got[3:] {
		if v != 30 {
			t.Errorf("target %d above column: got %g, want 30", i, v)
		}
	}
}

func TestInterpolateColumn_idempotent(t *testing.T) {
	sourceLevels := []float64{20000, 35000, 50000, 70000, 90000}
	sourceValues := []float64{4, 8, 15, 16, 23}

	got, err := InterpolateColumn(sourceLevels, sourceLevels, sourceValues)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(got, sourceValues, tolerance) {
		t.Errorf("got %v, want %v", got, sourceValues)
	}
}

func TestInterpolateColumn_decreasing(t *testing.T) {
	// A column with pressure decreasing along the level axis must give the
	// same answer as its increasing mirror image.
	sourceLevels := []float64{90000, 50000, 20000}
	sourceValues := []float64{30, 20, 10}
	targetLevels := []float64{10000, 35000, 70000, 95000}
	want := []float64{10, 15, 25, 30}

	got, err := InterpolateColumn(targetLevels, sourceLevels, sourceValues)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(got, want, tolerance) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInterpolateColumn_nonMonotonic(t *testing.T) {
	_, err := InterpolateColumn([]float64{50000},
		[]float64{20000, 90000, 50000}, []float64{10, 20, 30})
	var nmErr NonMonotonicError
	if !errors.As(err, &nmErr) {
		t.Fatalf("got %v, want NonMonotonicError", err)
	}
}

func TestInterpolateColumn_shapeMismatch(t *testing.T) {
	_, err := InterpolateColumn([]float64{50000},
		[]float64{20000, 50000, 90000}, []float64{10, 20})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("got %v, want ShapeError", err)
	}
}

// columnField returns a rank-3 (level, ny, nx) array holding the same
// vertical profile in every column, offset by the column index so that
// column mix-ups are detectable.
func columnField(profile []float64, ny, nx int, columnOffset float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(profile), ny, nx)
	for k, v := range profile {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				d.Set(v+columnOffset*float64(j*nx+i), k, j, i)
			}
		}
	}
	return d
}

func TestInterpolateToPressureLevels_rank3(t *testing.T) {
	const ny, nx = 10, 10
	pressure := columnField([]float64{20000, 50000, 90000}, ny, nx, 0)
	values := columnField([]float64{10, 20, 30}, ny, nx, 1)
	targetLevels := []float64{10000, 35000, 70000, 95000}

	out, err := InterpolateToPressureLevels(values, pressure, targetLevels)
	if err != nil {
		t.Fatal(err)
	}
	wantShape := []int{len(targetLevels), ny, nx}
	if !shapesEqual(out.Shape, wantShape) {
		t.Fatalf("output shape: got %v, want %v", out.Shape, wantShape)
	}
	want := []float64{10, 15, 25, 30}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			offset := float64(j*nx + i)
			for m, w := range want {
				if got := out.Get(m, j, i); !floats.EqualWithinAbs(got, w+offset, tolerance) {
					t.Fatalf("column (%d,%d) level %d: got %g, want %g",
						j, i, m, got, w+offset)
				}
			}
		}
	}
}

func TestInterpolateToPressureLevels_rank4(t *testing.T) {
	const nt, nz, ny, nx = 3, 3, 10, 10
	pressure := sparse.ZerosDense(nt, nz, ny, nx)
	values := sparse.ZerosDense(nt, nz, ny, nx)
	levels := []float64{20000, 50000, 90000}
	profile := []float64{10, 20, 30}
	for tt := 0; tt < nt; tt++ {
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					pressure.Set(levels[k], tt, k, j, i)
					values.Set(profile[k]+100*float64(tt), tt, k, j, i)
				}
			}
		}
	}
	targetLevels := []float64{10000, 35000, 70000, 95000}

	out, err := InterpolateToPressureLevels(values, pressure, targetLevels)
	if err != nil {
		t.Fatal(err)
	}
	wantShape := []int{nt, len(targetLevels), ny, nx}
	if !shapesEqual(out.Shape, wantShape) {
		t.Fatalf("output shape: got %v, want %v", out.Shape, wantShape)
	}
	want := []float64{10, 15, 25, 30}
	for tt := 0; tt < nt; tt++ {
		for m, w := range want {
			if got := out.Get(tt, m, 0, 0); !floats.EqualWithinAbs(got, w+100*float64(tt), tolerance) {
				t.Fatalf("time %d level %d: got %g, want %g", tt, m, got, w+100*float64(tt))
			}
		}
	}
}

func TestInterpolateToPressureLevels_shapeMismatch(t *testing.T) {
	values := sparse.ZerosDense(5, 4, 4)
	pressure := sparse.ZerosDense(5, 3, 4)
	_, err := InterpolateToPressureLevels(values, pressure, []float64{50000})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("got %v, want ShapeError", err)
	}
}

func TestInterpolateToPressureLevels_unsupportedRank(t *testing.T) {
	for _, rank := range []int{1, 2, 5} {
		shape := make([]int, rank)
		for i := range shape {
			shape[i] = 2
		}
		a := sparse.ZerosDense(shape...)
		_, err := InterpolateToPressureLevels(a, a, []float64{50000})
		var rankErr RankError
		if !errors.As(err, &rankErr) {
			t.Fatalf("rank %d: got %v, want RankError", rank, err)
		}
		if rankErr.Rank != rank {
			t.Errorf("reported rank: got %d, want %d", rankErr.Rank, rank)
		}
	}
}

func TestInterpolateToPressureLevels_nonMonotonicColumn(t *testing.T) {
	const ny, nx = 4, 4
	pressure := columnField([]float64{20000, 50000, 90000}, ny, nx, 0)
	values := columnField([]float64{10, 20, 30}, ny, nx, 0)
	// Scramble one column's pressure coordinate.
	pressure.Set(95000, 0, 2, 3)
	pressure.Set(15000, 1, 2, 3)

	_, err := InterpolateToPressureLevels(values, pressure, []float64{50000})
	var nmErr NonMonotonicError
	if !errors.As(err, &nmErr) {
		t.Fatalf("got %v, want NonMonotonicError", err)
	}
	if nmErr.J != 2 || nmErr.I != 3 {
		t.Errorf("offending column: got (%d,%d), want (2,3)", nmErr.J, nmErr.I)
	}
}

func BenchmarkInterpolateToPressureLevels(b *testing.B) {
	const nz, ny, nx = 30, 100, 100
	pressure := sparse.ZerosDense(nz, ny, nx)
	values := sparse.ZerosDense(nz, ny, nx)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				pressure.Set(1000+float64(k)*3000, k, j, i)
				values.Set(float64(k*j+i), k, j, i)
			}
		}
	}
	targetLevels := make([]float64, 37)
	floats.Span(targetLevels, 1000, 100000)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := InterpolateToPressureLevels(values, pressure, targetLevels); err != nil {
			b.Fatal(err)
		}
	}
}
