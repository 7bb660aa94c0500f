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

// Package hacknostics regrids gridded climate model output for comparison
// against observational climatologies. Fields defined on model hybrid-sigma
// levels, where the pressure of each level varies by grid column, are
// interpolated onto a fixed set of pressure levels, and fields can be
// remapped between horizontal grids using a precomputed weight operator.
package hacknostics

import "fmt"

// ShapeError reports two arrays that were expected to agree on dimension
// lengths but do not.
type ShapeError struct {
	Name1, Name2   string
	Shape1, Shape2 []int
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("hacknostics: shape mismatch: %s%v vs. %s%v",
		e.Name1, e.Shape1, e.Name2, e.Shape2)
}

// RankError reports an array with a number of dimensions that the
// interpolation driver does not handle.
type RankError struct {
	Rank int
}

func (e RankError) Error() string {
	return fmt.Sprintf("hacknostics: unsupported rank %d; need a 3-d (level, y, x) "+
		"or 4-d (time, level, y, x) array", e.Rank)
}

// NonMonotonicError reports a grid column whose pressure coordinate is not
// monotonic, which makes interpolation along it ill-defined.
type NonMonotonicError struct {
	T, J, I int
}

func (e NonMonotonicError) Error() string {
	return fmt.Sprintf("hacknostics: non-monotonic pressure column at "+
		"(t,j,i)=(%d,%d,%d)", e.T, e.J, e.I)
}

// ToPressureLevels interpolates field v from model hybrid-sigma levels onto
// the given target pressure levels [Pa]. ps is the surface pressure field
// [Pa], which must share all of v's dimensions except the vertical one, and
// hy holds the hybrid coefficients for v's vertical coordinate. The result
// carries v's metadata with the vertical coordinate replaced by targetLevels.
func ToPressureLevels(v, ps *Field, hy *HybridCoords, targetLevels []float64) (*Field, error) {
	levDim, err := v.LevelDim(ps)
	if err != nil {
		return nil, err
	}
	pressure, err := PressureFromHybrid(ps.Data, hy.A, hy.B, hy.P0)
	if err != nil {
		return nil, err
	}
	out, err := InterpolateToPressureLevels(v.Data, pressure, targetLevels)
	if err != nil {
		return nil, err
	}
	return AttachPressureLevels(out, v, levDim, targetLevels)
}
