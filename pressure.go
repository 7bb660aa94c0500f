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

import "github.com/ctessum/sparse"

// P0 is the default hybrid-coordinate reference pressure [Pa].
const P0 = 100000.

// PressureFromHybrid computes the pressure [Pa] at each model hybrid-sigma
// level midpoint from the surface pressure field ps [Pa] and the hybrid
// coefficients hya [Pa fraction] and hyb [surface pressure fraction], as
// p = hya*p0 + hyb*ps.
//
// If ps has shape (y, x) the result has shape (level, y, x); if ps has
// shape (time, y, x) the result has shape (time, level, y, x).
func PressureFromHybrid(ps *sparse.DenseArray, hya, hyb []float64, p0 float64) (*sparse.DenseArray, error) {
	if len(hya) != len(hyb) {
		return nil, ShapeError{
			Name1: "hya", Shape1: []int{len(hya)},
			Name2: "hyb", Shape2: []int{len(hyb)},
		}
	}
	nz := len(hya)
	switch len(ps.Shape) {
	case 2:
		ny, nx := ps.Shape[0], ps.Shape[1]
		p := sparse.ZerosDense(nz, ny, nx)
		for k := 0; k < nz; k++ {
			ap := hya[k] * p0
			bp := hyb[k]
			off := k * ny * nx
			for ji, psVal := range ps.Elements {
				p.Elements[off+ji] = ap + bp*psVal
			}
		}
		return p, nil
	case 3:
		nt, ny, nx := ps.Shape[0], ps.Shape[1], ps.Shape[2]
		p := sparse.ZerosDense(nt, nz, ny, nx)
		for t := 0; t < nt; t++ {
			psT := ps.Elements[t*ny*nx : (t+1)*ny*nx]
			for k := 0; k < nz; k++ {
				ap := hya[k] * p0
				bp := hyb[k]
				off := (t*nz + k) * ny * nx
				for ji, psVal := range psT {
					p.Elements[off+ji] = ap + bp*psVal
				}
			}
		}
		return p, nil
	default:
		return nil, RankError{Rank: len(ps.Shape)}
	}
}
