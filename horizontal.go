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
	"encoding/gob"
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Grid describes a rectilinear horizontal grid by its cell-center
// coordinates [degrees]. Lon and Lat must each be ascending and have at
// least two entries.
type Grid struct {
	Lon, Lat []float64
}

// OperatorConfig configures the construction of a horizontal regridding
// Operator.
type OperatorConfig struct {
	// Method is the interpolation kind: "bilinear" (default) or
	// "conservative".
	Method string
	// Periodic specifies whether the source grid wraps around in
	// longitude.
	Periodic bool
	// ReuseWeights specifies that a previously computed operator stored
	// in WeightFile should be reused instead of recomputing, and that a
	// newly computed operator should be stored there.
	ReuseWeights bool
	WeightFile   string
}

// Weight is one entry of a regridding operator: the source cell index and
// its contribution to a destination cell.
type Weight struct {
	From int
	W    float64
}

// Operator is a precomputed mapping between two horizontal grids. Applying
// it to a field on the source grid yields the field on the destination
// grid.
type Operator struct {
	Method             string
	SrcShape, DstShape [2]int // (ny, nx)
	Weights            [][]Weight
}

// BuildOperator computes a regridding operator between two grids. If
// cfg.ReuseWeights is set and cfg.WeightFile holds a compatible previously
// computed operator, that operator is returned instead of recomputing;
// otherwise the new operator is stored there.
func BuildOperator(src, dst *Grid, cfg OperatorConfig) (*Operator, error) {
	method := cfg.Method
	if method == "" {
		method = "bilinear"
	}
	if len(src.Lon) < 2 || len(src.Lat) < 2 {
		return nil, fmt.Errorf("hacknostics: regrid operator: source grid needs at "+
			"least 2 coordinates per axis; got (%d, %d)", len(src.Lat), len(src.Lon))
	}
	minDst := 1
	if method == "conservative" { // cell edges require neighboring centers
		minDst = 2
	}
	if len(dst.Lon) < minDst || len(dst.Lat) < minDst {
		return nil, fmt.Errorf("hacknostics: regrid operator: destination grid needs at "+
			"least %d coordinates per axis for method %s; got (%d, %d)",
			minDst, method, len(dst.Lat), len(dst.Lon))
	}
	if cfg.ReuseWeights && cfg.WeightFile != "" {
		if op, err := loadWeightFile(cfg.WeightFile); err == nil {
			if op.compatible(src, dst, method) {
				logrus.WithField("file", cfg.WeightFile).Info("reusing regrid weights")
				return op, nil
			}
		}
	}
	var op *Operator
	var err error
	switch method {
	case "conservative":
		op, err = conservativeOperator(src, dst, cfg.Periodic)
	case "bilinear":
		op, err = bilinearOperator(src, dst, cfg.Periodic)
	default:
		return nil, fmt.Errorf("hacknostics: unknown regrid method %q", method)
	}
	if err != nil {
		return nil, err
	}
	if cfg.ReuseWeights && cfg.WeightFile != "" {
		if err := op.saveWeightFile(cfg.WeightFile); err != nil {
			return nil, err
		}
	}
	return op, nil
}

// Apply regrids data, whose trailing two axes must be (y, x) on the
// operator's source grid, onto the destination grid. Any leading axes
// (level, time) are carried through unchanged.
func (op *Operator) Apply(data *sparse.DenseArray) (*sparse.DenseArray, error) {
	rank := len(data.Shape)
	if rank < 2 || rank > 4 {
		return nil, RankError{Rank: rank}
	}
	ny, nx := data.Shape[rank-2], data.Shape[rank-1]
	if ny != op.SrcShape[0] || nx != op.SrcShape[1] {
		return nil, ShapeError{
			Name1: "data", Shape1: []int{ny, nx},
			Name2: "operator source grid", Shape2: op.SrcShape[:],
		}
	}
	outShape := make([]int, 0, rank)
	outShape = append(outShape, data.Shape[:rank-2]...)
	outShape = append(outShape, op.DstShape[0], op.DstShape[1])
	out := sparse.ZerosDense(outShape...)

	ssz := ny * nx
	dsz := op.DstShape[0] * op.DstShape[1]
	for s := 0; s < len(data.Elements)/ssz; s++ {
		in := data.Elements[s*ssz : (s+1)*ssz]
		o := out.Elements[s*dsz : (s+1)*dsz]
		for d, ws := range op.Weights {
			var sum float64
			for _, w := range ws {
				sum += in[w.From] * w.W
			}
			o[d] = sum
		}
	}
	return out, nil
}

// Save writes the operator to w for later reuse.
func (op *Operator) Save(w *os.File) error {
	if err := gob.NewEncoder(w).Encode(op); err != nil {
		return fmt.Errorf("hacknostics: saving regrid weights: %v", err)
	}
	return nil
}

// LoadOperator loads a previously Saved operator.
func LoadOperator(r *os.File) (*Operator, error) {
	op := new(Operator)
	if err := gob.NewDecoder(r).Decode(op); err != nil {
		return nil, fmt.Errorf("hacknostics: loading regrid weights: %v", err)
	}
	return op, nil
}

func (op *Operator) saveWeightFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hacknostics: saving regrid weights: %v", err)
	}
	defer f.Close()
	return op.Save(f)
}

func loadWeightFile(path string) (*Operator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadOperator(f)
}

func (op *Operator) compatible(src, dst *Grid, method string) bool {
	return op.Method == method &&
		op.SrcShape == [2]int{len(src.Lat), len(src.Lon)} &&
		op.DstShape == [2]int{len(dst.Lat), len(dst.Lon)}
}

// gridCell is a source grid cell stored in a spatial index.
type gridCell struct {
	geom.Polygonal
	index int
}

// conservativeOperator builds area-weighted regridding weights: each
// destination cell receives contributions from the source cells it
// overlaps, in proportion to the overlap area.
func conservativeOperator(src, dst *Grid, periodic bool) (*Operator, error) {
	index := rtree.NewTree(25, 50)
	shifts := []float64{0}
	if periodic {
		shifts = []float64{0, -360, 360}
	}
	for _, shift := range shifts {
		for i, c := range cellPolygons(src.Lon, src.Lat, shift) {
			index.Insert(&gridCell{Polygonal: c, index: i})
		}
	}

	op := &Operator{
		Method:   "conservative",
		SrcShape: [2]int{len(src.Lat), len(src.Lon)},
		DstShape: [2]int{len(dst.Lat), len(dst.Lon)},
		Weights:  make([][]Weight, len(dst.Lat)*len(dst.Lon)),
	}
	for d, cell := range cellPolygons(dst.Lon, dst.Lat, 0) {
		dArea := cell.Area()
		if dArea <= 0 {
			return nil, fmt.Errorf("hacknostics: regrid operator: destination cell %d "+
				"has non-positive area", d)
		}
		for _, sI := range index.SearchIntersect(cell.Bounds()) {
			s := sI.(*gridCell)
			isect := cell.Intersection(s.Polygonal)
			if isect == nil {
				continue
			}
			if a := isect.Area(); a > 0 {
				op.Weights[d] = append(op.Weights[d], Weight{From: s.index, W: a / dArea})
			}
		}
		sort.Slice(op.Weights[d], func(a, b int) bool {
			return op.Weights[d][a].From < op.Weights[d][b].From
		})
	}
	return op, nil
}

// bilinearOperator builds 4-point bilinear weights from the source
// cell-center coordinates to each destination cell center. Destination
// centers outside the source grid are clamped to the grid edge, except in
// longitude when the grid is periodic, where the seam between the last and
// first source columns is interpolated across.
func bilinearOperator(src, dst *Grid, periodic bool) (*Operator, error) {
	op := &Operator{
		Method:   "bilinear",
		SrcShape: [2]int{len(src.Lat), len(src.Lon)},
		DstShape: [2]int{len(dst.Lat), len(dst.Lon)},
		Weights:  make([][]Weight, len(dst.Lat)*len(dst.Lon)),
	}
	nx := len(src.Lon)
	for jd, lat := range dst.Lat {
		j0, j1, fy := bracket(src.Lat, lat)
		for id, lon := range dst.Lon {
			i0, i1, fx := bracketLon(src.Lon, lon, periodic)
			d := jd*len(dst.Lon) + id
			op.Weights[d] = mergeWeights([]Weight{
				{From: j0*nx + i0, W: (1 - fx) * (1 - fy)},
				{From: j0*nx + i1, W: fx * (1 - fy)},
				{From: j1*nx + i0, W: (1 - fx) * fy},
				{From: j1*nx + i1, W: fx * fy},
			})
		}
	}
	return op, nil
}

// bracket locates x within the ascending coordinate vector c, returning
// the bracketing indices and the fractional position between them. Values
// outside the vector are clamped to the nearest end.
func bracket(c []float64, x float64) (i0, i1 int, frac float64) {
	n := len(c)
	switch {
	case x <= c[0]:
		return 0, 0, 0
	case x >= c[n-1]:
		return n - 1, n - 1, 0
	default:
		k := sort.SearchFloat64s(c, x) // c[k-1] < x <= c[k]
		return k - 1, k, (x - c[k-1]) / (c[k] - c[k-1])
	}
}

// bracketLon is bracket for the longitude axis: when the grid is periodic,
// longitudes beyond the last source column wrap across the 360° seam to
// the first column instead of clamping.
func bracketLon(c []float64, x float64, periodic bool) (i0, i1 int, frac float64) {
	if !periodic {
		return bracket(c, x)
	}
	n := len(c)
	for x < c[0] {
		x += 360
	}
	for x >= c[0]+360 {
		x -= 360
	}
	if x <= c[n-1] {
		return bracket(c, x)
	}
	span := c[0] + 360 - c[n-1]
	return n - 1, 0, (x - c[n-1]) / span
}

// mergeWeights combines weights that reference the same source cell, which
// happens when a bracket clamps at a grid edge.
func mergeWeights(ws []Weight) []Weight {
	sort.Slice(ws, func(a, b int) bool { return ws[a].From < ws[b].From })
	out := ws[:0]
	for _, w := range ws {
		if w.W == 0 {
			continue
		}
		if len(out) > 0 && out[len(out)-1].From == w.From {
			out[len(out)-1].W += w.W
			continue
		}
		out = append(out, w)
	}
	return out
}

// cellPolygons derives cell polygons from cell-center coordinates, with
// cell edges midway between neighboring centers. The longitude coordinates
// are offset by shift, which is used to make wraparound copies of periodic
// grids.
func cellPolygons(lon, lat []float64, shift float64) []geom.Polygonal {
	lonEdges := edges(lon)
	latEdges := edges(lat)
	cells := make([]geom.Polygonal, 0, len(lat)*len(lon))
	for j := range lat {
		y0, y1 := latEdges[j], latEdges[j+1]
		for i := range lon {
			x0, x1 := lonEdges[i]+shift, lonEdges[i+1]+shift
			cells = append(cells, geom.Polygon{{
				{X: x0, Y: y0}, {X: x1, Y: y0},
				{X: x1, Y: y1}, {X: x0, Y: y1},
			}})
		}
	}
	return cells
}

// edges returns the n+1 cell-edge coordinates for n ascending cell-center
// coordinates, extrapolating half a cell at each end.
func edges(c []float64) []float64 {
	n := len(c)
	e := make([]float64, n+1)
	e[0] = c[0] - (c[1]-c[0])/2
	for i := 1; i < n; i++ {
		e[i] = (c[i-1] + c[i]) / 2
	}
	e[n] = c[n-1] + (c[n-1]-c[n-2])/2
	return e
}
