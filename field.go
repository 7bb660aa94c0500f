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

	"github.com/ctessum/sparse"
)

// Field is a labeled multidimensional array: numeric data together with
// named, ordered dimensions, coordinate values for each dimension, and
// units. It is the form in which datasets are handed between the loading,
// interpolation, and regridding stages.
type Field struct {
	Name        string
	Description string
	Units       string
	Dims        []string
	Coords      map[string][]float64
	Data        *sparse.DenseArray
}

// LevelDim returns the name of f's vertical dimension, identified as the
// dimension of f that does not appear in the surface field.
func (f *Field) LevelDim(surface *Field) (string, error) {
	var lev string
	for _, d := range f.Dims {
		found := false
		for _, sd := range surface.Dims {
			if d == sd {
				found = true
				break
			}
		}
		if !found {
			if lev != "" {
				return "", fmt.Errorf("hacknostics: variable %s has more than one "+
					"dimension (%s, %s) missing from surface field %s",
					f.Name, lev, d, surface.Name)
			}
			lev = d
		}
	}
	if lev == "" {
		return "", fmt.Errorf("hacknostics: variable %s has no vertical dimension "+
			"relative to surface field %s", f.Name, surface.Name)
	}
	return lev, nil
}

// AttachPressureLevels wraps the raw interpolation output data with the
// metadata of the original field orig, replacing the vertical coordinate
// levDim with the given pressure levels [Pa]. Dimension ordering and all
// other coordinates are preserved from orig.
func AttachPressureLevels(data *sparse.DenseArray, orig *Field, levDim string, levels []float64) (*Field, error) {
	ilev := -1
	for i, d := range orig.Dims {
		if d == levDim {
			ilev = i
			break
		}
	}
	if ilev < 0 {
		return nil, fmt.Errorf("hacknostics: variable %s has no dimension %q",
			orig.Name, levDim)
	}
	wantShape := make([]int, len(orig.Data.Shape))
	copy(wantShape, orig.Data.Shape)
	wantShape[ilev] = len(levels)
	if !shapesEqual(data.Shape, wantShape) {
		return nil, ShapeError{
			Name1: orig.Name + " on " + levDim, Shape1: wantShape,
			Name2: "interpolated data", Shape2: data.Shape,
		}
	}

	out := &Field{
		Name:        orig.Name,
		Description: orig.Description,
		Units:       orig.Units,
		Dims:        make([]string, len(orig.Dims)),
		Coords:      make(map[string][]float64, len(orig.Coords)),
		Data:        data,
	}
	copy(out.Dims, orig.Dims)
	for name, vals := range orig.Coords {
		if name == levDim {
			continue
		}
		c := make([]float64, len(vals))
		copy(c, vals)
		out.Coords[name] = c
	}
	lev := make([]float64, len(levels))
	copy(lev, levels)
	out.Coords[levDim] = lev
	return out, nil
}
