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

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
)

// HybridCoords holds the hybrid-sigma vertical coordinate description of a
// model dataset: the per-level coefficients A and B and the reference
// pressure P0 [Pa], such that pressure = A*P0 + B*(surface pressure).
type HybridCoords struct {
	A, B []float64
	P0   float64
}

// ReadField reads the named variable from a NetCDF file along with its
// dimension names, per-dimension coordinate values, and units and
// description attributes. Data are converted to float64 regardless of the
// storage type in the file.
func ReadField(ff *cdf.File, name string) (*Field, error) {
	data, err := readNCF(ff, name)
	if err != nil {
		return nil, err
	}
	f := &Field{
		Name:        name,
		Description: attrString(ff, name, "long_name"),
		Units:       attrString(ff, name, "units"),
		Dims:        ff.Header.Dimensions(name),
		Coords:      make(map[string][]float64),
		Data:        data,
	}
	for _, d := range f.Dims {
		if len(ff.Header.Lengths(d)) == 0 {
			continue // dimension without a coordinate variable
		}
		c, err := readNCF(ff, d)
		if err != nil {
			return nil, err
		}
		f.Coords[d] = c.Elements
	}
	return f, nil
}

// ReadHybrid reads the hybrid-sigma coordinate description from a NetCDF
// file: the level-midpoint coefficients hyam and hybm, and the reference
// pressure variable P0 [Pa] if present (otherwise the conventional
// 100000 Pa is used).
func ReadHybrid(ff *cdf.File) (*HybridCoords, error) {
	a, err := read1d(ff, "hyam")
	if err != nil {
		return nil, err
	}
	b, err := read1d(ff, "hybm")
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, ShapeError{
			Name1: "hyam", Shape1: []int{len(a)},
			Name2: "hybm", Shape2: []int{len(b)},
		}
	}
	hy := &HybridCoords{A: a, B: b, P0: P0}
	for _, v := range ff.Header.Variables() {
		if v == "P0" {
			p0, err := readNCF(ff, "P0")
			if err != nil {
				return nil, err
			}
			if len(p0.Elements) > 0 {
				hy.P0 = p0.Elements[0]
			}
		}
	}
	return hy, nil
}

// ReadPressureLevels reads a 1-D pressure coordinate from a NetCDF file and
// normalizes it to Pascals. The variable must carry an explicit units
// attribute; pressure units are never inferred from value magnitudes.
func ReadPressureLevels(ff *cdf.File, name string) ([]float64, error) {
	levels, err := read1d(ff, name)
	if err != nil {
		return nil, err
	}
	factor, err := toPascals(attrString(ff, name, "units"))
	if err != nil {
		return nil, fmt.Errorf("hacknostics: pressure levels %s: %v", name, err)
	}
	if factor != 1 {
		logrus.WithFields(logrus.Fields{
			"variable": name,
			"units":    attrString(ff, name, "units"),
			"factor":   factor,
		}).Info("converting pressure levels to Pa")
		for i, v := range levels {
			levels[i] = v * factor
		}
	}
	return levels, nil
}

// NormalizePressure converts the values of pressure field f to Pascals in
// place, based on its units attribute. Conversions are logged.
func NormalizePressure(f *Field) error {
	factor, err := toPascals(f.Units)
	if err != nil {
		return fmt.Errorf("hacknostics: variable %s: %v", f.Name, err)
	}
	if factor != 1 {
		logrus.WithFields(logrus.Fields{
			"variable": f.Name,
			"units":    f.Units,
			"factor":   factor,
		}).Info("converting pressure to Pa")
		for i, v := range f.Data.Elements {
			f.Data.Elements[i] = v * factor
		}
		f.Units = "Pa"
	}
	return nil
}

// pressureUnits are the pressure units the loader accepts, expressed as
// their value in Pascals.
var pressureUnits = map[string]*unit.Unit{
	"Pa":        unit.New(1, unit.Pascal),
	"hPa":       unit.New(100, unit.Pascal),
	"mb":        unit.New(100, unit.Pascal),
	"millibars": unit.New(100, unit.Pascal),
}

// toPascals returns the factor that converts values in the named unit to
// Pascals.
func toPascals(units string) (float64, error) {
	u, ok := pressureUnits[units]
	if !ok {
		return 0, fmt.Errorf("unsupported or missing pressure unit %q; "+
			"units must be stated explicitly", units)
	}
	if err := u.Check(unit.Pascal); err != nil {
		return 0, err
	}
	return u.Value(), nil
}

// readNCF reads a variable of any rank out of a NetCDF file, converting to
// float64.
func readNCF(ff *cdf.File, name string) (*sparse.DenseArray, error) {
	if !hasVariable(ff, name) {
		return nil, fmt.Errorf("hacknostics: read netcdf: variable %v not in file", name)
	}
	dims := ff.Header.Lengths(name)
	r := ff.Reader(name, nil, nil)
	buf := r.Zero(-1)
	_, err := r.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("hacknostics: read netcdf variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("hacknostics: read netcdf variable %s: "+
			"unsupported storage type %T", name, buf)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(data.Elements) != n {
		return nil, ShapeError{
			Name1: name, Shape1: dims,
			Name2: name + " data", Shape2: []int{len(data.Elements)},
		}
	}
	return data, nil
}

// read1d reads a rank-1 variable out of a NetCDF file.
func read1d(ff *cdf.File, name string) ([]float64, error) {
	data, err := readNCF(ff, name)
	if err != nil {
		return nil, err
	}
	if len(data.Shape) != 1 {
		return nil, fmt.Errorf("hacknostics: read netcdf: variable %s has rank %d; need 1",
			name, len(data.Shape))
	}
	return data.Elements, nil
}

// attrString returns a string attribute of the given variable, or "" if the
// attribute is absent or not a string.
func attrString(ff *cdf.File, varName, attr string) string {
	a := ff.Header.GetAttribute(varName, attr)
	if a == nil {
		return ""
	}
	if s, ok := a.(string); ok {
		return s
	}
	return ""
}

func hasVariable(ff *cdf.File, name string) bool {
	for _, v := range ff.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}
