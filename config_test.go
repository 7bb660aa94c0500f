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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
Method = "conservative"
Periodic = true
ReuseWeights = true
WeightFile = "weights.gob"
PressureLevels = [100000.0, 85000.0, 50000.0]
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "conservative" || !cfg.Periodic {
		t.Errorf("got %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.PressureLevels, []float64{100000, 85000, 50000}) {
		t.Errorf("pressure levels: got %v", cfg.PressureLevels)
	}
	oc := cfg.OperatorConfig()
	if oc.Method != "conservative" || !oc.Periodic || !oc.ReuseWeights ||
		oc.WeightFile != "weights.gob" {
		t.Errorf("operator configuration: got %+v", oc)
	}
}

func TestLoadConfig_defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `PressureLevels = [50000.0]`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "bilinear" {
		t.Errorf("default method: got %q, want \"bilinear\"", cfg.Method)
	}
}

func TestLoadConfig_invalid(t *testing.T) {
	invalid := []string{
		`Method = "spectral"`,
		`ReuseWeights = true`,
		`PressureLevels = [50000.0, -100.0]`,
	}
	for _, contents := range invalid {
		if _, err := LoadConfig(writeConfig(t, contents)); err == nil {
			t.Errorf("expected an error for %q", contents)
		}
	}
}
