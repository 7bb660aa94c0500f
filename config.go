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

	"github.com/BurntSushi/toml"
)

// Config holds regridding options, loadable from a TOML file.
type Config struct {
	// Method is the horizontal interpolation kind: "bilinear" (default)
	// or "conservative".
	Method string
	// Periodic specifies whether the source grid wraps around in
	// longitude.
	Periodic bool
	// ReuseWeights specifies whether to reuse a previously computed
	// regridding operator stored in WeightFile instead of recomputing it.
	ReuseWeights bool
	WeightFile   string
	// PressureLevels are the target pressure levels [Pa] for vertical
	// interpolation.
	PressureLevels []float64
}

// LoadConfig reads a Config from a TOML file and validates it.
func LoadConfig(filename string) (*Config, error) {
	cfg := &Config{Method: "bilinear"}
	if _, err := toml.DecodeFile(filename, cfg); err != nil {
		return nil, fmt.Errorf("hacknostics: reading configuration file %s: %v", filename, err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) check() error {
	switch cfg.Method {
	case "bilinear", "conservative":
	default:
		return fmt.Errorf("hacknostics: invalid regrid method %q; "+
			"options are bilinear and conservative", cfg.Method)
	}
	if cfg.ReuseWeights && cfg.WeightFile == "" {
		return fmt.Errorf("hacknostics: ReuseWeights requires WeightFile")
	}
	for i, p := range cfg.PressureLevels {
		if p <= 0 {
			return fmt.Errorf("hacknostics: pressure level %d is %g; levels must be "+
				"positive Pascals", i, p)
		}
	}
	return nil
}

// OperatorConfig returns the horizontal regridding portion of the
// configuration.
func (cfg *Config) OperatorConfig() OperatorConfig {
	return OperatorConfig{
		Method:       cfg.Method,
		Periodic:     cfg.Periodic,
		ReuseWeights: cfg.ReuseWeights,
		WeightFile:   cfg.WeightFile,
	}
}
