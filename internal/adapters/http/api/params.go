package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/welltest/internal/domain/detect"
)

// paramSetters maps query keys to detect.Params fields. The keys match the
// JSON and configuration names.
var paramSetters = map[string]func(p *detect.Params, v string) error{ //nolint:gochecknoglobals // static lookup table
	"window_size":              setInt(func(p *detect.Params) *int { return &p.WindowSize }),
	"threshold":                setFloat(func(p *detect.Params) *float64 { return &p.Threshold }),
	"min_points":               setInt(func(p *detect.Params) *int { return &p.MinPoints }),
	"noise_threshold":          setFloat(func(p *detect.Params) *float64 { return &p.NoiseThreshold }),
	"min_recovery_duration":    setFloat(func(p *detect.Params) *float64 { return &p.MinRecoveryDuration }),
	"min_drop_duration":        setFloat(func(p *detect.Params) *float64 { return &p.MinDropDuration }),
	"low_density_threshold":    setFloat(func(p *detect.Params) *float64 { return &p.LowDensityThreshold }),
	"peak_offset":              setInt(func(p *detect.Params) *int { return &p.PeakOffset }),
	"recovery_duration_points": setInt(func(p *detect.Params) *int { return &p.RecoveryDurationPoints }),
	"merge_overlaps": func(p *detect.Params, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		p.MergeOverlaps = b
		return nil
	},
}

func setInt(field func(*detect.Params) *int) func(*detect.Params, string) error {
	return func(p *detect.Params, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func setFloat(field func(*detect.Params) *float64) func(*detect.Params, string) error {
	return func(p *detect.Params, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

// paramsFromQuery applies every recognised query key on top of base and
// validates the result. Unknown keys are ignored.
func paramsFromQuery(base detect.Params, q url.Values) (detect.Params, error) {
	p := base
	for key, set := range paramSetters {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if err := set(&p, v); err != nil {
			return detect.Params{}, fmt.Errorf("%s=%q: %w", key, v, err)
		}
	}
	if err := p.Validate(); err != nil {
		return detect.Params{}, err
	}
	return p, nil
}
