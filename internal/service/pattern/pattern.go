package pattern

import (
	"fmt"
	"sort"

	"BarScan/internal/domain/models"
	"BarScan/internal/service/filter"
	"BarScan/internal/service/indicators"
)

// Definition is one scannable pattern: a parameter schema, the cheap
// thresholds the smart filter runs against candidates, the indicator
// windows the expensive stage needs, and the trigger-clause conjunction
// itself. All definitions share the same pipeline skeleton.
type Definition interface {
	Name() string
	Schema() []models.ParamSpec

	// Thresholds maps parameters to the cheap filter tests. These must be
	// no stricter than Evaluate's clauses for any parameter combination.
	Thresholds(p models.ScanParams) filter.Thresholds

	// Indicators returns the window config the expensive stage computes.
	Indicators(p models.ScanParams) indicators.Config

	// LookbackSessions is the number of trailing sessions every candidate
	// date needs materialized, safety margin included.
	LookbackSessions(p models.ScanParams) int

	// Evaluate inspects index i of a fully computed series and returns a
	// Signal if every trigger clause holds, nil otherwise.
	Evaluate(s *indicators.Series, i int, p models.ScanParams) *models.Signal
}

// lookbackSafetyMargin is the fixed count of extra sessions fetched beyond
// the longest window requirement, so the earliest candidate date still has
// every trailing feature fully formed.
const lookbackSafetyMargin = 5

var registry = map[string]Definition{}

// Register adds a pattern definition. Called from init; duplicate names
// are a programming error.
func Register(def Definition) {
	if _, ok := registry[def.Name()]; ok {
		panic(fmt.Sprintf("pattern %q registered twice", def.Name()))
	}
	registry[def.Name()] = def
}

// Get returns a registered definition by name.
func Get(name string) (Definition, error) {
	def, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown pattern %q (have %v)", models.ErrBadParams, name, Names())
	}
	return def, nil
}

// Names lists registered patterns, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateParams runs schema validation plus the cross-field invariant the
// window math depends on: exclude_days must not exceed lookback_days.
// Inconsistent parameter sets are rejected, not documented away.
func ValidateParams(def Definition, p models.ScanParams) error {
	if err := p.Validate(def.Schema()); err != nil {
		return err
	}
	lookback := p.Int("lookback_days", 0)
	exclude := p.Int("exclude_days", 0)
	if lookback < 1 {
		return fmt.Errorf("%w: lookback_days must be >= 1, got %d", models.ErrBadParams, lookback)
	}
	if exclude < 0 {
		return fmt.Errorf("%w: exclude_days must be >= 0, got %d", models.ErrBadParams, exclude)
	}
	if exclude > lookback {
		return fmt.Errorf("%w: exclude_days (%d) must not exceed lookback_days (%d)",
			models.ErrBadParams, exclude, lookback)
	}

	// The cheap dollar-volume feature must never demand more history than
	// the volume clause it stands in for: a candidate too young for the
	// cheap feature must also be too young for the full clauses, or the
	// filter could drop a ticker that would have signalled.
	dvWindow := p.Int("dollar_volume_window", 20)
	volWindow := p.Int("volume_avg_window", 20)
	if dvWindow > volWindow {
		return fmt.Errorf("%w: dollar_volume_window (%d) must not exceed volume_avg_window (%d)",
			models.ErrBadParams, dvWindow, volWindow)
	}
	return nil
}
