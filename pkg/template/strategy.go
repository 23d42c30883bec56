package template

import (
	"github.com/templar-cli/templar/pkg/errors"
)

// Strategy controls how fragments targeting the same output path are
// combined during composition. This package is the single source of truth
// for strategy names; the composition engine switches over them exhaustively.
type Strategy string

const (
	// StrategyUnset means "no explicit choice" - composition falls back
	// through template default, per-path config rule, then global default.
	StrategyUnset Strategy = ""

	// StrategyReplace keeps only the leaf-most fragment for a path;
	// ancestor fragments are discarded.
	StrategyReplace Strategy = "replace"

	// StrategyOverride behaves like replace but reports each shadowed
	// ancestor fragment as a warning.
	StrategyOverride Strategy = "override"

	// StrategyMerge combines all fragments for a path via the slot system.
	StrategyMerge Strategy = "merge"
)

// ValidStrategies is the set of explicit strategy names accepted in
// manifests and configuration.
var ValidStrategies = map[Strategy]bool{
	StrategyReplace:  true,
	StrategyOverride: true,
	StrategyMerge:    true,
}

// ParseStrategy validates a strategy name from a manifest or config file.
// The empty string parses to StrategyUnset.
func ParseStrategy(raw string) (Strategy, error) {
	s := Strategy(raw)
	if s == StrategyUnset || ValidStrategies[s] {
		return s, nil
	}
	return StrategyUnset, errors.New(errors.ErrCodeInvalidStrategy,
		"invalid strategy %q (must be one of: replace, override, merge)", raw)
}

// IsExplicit reports whether the strategy was explicitly chosen
// (i.e. is not StrategyUnset).
func (s Strategy) IsExplicit() bool { return s != StrategyUnset }
