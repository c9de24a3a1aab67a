package wiki

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Supersession strategy names.
const (
	StrategySimilarity = "similarity"
	StrategyWordLevel  = "wordlevel"
)

// Configuration holds the per-wiki review settings. It is an immutable
// value: every evaluation receives its own copy, so evaluations for
// different wikis can run concurrently without shared state.
//
// The similarity and proximity constants are empirically chosen and have no
// documented derivation; they are configuration rather than code so that
// product owners can recalibrate them per wiki.
type Configuration struct {
	// SupersededThreshold is the retention ratio below which an addition
	// counts as superseded.
	SupersededThreshold float64 `yaml:"superseded_similarity_threshold"`
	// SignificantAdditionLength is the minimum normalized length for an
	// addition to matter; shorter fragments always pass.
	SignificantAdditionLength int `yaml:"significant_addition_length"`
	// MoveProximityWindow is how many diff lines around an addition to scan
	// for a matching deletion before calling it a move.
	MoveProximityWindow int `yaml:"move_proximity_window"`
	// MoveWordSimilarity is the word-overlap ratio above which an addition
	// near a deletion is classified as moved text.
	MoveWordSimilarity float64 `yaml:"move_word_similarity"`
	// TextMatchThreshold is the word-overlap ratio above which an added
	// fragment counts as still present in a later text.
	TextMatchThreshold float64 `yaml:"text_match_threshold"`

	// MLThresholds maps model name to the score above which an edit is
	// rejected. A threshold of 0 disables the model.
	MLThresholds map[string]float64 `yaml:"ml_thresholds"`

	// ORESDamagingThreshold rejects edits whose ORES damaging probability
	// exceeds it; 0 disables the model. ORESGoodfaithThreshold rejects
	// edits whose goodfaith probability falls below it.
	ORESDamagingThreshold  float64 `yaml:"ores_damaging_threshold"`
	ORESGoodfaithThreshold float64 `yaml:"ores_goodfaith_threshold"`

	// RedirectAliases are the redirect magic-word spellings of this wiki,
	// such as "#OHJAUS" on fiwiki.
	RedirectAliases []string `yaml:"redirect_aliases"`

	BlockingCategories []string `yaml:"blocking_categories"`
	AutoApprovedGroups []string `yaml:"auto_approved_groups"`

	// EnabledChecks selects an ordered subset of the check registry.
	// Empty means every default-enabled check.
	EnabledChecks []string `yaml:"enabled_checks"`

	// Strategy selects the supersession strategy: "similarity" or
	// "wordlevel".
	Strategy string `yaml:"strategy"`
}

// DefaultConfiguration returns the settings used when a wiki has no
// explicit configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		SupersededThreshold:       0.2,
		SignificantAdditionLength: 20,
		MoveProximityWindow:       5,
		MoveWordSimilarity:        0.8,
		TextMatchThreshold:        0.7,
		Strategy:                  StrategySimilarity,
		RedirectAliases:           []string{"#REDIRECT"},
	}
}

// Validate rejects configurations that would otherwise fail silently at
// evaluation time. It runs once at load, before any revision is evaluated.
// Check names are validated separately against the registry.
func (c Configuration) Validate() error {
	for name, v := range map[string]float64{
		"superseded_similarity_threshold": c.SupersededThreshold,
		"move_word_similarity":            c.MoveWordSimilarity,
		"text_match_threshold":            c.TextMatchThreshold,
		"ores_damaging_threshold":         c.ORESDamagingThreshold,
		"ores_goodfaith_threshold":        c.ORESGoodfaithThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	for model, v := range c.MLThresholds {
		if v < 0 || v > 1 {
			return fmt.Errorf("ml threshold for %q must be within [0, 1], got %v", model, v)
		}
	}
	if c.SignificantAdditionLength < 0 {
		return fmt.Errorf("significant_addition_length must not be negative, got %d", c.SignificantAdditionLength)
	}
	if c.MoveProximityWindow < 0 {
		return fmt.Errorf("move_proximity_window must not be negative, got %d", c.MoveProximityWindow)
	}
	switch c.Strategy {
	case StrategySimilarity, StrategyWordLevel:
	default:
		return fmt.Errorf("unknown supersession strategy %q", c.Strategy)
	}
	seen := make(map[string]bool, len(c.EnabledChecks))
	for _, id := range c.EnabledChecks {
		if seen[id] {
			return fmt.Errorf("check %q enabled twice", id)
		}
		seen[id] = true
	}
	return nil
}

// LoadConfigurations reads a YAML file mapping wiki ids to configurations.
// Every entry is validated; a single bad entry fails the whole load.
func LoadConfigurations(path string) (map[string]Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("parse wiki configuration: %w", err)
	}
	configs := make(map[string]Configuration, len(nodes))
	for id, node := range nodes {
		// Unset fields keep their defaults.
		cfg := DefaultConfiguration()
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("wiki %q: %w", id, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("wiki %q: %w", id, err)
		}
		configs[id] = cfg
	}
	return configs, nil
}
