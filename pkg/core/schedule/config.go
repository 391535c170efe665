package schedule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"fundamentalengine/pkg/models"
)

// Config is the YAML shape for config/engine.yaml: the daily
// WeightTrainer/IndustryTrainer cron jobs plus any per-model default
// weight overrides, mirroring the teacher's agent.Config YAML loading
// but scoped to the scheduler instead of LLM provider settings.
type Config struct {
	Jobs                []ConfigJob        `yaml:"jobs"`
	DefaultWeightTable  map[string]float64 `yaml:"default_weight_table"`
}

// ConfigJob is one scheduled entry, translated into a JobSpec by the
// caller (which supplies the actual Run closure — the YAML only carries
// the scheduling knobs, never code).
type ConfigJob struct {
	Name          string `yaml:"name"`
	CronExpr      string `yaml:"cron"`
	LockKey       string `yaml:"lock_key"`
	JitterSeconds int    `yaml:"jitter_seconds"`
}

// LoadConfig reads and parses path. A missing file is not an error: the
// scheduler falls back to whatever jobs the caller registers directly and
// the glossary's built-in DefaultWeightTable.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("schedule: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("schedule: parse config: %w", err)
	}
	return cfg, nil
}

// ResolveWeightTable applies cfg's default_weight_table overrides (keyed
// by models.ModelID string value) on top of models.DefaultWeightTable,
// renormalising so the result still sums to 1 per Testable Property 2.
// Unknown keys are ignored rather than rejected, since an operator rolling
// out a new model id ahead of a code deploy shouldn't break the scheduler.
func (c Config) ResolveWeightTable() [8]float64 {
	table := models.DefaultWeightTable
	if len(c.DefaultWeightTable) == 0 {
		return table
	}

	for i, id := range models.AllModels {
		if v, ok := c.DefaultWeightTable[string(id)]; ok {
			table[i] = v
		}
	}

	var sum float64
	for _, w := range table {
		sum += w
	}
	if sum == 0 {
		return models.DefaultWeightTable
	}
	for i := range table {
		table[i] /= sum
	}
	return table
}
