package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"fundamentalengine/pkg/models"
)

func TestLoadConfigMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Jobs) != 0 {
		t.Errorf("expected no jobs from a missing config, got %v", cfg.Jobs)
	}
}

func TestLoadConfigParsesJobsAndWeightOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	contents := `
jobs:
  - name: weight-trainer-global
    cron: "0 3 * * *"
    lock_key: "global"
    jitter_seconds: 300
default_weight_table:
  dcf: 0.30
  rim: 0.20
  eva: 0.10
  graham: 0.10
  lynch: 0.10
  ncav: 0.05
  ps: 0.10
  pcf: 0.05
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Jobs) != 1 || cfg.Jobs[0].Name != "weight-trainer-global" {
		t.Fatalf("expected one parsed job, got %v", cfg.Jobs)
	}

	table := cfg.ResolveWeightTable()
	var sum float64
	for _, w := range table {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected the resolved weight table to sum to 1, got %f", sum)
	}
	dcfIdx := -1
	for i, id := range models.AllModels {
		if id == models.ModelDCF {
			dcfIdx = i
		}
	}
	if table[dcfIdx] != 0.30 {
		t.Errorf("expected the dcf override to apply, got %f", table[dcfIdx])
	}
}
