// Tests for config.go

package priosched

import "testing"

func TestLoadConfigFromBuf(t *testing.T) {
	buf := []byte(`
priosched_config:
  force_frame_rate_fps: 60
  enable_profiling: true
  log_config:
    use_json: true
    level: debug
`)

	cfg, err := LoadConfig("", buf)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ForceFrameRateFPS != 60 {
		t.Errorf("ForceFrameRateFPS = %d, want 60", cfg.ForceFrameRateFPS)
	}
	if !cfg.EnableProfiling {
		t.Errorf("EnableProfiling = false, want true")
	}
	if !cfg.LoggerConfig.UseJSON {
		t.Errorf("LoggerConfig.UseJSON = false, want true")
	}
	if cfg.LoggerConfig.Level != "debug" {
		t.Errorf("LoggerConfig.Level = %q, want %q", cfg.LoggerConfig.Level, "debug")
	}
}

func TestLoadConfigMissingSectionReturnsDefaults(t *testing.T) {
	buf := []byte("unrelated_config:\n  foo: bar\n")

	cfg, err := LoadConfig("", buf)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	if cfg.ForceFrameRateFPS != want.ForceFrameRateFPS || cfg.EnableProfiling != want.EnableProfiling {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadConfigInvalidRootReturnsError(t *testing.T) {
	buf := []byte("- not\n- a\n- mapping\n")

	if _, err := LoadConfig("", buf); err == nil {
		t.Fatalf("expected an error for a non-mapping YAML root")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/priosched-config.yaml", nil); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
