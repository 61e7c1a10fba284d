package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != "8080" || cfg.Environment != "development" {
		t.Errorf("port=%q env=%q", cfg.Port, cfg.Environment)
	}
	if cfg.FoulPolicy != "turn" || cfg.EightBallRule != "reference" {
		t.Errorf("rules = %q / %q", cfg.FoulPolicy, cfg.EightBallRule)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Error("backends should be disabled by default")
	}
	if cfg.FrameSampleEvery != 4 || cfg.MatchExpiryMinutes != 30 {
		t.Errorf("frame=%d expiry=%d", cfg.FrameSampleEvery, cfg.MatchExpiryMinutes)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("FOUL_POLICY", "ball_in_hand")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("DISCONNECT_GRACE_SECONDS", "15")

	cfg := Load()

	if cfg.Port != "9090" || cfg.FoulPolicy != "ball_in_hand" || !cfg.MigrateOnStart || cfg.DisconnectGraceSecs != 15 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFallsBackOnBadValue(t *testing.T) {
	t.Setenv("FRAME_SAMPLE_EVERY", "often")

	cfg := Load()
	if cfg.FrameSampleEvery != 4 {
		t.Errorf("FrameSampleEvery = %d, want default 4", cfg.FrameSampleEvery)
	}
}
