package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/bayerlab")
	t.Setenv("DITHER_DEPTH", "")

	s := Load()
	if s.DitherDepth != 2 {
		t.Errorf("DitherDepth = %d, want 2", s.DitherDepth)
	}
	if s.StrengthDivisor != 0 {
		t.Errorf("StrengthDivisor = %v, want 0", s.StrengthDivisor)
	}
	if s.RenderedImagesPath != filepath.Join("/tmp/bayerlab", "rendered") {
		t.Errorf("RenderedImagesPath = %q", s.RenderedImagesPath)
	}
	if s.RenderRetention != 7*24*time.Hour {
		t.Errorf("RenderRetention = %v, want 7d", s.RenderRetention)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DITHER_DEPTH", "3")
	t.Setenv("DITHER_STRENGTH_DIVISOR", "4.5")
	t.Setenv("RENDER_RETENTION", "2d")

	s := Load()
	if s.DitherDepth != 3 {
		t.Errorf("DitherDepth = %d, want 3", s.DitherDepth)
	}
	if s.StrengthDivisor != 4.5 {
		t.Errorf("StrengthDivisor = %v, want 4.5", s.StrengthDivisor)
	}
	if s.RenderRetention != 48*time.Hour {
		t.Errorf("RenderRetention = %v, want 48h", s.RenderRetention)
	}
}

func TestNonIntegerDepthFallsBackToDefault(t *testing.T) {
	t.Setenv("DITHER_DEPTH", "1.5")
	if got := Load().DitherDepth; got != 2 {
		t.Errorf("DitherDepth = %d, want default 2 for non-integer value", got)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Settings {
		return &Settings{
			DitherDepth:         2,
			Workers:             1,
			MaxUploadMB:         1,
			RenderRatePerMinute: 1,
			CleanupInterval:     time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(*Settings) {}, false},
		{"negative depth", func(s *Settings) { s.DitherDepth = -1 }, true},
		{"depth too large", func(s *Settings) { s.DitherDepth = 9 }, true},
		{"negative divisor", func(s *Settings) { s.StrengthDivisor = -1 }, true},
		{"zero workers", func(s *Settings) { s.Workers = 0 }, true},
		{"zero upload limit", func(s *Settings) { s.MaxUploadMB = 0 }, true},
		{"zero rate", func(s *Settings) { s.RenderRatePerMinute = 0 }, true},
		{"zero cleanup interval", func(s *Settings) { s.CleanupInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetReadsFileIndirection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette")
	if err := os.WriteFile(path, []byte("  eink7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEFAULT_PALETTE", "")
	t.Setenv("DEFAULT_PALETTE_FILE", path)

	if got := Get("DEFAULT_PALETTE", "bw"); got != "eink7" {
		t.Errorf("Get() = %q, want eink7", got)
	}
}

func TestGetFloat(t *testing.T) {
	t.Setenv("SOME_FLOAT", "abc")
	if got := GetFloat("SOME_FLOAT", 1.25); got != 1.25 {
		t.Errorf("GetFloat() = %v, want fallback 1.25", got)
	}
	t.Setenv("SOME_FLOAT", "0.5")
	if got := GetFloat("SOME_FLOAT", 1.25); got != 0.5 {
		t.Errorf("GetFloat() = %v, want 0.5", got)
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"yes", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"No", true, false},
		{"f", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("SOME_BOOL", tt.val)
		if got := GetBool("SOME_BOOL", tt.def); got != tt.want {
			t.Errorf("GetBool(%q, %v) = %v, want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"2W", 14 * 24 * time.Hour, false},
		{" 90m ", 90 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"d", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	t.Setenv("SOME_DURATION", "3d")
	if got := GetDuration("SOME_DURATION", time.Hour); got != 72*time.Hour {
		t.Errorf("GetDuration() = %v, want 72h", got)
	}
}
