package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.RedisRateLimitMax != 100 {
		t.Errorf("RedisRateLimitMax = %d, want 100", cfg.RedisRateLimitMax)
	}
	if len(cfg.Origins) != 1 || cfg.Origins[0] != "http://localhost:3000" {
		t.Errorf("Origins = %v, want default", cfg.Origins)
	}
}

func TestGetEnvAsOrigins(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  []string
	}{
		{"bracketed multi", "[http://a.com,http://b.com]", []string{"http://a.com", "http://b.com"}},
		{"single no brackets", "http://a.com", []string{"http://a.com"}},
		{"whitespace around entries", "[ http://a.com , http://b.com ]", []string{"http://a.com", "http://b.com"}},
		{"empty falls back", "", []string{"fallback"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv("TEST_ORIGINS", c.value)
			got := getEnvAsOrigins("TEST_ORIGINS", []string{"fallback"})
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestGetEnvAsOriginsUnset(t *testing.T) {
	got := getEnvAsOrigins("TEST_ORIGINS_UNSET_VAR", []string{"fallback"})
	if len(got) != 1 || got[0] != "fallback" {
		t.Errorf("got %v, want fallback", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	if got := getEnvAsInt("TEST_INT_VAR", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if got := getEnvAsInt("TEST_INT_VAR_UNSET", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}
