package config

import "testing"

func TestLoadDebugFlag(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		debug string
		want  bool
	}{
		{name: "defaults on in dev", env: "dev", debug: "", want: true},
		{name: "defaults off in prod", env: "prod", debug: "", want: false},
		{name: "forced on in prod", env: "prod", debug: "true", want: true},
		{name: "forced off in dev", env: "dev", debug: "false", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("DEBUG", tt.debug)

			cfg := Load()
			if cfg.Debug != tt.want {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.want)
			}
		})
	}
}

func TestLoadTablePrefixFollowsEnvironment(t *testing.T) {
	t.Setenv("TABLE_PREFIX", "")

	tests := []struct {
		env  string
		want string
	}{
		{env: "prod", want: "prod_"},
		{env: "test", want: "test_"},
		{env: "dev", want: "dev_"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)

			cfg := Load()
			if cfg.TablePrefix != tt.want {
				t.Errorf("TablePrefix = %q, want %q", cfg.TablePrefix, tt.want)
			}
		})
	}
}
