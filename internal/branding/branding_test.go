package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cli name", CLIName(), "modreg"},
		{"home dir", HomeDir(), ".modreg"},
		{"env prefix", EnvPrefix(), "MODREG"},
		{"env var", EnvVar("github_token"), "MODREG_GITHUB_TOKEN"},
		{"user agent", UserAgent("1.2.3"), "modreg/1.2.3"},
		{"user agent without version", UserAgent(""), "modreg"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if DisplayName() == "" || Description() == "" || GitHubRepo() == "" {
		t.Error("identity values should not be empty")
	}
}
