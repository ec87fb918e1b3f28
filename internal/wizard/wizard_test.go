package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/postalsys/udpfaf/internal/config"
)

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.theme == nil {
		t.Error("New() returned wizard without a theme")
	}
}

func TestBuildTarget(t *testing.T) {
	got := buildTarget(" lan ", "192.168.1.255 ", "9999", true, "1", " 16")

	want := config.TargetConfig{
		Name:      "lan",
		Address:   "192.168.1.255",
		Port:      9999,
		Broadcast: true,
		TTL:       1,
		TOS:       16,
	}
	if got != want {
		t.Errorf("buildTarget() = %+v, want %+v", got, want)
	}
}

func TestBuildConfig(t *testing.T) {
	targets := []config.TargetConfig{
		{Name: "collector", Address: "192.168.1.44", Port: 8861},
	}
	opts := advancedOptions{
		logLevel:       "debug",
		logFormat:      "json",
		metricsEnabled: true,
		metricsAddress: "0.0.0.0:9200",
	}

	cfg := buildConfig(targets, opts)

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Address != "0.0.0.0:9200" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Name != "collector" {
		t.Errorf("Targets = %+v", cfg.Targets)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("built config should validate: %v", err)
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg := buildConfig(nil, advancedOptions{logLevel: "info", logFormat: "text"})

	if cfg.Metrics.Address != "127.0.0.1:9110" {
		t.Errorf("Metrics.Address = %s, want default", cfg.Metrics.Address)
	}
	if cfg.Targets == nil {
		t.Error("Targets should be an empty slice, not nil")
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Targets = []config.TargetConfig{
		{Name: "lan", Address: "192.168.1.255", Port: 9999, Broadcast: true, TTL: 1},
	}

	configPath := filepath.Join(t.TempDir(), "udpfaf.yaml")

	if err := writeConfig(cfg, configPath); err != nil {
		t.Fatalf("writeConfig failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	content := string(data)

	if !strings.HasPrefix(content, "# udpfaf configuration") {
		t.Error("Config file missing header comment")
	}
	for _, want := range []string{"level: debug", "name: lan", "address: 192.168.1.255", "broadcast: true", "ttl: 1"} {
		if !strings.Contains(content, want) {
			t.Errorf("Config file missing %q", want)
		}
	}

	// The written file must load back cleanly
	loaded, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() of written config failed: %v", err)
	}
	if target, ok := loaded.Target("lan"); !ok || !target.Broadcast {
		t.Errorf("loaded target = %+v, %v", target, ok)
	}
}

func TestWriteConfigCreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "udpfaf.yaml")

	if err := writeConfig(config.Default(), configPath); err != nil {
		t.Fatalf("writeConfig failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created in nested directory")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"./udpfaf.yaml", false},
		{"/etc/udpfaf/config.yml", false},
		{"", true},
		{"config.json", true},
	}

	for _, tt := range tests {
		if err := validateConfigPath(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("validateConfigPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateTargetName(t *testing.T) {
	existing := []config.TargetConfig{{Name: "taken"}}

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"collector", false},
		{"", true},
		{"  ", true},
		{"has space", true},
		{"taken", true},
	}

	for _, tt := range tests {
		if err := validateTargetName(tt.input, existing); (err != nil) != tt.wantErr {
			t.Errorf("validateTargetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateIPv4(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"192.168.1.44", false},
		{"255.255.255.255", false},
		{" 10.0.0.1 ", false},
		{"localhost", true},
		{"::1", true},
		{"256.1.1.1", true},
		{"", true},
	}

	for _, tt := range tests {
		if err := validateIPv4(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("validateIPv4(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1", false},
		{"9999", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"abc", true},
		{"", true},
	}

	for _, tt := range tests {
		if err := validatePort(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("validatePort(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateByte(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"0", false},
		{"255", false},
		{"256", true},
		{"-1", true},
		{"x", true},
	}

	for _, tt := range tests {
		if err := validateByte(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("validateByte(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateListenAddr(t *testing.T) {
	if err := validateListenAddr("127.0.0.1:9110"); err != nil {
		t.Errorf("validateListenAddr() error = %v", err)
	}
	if err := validateListenAddr(":9110"); err != nil {
		t.Errorf("validateListenAddr(:9110) error = %v", err)
	}
	if err := validateListenAddr("9110"); err == nil {
		t.Error("validateListenAddr(9110) should fail")
	}
}
