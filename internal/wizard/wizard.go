// Package wizard provides an interactive setup wizard for udpfaf.
package wizard

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/postalsys/udpfaf/internal/config"
	"github.com/postalsys/udpfaf/internal/udp"
)

// maxTargets bounds the "add another target" loop.
const maxTargets = 32

// Result contains the wizard output.
type Result struct {
	Config     *config.Config
	ConfigPath string
}

// Wizard manages the interactive setup process.
type Wizard struct {
	theme *huh.Theme
}

// New creates a new setup wizard.
func New() *Wizard {
	return &Wizard{
		theme: huh.ThemeDracula(),
	}
}

// advancedOptions holds answers from the logging and metrics step.
type advancedOptions struct {
	logLevel       string
	logFormat      string
	metricsEnabled bool
	metricsAddress string
}

// Run executes the interactive setup wizard.
func (w *Wizard) Run() (*Result, error) {
	w.printBanner()

	// Step 1: Where to write the file
	configPath, err := w.askConfigPath()
	if err != nil {
		return nil, err
	}

	// Step 2: Named targets
	targets, err := w.askTargets()
	if err != nil {
		return nil, err
	}

	// Step 3: Logging and metrics
	opts, err := w.askAdvancedOptions()
	if err != nil {
		return nil, err
	}

	cfg := buildConfig(targets, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := writeConfig(cfg, configPath); err != nil {
		return nil, err
	}

	w.printSummary(configPath, cfg)

	return &Result{
		Config:     cfg,
		ConfigPath: configPath,
	}, nil
}

func (w *Wizard) printBanner() {
	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		Render(`
            _        __       __
  _   _  __| |_ __  / _| __ _/ _|
 | | | |/ _' | '_ \| |_ / _' | |_
 | |_| | (_| | |_) |  _| (_| |  _|
  \__,_|\__,_| .__/|_|  \__,_|_|
             |_|
`)

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("  Fire-and-forget UDP sender - Setup Wizard\n")

	fmt.Println(banner)
	fmt.Println(subtitle)
}

func (w *Wizard) askConfigPath() (string, error) {
	configPath := "./udpfaf.yaml"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Basic Setup").
				Description("Choose where the configuration file is written."),

			huh.NewInput().
				Title("Config File Path").
				Placeholder("./udpfaf.yaml").
				Value(&configPath).
				Validate(validateConfigPath),
		),
	).WithTheme(w.theme)

	err := form.Run()
	return configPath, err
}

func (w *Wizard) askTargets() ([]config.TargetConfig, error) {
	var targets []config.TargetConfig

	for len(targets) < maxTargets {
		target, err := w.askSingleTarget(len(targets)+1, targets)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)

		addAnother := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another target?").
					Value(&addAnother),
			),
		).WithTheme(w.theme)

		if err := form.Run(); err != nil {
			return nil, err
		}
		if !addAnother {
			break
		}
	}

	return targets, nil
}

func (w *Wizard) askSingleTarget(num int, existing []config.TargetConfig) (config.TargetConfig, error) {
	var (
		name      = fmt.Sprintf("target%d", num)
		address   = "127.0.0.1"
		port      = "9999"
		broadcast bool
		ttl       = "0"
		tos       = "0"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Target %d", num)).
				Description("A named destination for 'udpfaf send --target'.\nAddresses must be IPv4 literals."),

			huh.NewInput().
				Title("Name").
				Value(&name).
				Validate(func(s string) error {
					return validateTargetName(s, existing)
				}),

			huh.NewInput().
				Title("IPv4 Address").
				Placeholder("192.168.1.44").
				Value(&address).
				Validate(validateIPv4),

			huh.NewInput().
				Title("Port").
				Placeholder("9999").
				Value(&port).
				Validate(validatePort),

			huh.NewConfirm().
				Title("Allow broadcast?").
				Description("Required when the address is a broadcast address").
				Value(&broadcast),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("TTL").
				Description("IP time-to-live, 0 keeps the system default").
				Value(&ttl).
				Validate(validateByte),

			huh.NewInput().
				Title("TOS").
				Description("IP type-of-service byte, 0 keeps the system default").
				Value(&tos).
				Validate(validateByte),
		),
	).WithTheme(w.theme)

	if err := form.Run(); err != nil {
		return config.TargetConfig{}, err
	}

	return buildTarget(name, address, port, broadcast, ttl, tos), nil
}

func (w *Wizard) askAdvancedOptions() (advancedOptions, error) {
	opts := advancedOptions{
		logLevel:       "info",
		logFormat:      "text",
		metricsAddress: "127.0.0.1:9110",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Advanced Options").
				Description("Configure logging and monitoring."),

			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warning", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&opts.logLevel),

			huh.NewSelect[string]().
				Title("Log Format").
				Options(
					huh.NewOption("Text", "text"),
					huh.NewOption("JSON", "json"),
					huh.NewOption("Console (colored)", "console"),
				).
				Value(&opts.logFormat),

			huh.NewConfirm().
				Title("Enable metrics endpoint?").
				Description("HTTP endpoint for Prometheus (/metrics, /healthz) during burst runs").
				Value(&opts.metricsEnabled),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics Address").
				Value(&opts.metricsAddress).
				Validate(validateListenAddr),
		).WithHideFunc(func() bool {
			return !opts.metricsEnabled
		}),
	).WithTheme(w.theme)

	err := form.Run()
	return opts, err
}

func (w *Wizard) printSummary(configPath string, cfg *config.Config) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42"))

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("─────────────────────────────────────────────────")

	fmt.Println()
	fmt.Println(divider)
	fmt.Println(style.Render("✓ Setup Complete!"))
	fmt.Println(divider)
	fmt.Println()

	fmt.Printf("  Config file:  %s\n", configPath)
	for _, t := range cfg.Targets {
		ep, _ := t.Endpoint()
		flag := ""
		if t.Broadcast {
			flag = " (broadcast)"
		}
		fmt.Printf("  Target:       %-12s %s%s\n", t.Name, ep, flag)
	}

	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics:      http://%s/metrics\n", cfg.Metrics.Address)
	}

	fmt.Println()
	if len(cfg.Targets) > 0 {
		fmt.Println("  To send a datagram:")
		fmt.Printf("    echo hello | udpfaf send -c %s --target %s\n", configPath, cfg.Targets[0].Name)
	}
	fmt.Println()
}

// buildTarget converts validated form answers into a target.
func buildTarget(name, address, port string, broadcast bool, ttl, tos string) config.TargetConfig {
	p, _ := strconv.Atoi(strings.TrimSpace(port))
	tt, _ := strconv.Atoi(strings.TrimSpace(ttl))
	ts, _ := strconv.Atoi(strings.TrimSpace(tos))

	return config.TargetConfig{
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		Port:      p,
		Broadcast: broadcast,
		TTL:       tt,
		TOS:       ts,
	}
}

func buildConfig(targets []config.TargetConfig, opts advancedOptions) *config.Config {
	cfg := config.Default()

	cfg.Log.Level = opts.logLevel
	cfg.Log.Format = opts.logFormat
	cfg.Metrics.Enabled = opts.metricsEnabled
	if opts.metricsAddress != "" {
		cfg.Metrics.Address = opts.metricsAddress
	}
	if targets != nil {
		cfg.Targets = targets
	}

	return cfg
}

func writeConfig(cfg *config.Config, path string) error {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := `# udpfaf configuration
# Generated by setup wizard

`
	if err := os.WriteFile(path, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func validateConfigPath(s string) error {
	if s == "" {
		return fmt.Errorf("config path is required")
	}
	if !strings.HasSuffix(s, ".yaml") && !strings.HasSuffix(s, ".yml") {
		return fmt.Errorf("config file should have .yaml or .yml extension")
	}
	return nil
}

func validateTargetName(s string, existing []config.TargetConfig) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s, " \t") {
		return fmt.Errorf("name must not contain whitespace")
	}
	for _, t := range existing {
		if t.Name == s {
			return fmt.Errorf("target %q already exists", s)
		}
	}
	return nil
}

func validateIPv4(s string) error {
	_, err := udp.ParseEndpoint(strings.TrimSpace(s), 0)
	return err
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func validateByte(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 255 {
		return fmt.Errorf("value must be between 0 and 255")
	}
	return nil
}

func validateListenAddr(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("address must be host:port: %w", err)
	}
	return nil
}
