// Package config resolves engine configuration from MICROENGINE_* environment
// variables and an optional yaml file. It is loaded exactly once by the
// caller and threaded into constructors explicitly, nothing in the scan path
// reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Name is the engine display name reported in metric tags and in the
	// verdict scanner block.
	Name   string `mapstructure:"name"`
	Vendor string `mapstructure:"vendor"`

	// CmdExe is the external scanner binary wrapped by the demo engine.
	CmdExe       string `mapstructure:"cmd_exe"`
	InstallDir   string `mapstructure:"install_dir"`
	VendorDir    string `mapstructure:"vendor_dir"`
	SignatureDir string `mapstructure:"signature_dir"`

	// VerboseMetrics additionally reports per-verdict and no-result counters.
	VerboseMetrics bool   `mapstructure:"verbose_metrics"`
	StatsdAddr     string `mapstructure:"statsd_addr"`
	PolyWork       string `mapstructure:"poly_work"`
	Source         string `mapstructure:"source"`

	WinePath    string        `mapstructure:"wine_path"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// Load reads the configuration. path may be empty, then only environment
// variables and defaults apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MICROENGINE")
	v.AutomaticEnv()

	installDir := "/usr/src/app"
	if runtime.GOOS == "windows" {
		installDir = `C:\microengine\`
	}
	hostname, _ := os.Hostname()

	// Defaults double as key registrations so AutomaticEnv picks them up.
	v.SetDefault("name", "")
	v.SetDefault("vendor", "")
	v.SetDefault("cmd_exe", "")
	v.SetDefault("install_dir", installDir)
	v.SetDefault("vendor_dir", filepath.Join(installDir, "vendor"))
	v.SetDefault("signature_dir", "")
	v.SetDefault("verbose_metrics", false)
	v.SetDefault("statsd_addr", "")
	v.SetDefault("poly_work", "local")
	v.SetDefault("source", hostname)
	v.SetDefault("wine_path", "/usr/bin/wine")
	v.SetDefault("scan_timeout", 15*time.Second)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

// OSType reports which flavor the engine executes under: "windows", "wine"
// when a wine binary is present, or "linux".
func (c Config) OSType() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	if _, err := os.Stat(c.WinePath); err == nil {
		return "wine"
	}
	return "linux"
}
