// Package config loads the build configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// EnvPrefix is the prefix of every environment variable read by the loader.
const EnvPrefix = "PLUGPACK"

const (
	keyRuntimePath    = "runtime_path"
	keyToolPath       = "tool_path"
	keyOutputPath     = "output_path"
	keyPackagesPath   = "packages_path"
	keyPluginBaseType = "plugin_base_type"
	keySDKSuffix      = "sdk_suffix"
	keyMergeTimeout   = "merge_timeout"

	nugetPackagesEnv = "NUGET_PACKAGES"
)

// legacyEnv maps the variables of earlier SoruxBot tooling to their keys.
// They are read below the PLUGPACK_ variables.
var legacyEnv = map[string]string{
	"SORUX_DOTNET_PATH": keyRuntimePath,
	"SORUX_TOOL_PATH":   keyToolPath,
	"SORUX_OUTPUT_PATH": keyOutputPath,
	nugetPackagesEnv:    keyPackagesPath,
}

var knownKeys = []string{
	keyRuntimePath,
	keyToolPath,
	keyOutputPath,
	keyPackagesPath,
	keyPluginBaseType,
	keySDKSuffix,
	keyMergeTimeout,
}

// Loader implements ports.ConfigLoader with viper.
type Loader struct {
	Logger ports.Logger
	// HomeDir overrides os.UserHomeDir when set.
	HomeDir func() (string, error)
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration for the given working directory.
func (l *Loader) Load(cwd string) (domain.BuildConfiguration, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for legacy, key := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return domain.BuildConfiguration{}, zerr.Wrap(err, domain.ErrInvalidConfig.Error())
		}
	}

	home, err := l.homeDir()
	if err != nil {
		return domain.BuildConfiguration{}, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	v.SetDefault(keyRuntimePath, domain.DefaultRuntimePath)
	v.SetDefault(keyToolPath, domain.DefaultToolPath)
	v.SetDefault(keyOutputPath, "")
	v.SetDefault(keyPackagesPath, filepath.Join(home, ".nuget", "packages"))
	v.SetDefault(keyPluginBaseType, domain.DefaultPluginBaseType)
	v.SetDefault(keySDKSuffix, domain.DefaultSDKSuffix)
	v.SetDefault(keyMergeTimeout, "0")

	if err := l.mergeEnvFile(v, filepath.Join(cwd, domain.EnvFileName)); err != nil {
		return domain.BuildConfiguration{}, err
	}

	timeout, err := parseTimeout(v.GetString(keyMergeTimeout))
	if err != nil {
		return domain.BuildConfiguration{}, err
	}

	cfg := domain.BuildConfiguration{
		WorkingDirectory: cwd,
		RuntimePath:      resolveCommand(cwd, v.GetString(keyRuntimePath)),
		MergeToolPath:    resolvePath(cwd, v.GetString(keyToolPath)),
		OutputPath:       resolvePath(cwd, v.GetString(keyOutputPath)),
		PackagesPath:     resolvePath(cwd, v.GetString(keyPackagesPath)),
		PluginBaseType:   strings.TrimSpace(v.GetString(keyPluginBaseType)),
		SDKSuffix:        strings.TrimSpace(v.GetString(keySDKSuffix)),
		MergeTimeout:     timeout,
	}

	if cfg.RuntimePath == "" {
		return domain.BuildConfiguration{}, zerr.With(zerr.New(domain.ErrInvalidConfig.Error()), "key", keyRuntimePath)
	}
	if cfg.PluginBaseType == "" {
		return domain.BuildConfiguration{}, zerr.With(zerr.New(domain.ErrInvalidConfig.Error()), "key", keyPluginBaseType)
	}
	return cfg, nil
}

// mergeEnvFile reads a dotenv file into the config layer of v, below real
// environment variables.
func (l *Loader) mergeEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("dotenv")
	if err := file.ReadInConfig(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	settings := make(map[string]any)
	legacy := make(map[string]any)
	prefix := strings.ToLower(EnvPrefix) + "_"
	for key, value := range file.AllSettings() {
		if name, ok := legacyEnv[strings.ToUpper(key)]; ok {
			legacy[name] = value
			continue
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if !slices.Contains(knownKeys, name) {
			l.warn("ignoring unknown setting " + strings.ToUpper(key) + " in " + path)
			continue
		}
		settings[name] = value
	}
	for name, value := range legacy {
		if _, ok := settings[name]; !ok {
			settings[name] = value
		}
	}

	if err := v.MergeConfigMap(settings); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

func (l *Loader) homeDir() (string, error) {
	if l.HomeDir != nil {
		return l.HomeDir()
	}
	return os.UserHomeDir()
}

func (l *Loader) warn(msg string) {
	if l.Logger != nil {
		l.Logger.Warn(msg)
	}
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrInvalidConfig.Error()), "key", keyMergeTimeout)
		return 0, zerr.With(err, "value", raw)
	}
	if d < 0 {
		err := zerr.With(zerr.New(domain.ErrInvalidConfig.Error()), "key", keyMergeTimeout)
		return 0, zerr.With(err, "value", raw)
	}
	return d, nil
}

func resolvePath(cwd, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

// resolveCommand leaves bare command names for PATH lookup.
func resolveCommand(cwd, cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if !strings.ContainsRune(cmd, '/') && !strings.ContainsRune(cmd, filepath.Separator) {
		return cmd
	}
	return resolvePath(cwd, cmd)
}
