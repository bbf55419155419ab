// Package config is the toolkit's bootstrap loader: environment variable
// plus YAML file into a caller-supplied struct, for applications that want
// their cache/bus/job/metrics settings sourced the way the teacher's own
// downstream services are.
package config

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	cmdDir    = "cmd"
	configDir = "configs"
)

type options struct {
	appEnv       string
	configDirPath string
}

// Option configures a Load call.
type Option func(*options)

// WithAppEnv pins the config name instead of resolving it from APP_ENV.
func WithAppEnv(env string) Option {
	return func(o *options) { o.appEnv = env }
}

// WithConfigDirPath pins the directory Load searches for <env>.yaml
// instead of deriving it from the caller's source location.
func WithConfigDirPath(path string) Option {
	return func(o *options) { o.configDirPath = path }
}

// Load reads APP_ENV (or an explicit WithAppEnv) and the matching
// configs/<env>.yaml, overlays environment variables via viper's
// AutomaticEnv, and unmarshals the result into v. v must be a pointer.
//
// The config directory defaults to a "configs" directory that mirrors the
// caller's package path under "cmd" (e.g. cmd/worker/main.go resolves to
// configs/worker), matching the teacher's original convention.
func Load(v any, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	appEnv := o.appEnv
	if appEnv == "" {
		resolved, err := GetAppEnv()
		if err != nil {
			return errors.Errorf("config: resolve app env: %w", err)
		}
		appEnv = resolved
	}

	dirPath := o.configDirPath
	if dirPath == "" {
		dirPath = getConfigDirPath(2)
	}

	return read(v, appEnv, dirPath)
}

func read(cfg any, cfgName, cfgDirPath string) error {
	v := viper.New()
	v.AutomaticEnv()

	v.SetConfigName(cfgName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDirPath)

	if err := v.ReadInConfig(); err != nil {
		return errors.Errorf("config: read: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return errors.Errorf("config: unmarshal: %w", err)
	}
	return nil
}

// getConfigDirPath derives configs/<remainder of caller's package path
// after "cmd"> from the call stack, skip frames up from Load.
func getConfigDirPath(skip int) string {
	_, file, _, _ := runtime.Caller(skip)
	dirList := strings.Split(filepath.ToSlash(filepath.Dir(file)), "/")
	dirPath := "./"

	for i, dir := range dirList {
		if dir == cmdDir {
			dirPath = filepath.Join(configDir, filepath.Join(dirList[i+1:]...))
			break
		}
	}
	return dirPath
}
