// Package config defines and validates the dev-server's runtime
// configuration.
//
// Grounded on doismellburning-samoyed's cmd/direwolf flag-to-struct
// pattern (kissutil.go binds pflag variables into a handful of plain
// fields), generalized here into a struct validated with
// github.com/go-playground/validator/v10 rather than hand-written
// range checks, since the rest of the retrieval pack has no
// comparable config-validation library to draw on.
package config

import "github.com/go-playground/validator/v10"

// Config is the dev-server's full runtime configuration, assembled
// from CLI flags by cmd/wavecraft-dev.
type Config struct {
	// EngineDir is the plugin source tree the hot-reload pipeline
	// watches and rebuilds.
	EngineDir string `validate:"required,dir"`

	// BuildCommand is the toolchain invocation run on every rebuild,
	// e.g. "cargo".
	BuildCommand string `validate:"required"`

	// BuildArgs are passed to BuildCommand unmodified.
	BuildArgs []string

	// BufferSize is the requested audio callback frame count.
	BufferSize int `validate:"required,min=32,max=8192"`

	// HTTPAddr is the address the dev HTTP/WebSocket server binds to.
	HTTPAddr string `validate:"required,hostname_port"`

	// PluginLibraryPath is the freshly-built shared library the FFI
	// loader opens after each successful build.
	PluginLibraryPath string `validate:"required,filepath"`

	// LogLevel controls internal/logging's verbosity: one of
	// debug|info|warn|error.
	LogLevel string `validate:"required,oneof=debug info warn error"`
}

// Default returns a Config with the dev-server's conventional
// defaults; callers overlay CLI flags on top before calling Validate.
func Default() Config {
	return Config{
		BuildCommand: "cargo",
		BuildArgs:    []string{"build", "--message-format=json"},
		BufferSize:   512,
		HTTPAddr:     "127.0.0.1:4477",
		LogLevel:     "info",
	}
}

// Validate checks every struct tag constraint and returns nil, or a
// validator.ValidationErrors listing every field that failed.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
