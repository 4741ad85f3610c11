package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/packetgov/kernel/internal/constants"
)

//nolint:gochecknoglobals // zerolog's field names are process-global by design
var configureOnce sync.Once

// configureZerologGlobals sets process-wide zerolog field names exactly
// once, regardless of how many times a logger is built.
func configureZerologGlobals() {
	configureOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})
}

// Options controls logger construction.
type Options struct {
	// Verbose enables debug-level logging.
	Verbose bool

	// Quiet suppresses everything below warn level.
	Quiet bool
}

// New builds a zerolog.Logger that writes colorized console output to
// stderr when attached to a TTY (plain/JSON otherwise), and additionally
// persists to a rotating file under the kernel's home directory.
func New(opts Options) zerolog.Logger {
	configureZerologGlobals()

	level := selectLevel(opts.Verbose, opts.Quiet)
	writers := []io.Writer{selectOutput()}

	if fw, err := createLogFileWriter(); err == nil {
		writers = append(writers, fw)
	}

	base := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(NewSensitiveDataHook())

	return base
}

// selectLevel maps the verbose/quiet flags to a zerolog level, verbose
// taking priority when both are set.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput picks a colorized console writer for an attached TTY, and
// falls back to plain JSON lines otherwise (piped output, CI logs).
func selectOutput() io.Writer {
	noColor := os.Getenv("NO_COLOR") != ""
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
}

// createLogFileWriter builds the rotating file sink under the kernel's
// home directory, wrapped with sensitive-data filtering.
func createLogFileWriter() (io.Writer, error) {
	home, err := kernelHome()
	if err != nil {
		return nil, err
	}

	logsDir := filepath.Join(home, constants.LogsDirName)
	if err := os.MkdirAll(logsDir, constants.DirPerm); err != nil {
		return nil, fmt.Errorf("logging: create logs dir: %w", err)
	}

	logger := &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, constants.CLILogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	return NewFilteringWriter(logger), nil
}

// kernelHome resolves the kernel's home directory, honoring KERNEL_HOME
// before falling back to ~/.packetgov.
func kernelHome() (string, error) {
	if env := os.Getenv("KERNEL_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("logging: home directory: %w", err)
	}
	return filepath.Join(home, constants.KernelHome), nil
}
