package log

import (
	"os"

	logging "github.com/op/go-logging"
	"golang.org/x/term"
)

const module = "shipyard-dashboard"

var (
	textFormat    = logging.MustStringFormatter("%{time:2006-01-02T15:04:05.000} %{level:.4s} %{shortfile} %{message}")
	textFormatTTY = logging.MustStringFormatter("%{color}%{time:15:04:05.000} %{level:.4s}%{color:reset} %{shortfile} %{message}")

	log = logging.MustGetLogger(module)
)

func init() {
	// report the caller of the helpers below, not this file
	log.ExtraCalldepth = 1
	leveled := logging.AddModuleLevel(newBackend())
	leveled.SetLevel(logging.INFO, "")
	log.SetBackend(leveled)
}

func newBackend() logging.Backend {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	return logging.NewBackendFormatter(backend, GetTextFormat())
}

// GetTextFormat returns a colored format when attached to a terminal.
func GetTextFormat() logging.Formatter {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return textFormatTTY
	}
	return textFormat
}

// SetLevel sets the minimum level logged, e.g. "debug" or "warning".
func SetLevel(level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	leveled := logging.AddModuleLevel(newBackend())
	leveled.SetLevel(lvl, "")
	log.SetBackend(leveled)
	return nil
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warningf(format string, args ...interface{}) {
	log.Warningf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

func Warning(err error) {
	log.Warning(err)
}

func Error(err error) {
	log.Error(err)
}
