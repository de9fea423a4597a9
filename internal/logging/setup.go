package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Debug   bool
	Verbose bool
	Quiet   bool
	Output  io.Writer
}

// Configure sets level and output. Without flags only warnings and errors
// are shown; --verbose adds progress lines and --debug adds heuristic
// traces.
func Configure(logger *logrus.Logger, opts Options) {
	if logger == nil {
		return
	}
	target := opts.Output
	if target == nil {
		target = os.Stderr
	}

	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetOutput(target)
		return
	}

	if opts.Quiet {
		logger.SetLevel(logrus.ErrorLevel)
		logger.SetOutput(io.Discard)
		return
	}

	logger.SetOutput(target)
	if opts.Verbose {
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	logger.SetLevel(logrus.WarnLevel)
}
