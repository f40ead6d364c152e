package redikv

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the structured logger every connection and the accept
// loop log through — generalizing the teacher's
// per-connection log.New(os.Stderr, conn.RemoteAddr().String(), ...)
// (app/diyredis/server.go) to logrus fields (conn, cmd, addr) with
// TTY-aware color output.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetOutput(colorable.NewColorableStderr())
		formatter.ForceColors = true
	}
	log.SetFormatter(formatter)

	return log
}
