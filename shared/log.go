package shared

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

func NewLogger(w io.Writer, level charmlog.Level, prefix string) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportCaller:    level == charmlog.DebugLevel,
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}
