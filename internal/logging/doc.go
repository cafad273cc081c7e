// Package logging provides structured logging for sparcli.
//
// It wraps Go's log/slog to emit JSON lines, either to a file in a
// configured directory or to stderr. Because the chart owns the terminal,
// the useful destination while a session is running is usually a file:
// lines written to stderr are captured and replayed above the chart.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/tmp/sparcli", "DEBUG")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	ctrl := logger.WithComponent("controller")
//	ctrl.Debug("variable added", "variable", "loss")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"variable added","component":"controller","variable":"loss"}
//
// Child loggers created with With, WithComponent, WithProducer and
// WithVariable share the parent's destination, and closing any of them
// closes the file once.
package logging
