// Package logger provides leveled, colored logging for envault commands.
//
// Verbosity is carried by the Logger value itself, not by process-wide
// state: commands construct a Logger from their --verbose/--debug flags
// and pass it into the packages they call.
//
//	log := logger.Logger{Verbose: verbose, Debug: debug}
//	log.Infof("re-encrypting %d files", n)
//
// Infof is shown with --verbose, Debugf only with --debug. Warnf and
// Errorf always print to stderr.
package logger
