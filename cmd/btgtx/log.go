package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/suffix-labs/btgtx/pkg/account"
	"github.com/suffix-labs/btgtx/pkg/api"
	"github.com/suffix-labs/btgtx/pkg/roles"
	"github.com/suffix-labs/btgtx/pkg/sighash"
)

// logWriter implements an io.Writer that outputs to stderr and, once
// initialized, to the write-end pipe of the log rotator. Standard output is
// reserved for command results.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stderr.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it will write to the backend. When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It is nil unless a log
	// directory is configured and should be closed on shutdown.
	logRotator *rotator.Rotator

	mainLog = backendLog.Logger("BTGX")
	txbdLog = backendLog.Logger("TXBD")
	roleLog = backendLog.Logger("ROLE")
	sghsLog = backendLog.Logger("SGHS")
	acctLog = backendLog.Logger("ACCT")
)

// Initialize package-global logger variables.
func init() {
	api.UseLogger(txbdLog)
	roles.UseLogger(roleLog)
	sighash.UseLogger(sghsLog)
	account.UseLogger(acctLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"BTGX": mainLog,
	"TXBD": txbdLog,
	"ROLE": roleLog,
	"SGHS": sghsLog,
	"ACCT": acctLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile and
// create roll files in the same directory.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r
	return nil
}

// closeLogRotator flushes and closes the log file, if any.
func closeLogRotator() {
	if logRotator != nil {
		logRotator.Close()
		logRotator = nil
	}
}

// setLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}
