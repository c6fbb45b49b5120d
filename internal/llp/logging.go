package llp

import "github.com/llp-go/llp/pkg/utils"

// nopLogger discards everything. It is the default when a caller does not
// wire a Logger into IteratorConfig/OrchestratorConfig, so the core never
// has to nil-check before logging.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (l nopLogger) WithField(string, interface{}) utils.Logger { return l }
func (l nopLogger) WithFields(map[string]interface{}) utils.Logger { return l }
