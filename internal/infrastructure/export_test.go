package infrastructure

import "sync"

// resetLogger clears the global logger so each test can initialize it again.
func resetLogger() {
	_ = CloseLogFile()
	globalLogger = nil
	globalLoggerOnce = sync.Once{}
}
