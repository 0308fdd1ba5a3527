// Package logger builds the zap logger every component receives.
//
// Level and encoder come from the log section of the configuration; Output
// sends entries to stderr, stdout or a file. Two helpers scope a logger:
// ForMode tags entries with the inventory mode and WithRayID copies the
// request's ray id from a Fiber context, so a device request can be followed
// through the pipeline.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Output: "/data/scanmate.log"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(logger.ForMode(log, "loots"), c)
//	l.Error("Import failed", zap.Error(err))
package logger
