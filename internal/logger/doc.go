// Package logger provides the structured logging facility for the simri
// service, built on Uber's Zap.
//
// It exposes a thin wrapper with a simplified method set
// (Info/Debug/Warn/Error/Fatal taking an optional error and field maps)
// so application packages do not depend on zap directly. Component
// packages that need logging declare their own narrow Logger interface
// and receive an adapter, keeping them free of this package.
//
// Basic usage:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Info,
//		ServiceName: "simri",
//	})
//	log.Info("ingestion completed", nil, map[string]interface{}{
//		"patient_id": "P-100",
//	})
//
// The FXModule provides the logger to the fx container and registers a
// shutdown hook that flushes buffered entries.
package logger
