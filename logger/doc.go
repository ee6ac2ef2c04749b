// Package logger provides structured logging for the pipeline engine
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("fitting")
//	log.Info("estimator resolved", logger.Fields(logger.FieldNodeID, id))
package logger
