// Package logger provides structured logging for attachkit services
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("attachd").WithComponent("filehandler")
//	log.Info("attachment stored", logger.AttachmentFields(id, "local"))
package logger
