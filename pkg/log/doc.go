// Package log captures broker session traffic for later inspection.
//
// Capture is separate from operational logging (zerolog). Every message
// exchanged with the broker, every connection state change and every
// session error becomes an Event that can be written to a binary file
// and replayed with the grass-log tool.
//
// # Basic Usage
//
//	// Console: protocol events at debug level
//	cfg.ProtocolLogger = log.NewZerologAdapter(logger)
//
//	// File: CBOR capture
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/grass/node.glog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// A capture file is a sequence of CBOR records with integer map keys. Each
// run that appends to the file first writes a Header (magic "GLOG" and a
// format version); the events of that run follow. Reader streams events
// back with optional filtering and skips headers.
package log
