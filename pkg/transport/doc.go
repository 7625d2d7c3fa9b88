// Package transport opens WebSocket connections to the proxy broker.
//
// The transport layer handles:
//   - Picking one of a fixed set of broker endpoints per attempt
//   - The browser-extension header set presented during the upgrade
//   - TLS posture (certificate verification can be switched off)
//   - Optional read and write deadlines on an open connection
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON messages (wire)      │
//	├────────────────────────────────┤
//	│   WebSocket text frames        │
//	│   (permessage-deflate)         │
//	├────────────────────────────────┤
//	│         TLS                    │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Handshake Key
//
// Every dial sends a fresh Sec-WebSocket-Key: 16 random bytes, base64
// encoded, generated by gorilla/websocket for that dial alone.
//
// # Read Timeout
//
// By default Receive blocks until the broker sends a frame or the connection
// drops. Setting ReadTimeout bounds each Receive.
package transport
