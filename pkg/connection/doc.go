// Package connection provides connection lifecycle management for the proxy
// session.
//
// This package handles:
//   - Connection state tracking with change notification
//   - An unbounded reconnect loop around a single-session function
//   - Optional exponential backoff with jitter between attempts
//
// # States
//
//	Disconnected → Connecting → AwaitingAuth → Active → Failed → Connecting ...
//	                                                     ↘ Closed (context cancelled)
//
// # Reconnection Strategy
//
// The default backoff is zero: after a failure the next attempt starts
// immediately, and there is no attempt cap. A capped exponential strategy
// can be configured instead:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Continue at 60s until successful
//  5. Reset to the initial delay once a session reaches Active
//
// # Jitter
//
// To prevent thundering herd when many nodes reconnect at once:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
package connection
