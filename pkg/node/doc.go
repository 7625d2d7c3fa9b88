// Package node runs the broker session of a bandwidth-sharing node.
//
// An Engine owns at most one broker connection at a time. Each attempt
// picks an endpoint at random, resolves a fresh device descriptor, dials,
// then answers the broker's AUTH request and keeps the PING/PONG exchange
// going until the connection fails. Failures of any kind end the attempt
// and the Engine starts a new one. It never gives up.
//
// Inbound handling:
//
//	AUTH  -> AUTH reply, PING   (AwaitingAuth -> Active)
//	PONG  -> PONG ack, PING
//	other -> ignored
//
// Every processed message is followed by a fixed pause before the next
// receive.
package node
