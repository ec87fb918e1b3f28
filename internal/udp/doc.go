// Package udp provides a fire-and-forget UDP datagram sender.
//
// A Sender owns one IPv4 UDP socket and one fixed destination endpoint for
// its whole lifetime. Each Send call transmits the payload verbatim as a
// single datagram and returns immediately. Nothing waits for the receiver
// and nothing reports whether the datagram left the host.
//
// # Lifecycle
//
//  1. New parses the destination (numeric IPv4 literal and port), opens the
//     socket on an ephemeral local port and sets SO_BROADCAST as requested
//  2. Send, SendString or Write transmit datagrams through that socket
//  3. Close releases the socket
//
// Errors surface only from New. Send has no failure path: errors returned
// by the platform write are counted (when metrics are configured) and
// dropped.
//
// # Thread Safety
//
// A Sender makes no ordering promise between Send calls issued from
// different goroutines. Callers that need ordering serialize their calls.
// Separate Senders never share state.
package udp
