// Package signalr consumes the Shoko Server change feed.
//
// Shoko publishes file notifications over an ASP.NET SignalR hub. Only the
// JSON hub protocol over websockets is spoken: the client sends the protocol
// handshake, answers nothing but pings, and turns invocation messages for the
// file targets into fileevents envelopes for a Handler. Run keeps the
// connection alive across server restarts with a capped exponential back-off.
package signalr
