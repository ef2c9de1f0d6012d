/*
Package protocol implements the wire format spoken by the chat service: one
JSON object per message over a persistent encrypted stream, with no framing
beyond the JSON itself.

Inbound messages decode into a Frame tagged by Type. Outbound messages are
Requests (connect, message, ping).
*/
package protocol
