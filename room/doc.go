/*
Package room keeps connections to chat rooms.

A Session owns one transport. It sends the connect request, waits for the
server to authorize it, keeps the connection alive with pings and turns each
inbound frame into an Event for its listeners:

	connecting -> authorizing -> authorized -> closed
	                   |              |
	                   +--> failed <--+--> closed

Sessions know nothing about commands or plugins. The Registry maps room
names to sessions for the client on top.
*/
package room
