/*
Package ranger is a bot for room-based chat services spoken to over TLS, one
JSON object per message.

protocol subdirectory contains the wire format and knows nothing about rooms.

room subdirectory contains the per-room sessions: handshake, keepalive and
event dispatch.

command subdirectory matches chat messages against prefixed commands.

The Client type is the glue between them and the surface plugins use:

	client := ranger.New(ranger.Config{Token: token})
	client.ConnectAll(ctx, rooms, func(results []ranger.Result) {
		client.Command("sum", func(ev *room.Event, args []string) {
			client.Message(ev.Room, strings.Join(args, " + "))
		})
	})
*/
package ranger
