package events

import "context"

// Transport fans out events to connected clients. Delivery is
// fire-and-forget: at most once per connected subscriber, zero times for
// disconnected ones, who reconcile over REST. Implementations must never
// fail the caller; transient delivery problems are logged and swallowed.
type Transport interface {
	// Broadcast delivers to every current subscriber of a room.
	Broadcast(ctx context.Context, room string, ev Event)
	// EmitToUser delivers to all active connections of one user.
	EmitToUser(ctx context.Context, userID string, ev Event)
}

// RoomPresence answers whether a user currently has a connection
// subscribed to a room. Used to decide who needs a notification instead
// of the live broadcast.
type RoomPresence interface {
	UserInRoom(userID, room string) bool
}
