package presence

import "campuswire/pkg/types"

// AutoJoinPolicy returns the rooms a fresh connection of identity joins
// before it can receive anything. The first room must be the identity's own
// user room. Every returned room is pinned for the connection lifetime.
type AutoJoinPolicy func(identity types.Identity) []string

// DefaultAutoJoin joins user:<id>, and role:student for students so bulk
// student notices can be delivered to a single room.
func DefaultAutoJoin(identity types.Identity) []string {
	rooms := []string{types.UserRoom(identity.ID)}
	if identity.Role == types.RoleStudent {
		rooms = append(rooms, types.RoleRoom(types.RoleStudent))
	}
	return rooms
}
