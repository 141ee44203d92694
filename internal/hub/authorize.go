package hub

import "campuswire/pkg/types"

// CanJoin reports whether identity may join room explicitly. Staff may join
// any course or club room; students only those they belong to.
func CanJoin(identity types.Identity, room string) bool {
	prefix, id, ok := types.SplitRoom(room)
	if !ok {
		return false
	}
	switch prefix {
	case types.RoomPrefixUser:
		return id == identity.ID
	case types.RoomPrefixRole:
		return types.Role(id) == identity.Role
	case types.RoomPrefixCourse:
		return identity.Role.IsStaff() || identity.EnrolledIn(id)
	case types.RoomPrefixClub:
		return identity.Role.IsStaff() || identity.MemberOf(id)
	default:
		return false
	}
}
