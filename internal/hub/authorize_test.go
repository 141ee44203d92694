package hub

import (
	"testing"

	"campuswire/pkg/types"
)

func TestCanJoin(t *testing.T) {
	s := types.Identity{ID: "s1", Role: types.RoleStudent, Courses: []string{"cs101"}, Clubs: []string{"chess"}}
	p := types.Identity{ID: "p1", Role: types.RoleProfessor}

	tests := []struct {
		identity types.Identity
		room     string
		want     bool
	}{
		{s, "user:s1", true},
		{s, "user:s2", false},
		{s, "role:student", true},
		{s, "role:admin", false},
		{s, "course:cs101", true},
		{s, "course:cs202", false},
		{s, "club:chess", true},
		{s, "club:drama", false},
		{p, "course:cs202", true},
		{p, "club:drama", true},
		{p, "lobby", false},
		{p, "course:", false},
	}
	for _, tt := range tests {
		if got := CanJoin(tt.identity, tt.room); got != tt.want {
			t.Errorf("CanJoin(%s, %q) = %v, want %v", tt.identity.ID, tt.room, got, tt.want)
		}
	}
}
