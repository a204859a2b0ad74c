package models

import (
	"fmt"
	"sort"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// DefaultRoleColor is Discord's grey for roles without a colour.
const DefaultRoleColor = "#99AAB5"

type Role struct {
	ID       snowflake.ID `json:"id"`
	Name     string       `json:"name"`
	Color    int          `json:"color"`
	Position int          `json:"position"`
	Members  int          `json:"members"`
}

// HexColor renders the role colour as #rrggbb.
func (r Role) HexColor() string {
	return HexColor(r.Color)
}

func HexColor(c int) string {
	if c <= 0 {
		return DefaultRoleColor
	}
	return fmt.Sprintf("#%06x", c&0xFFFFFF)
}

// SortRoles returns a copy ordered highest position first.
func SortRoles(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position > out[j].Position })
	return out
}
