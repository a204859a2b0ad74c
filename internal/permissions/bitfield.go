package permissions

import (
	"sort"
	"strings"
)

// Permission is a bitfield of panel capabilities.
type Permission int64

const (
	PermViewDashboard       Permission = 1 << 0
	PermManageMessages      Permission = 1 << 1
	PermModerate            Permission = 1 << 2
	PermManageChannels      Permission = 1 << 3
	PermManageRoles         Permission = 1 << 4
	PermManageReactionRoles Permission = 1 << 5
	PermManageWelcomes      Permission = 1 << 6
	PermManageTempRooms     Permission = 1 << 7
	PermReviewSuspicious    Permission = 1 << 8
	PermConfigureSuspicious Permission = 1 << 9
	PermViewAudit           Permission = 1 << 10
	PermReadChannels        Permission = 1 << 11

	PermAll = Permission(1<<12 - 1)
)

// Has returns true if p contains all bits in perm.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// Add returns p with the bits from perm set.
func (p Permission) Add(perm Permission) Permission { return p | perm }

// Remove returns p with the bits from perm cleared.
func (p Permission) Remove(perm Permission) Permission { return p &^ perm }

var permNames = map[Permission]string{
	PermViewDashboard:       "VIEW_DASHBOARD",
	PermManageMessages:      "MANAGE_MESSAGES",
	PermModerate:            "MODERATE",
	PermManageChannels:      "MANAGE_CHANNELS",
	PermManageRoles:         "MANAGE_ROLES",
	PermManageReactionRoles: "MANAGE_REACTION_ROLES",
	PermManageWelcomes:      "MANAGE_WELCOMES",
	PermManageTempRooms:     "MANAGE_TEMP_ROOMS",
	PermReviewSuspicious:    "REVIEW_SUSPICIOUS",
	PermConfigureSuspicious: "CONFIGURE_SUSPICIOUS",
	PermViewAudit:           "VIEW_AUDIT",
	PermReadChannels:        "READ_CHANNELS",
}

// String lists the set capability names in bit order, separated by " | ".
func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}

	bits := make([]Permission, 0, len(permNames))
	for bit := range permNames {
		if p.Has(bit) {
			bits = append(bits, bit)
		}
	}
	if len(bits) == 0 {
		return "UNKNOWN"
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	names := make([]string, len(bits))
	for i, bit := range bits {
		names[i] = permNames[bit]
	}
	return strings.Join(names, " | ")
}

// ByName resolves a capability name such as "MODERATE". Unknown names
// resolve to a bit no role holds.
func ByName(name string) Permission {
	name = strings.ToUpper(strings.TrimSpace(name))
	for bit, n := range permNames {
		if n == name {
			return bit
		}
	}
	return PermAll + 1
}
