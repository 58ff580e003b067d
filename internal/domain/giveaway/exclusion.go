package giveaway

import "github.com/disgoorg/snowflake/v2"

// ExclusionKey identifies an exclusion within a guild. Reason and staff member
// are informational and do not take part in identity.
type ExclusionKey struct {
	GuildID  snowflake.ID
	TargetID snowflake.ID
}

// ExcludedUser bars a user from winning giveaways in a guild.
type ExcludedUser struct {
	GuildID       snowflake.ID `json:"guild_id"`
	UserID        snowflake.ID `json:"user_id"`
	StaffMemberID snowflake.ID `json:"staff_member_id"`
	Reason        string       `json:"reason,omitempty"`
}

func (u ExcludedUser) Key() ExclusionKey {
	return ExclusionKey{GuildID: u.GuildID, TargetID: u.UserID}
}

// ExcludedRole bars every member holding the role from winning.
type ExcludedRole struct {
	GuildID       snowflake.ID `json:"guild_id"`
	RoleID        snowflake.ID `json:"role_id"`
	StaffMemberID snowflake.ID `json:"staff_member_id"`
	Reason        string       `json:"reason,omitempty"`
}

func (r ExcludedRole) Key() ExclusionKey {
	return ExclusionKey{GuildID: r.GuildID, TargetID: r.RoleID}
}

// Member is the part of a guild member the eligibility check needs.
type Member struct {
	UserID  snowflake.ID
	RoleIDs []snowflake.ID
}
