package sqlite

import (
	"context"
	"database/sql"

	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// ExclusionRepository persists excluded users and roles.
type ExclusionRepository struct {
	db *sql.DB
}

func NewExclusionRepository(db *sql.DB) *ExclusionRepository { return &ExclusionRepository{db: db} }

// AddUser inserts or refreshes a user exclusion.
func (r *ExclusionRepository) AddUser(ctx context.Context, u dg.ExcludedUser) error {
	const q = `
	INSERT INTO excluded_users (guild_id, user_id, staff_member_id, reason) VALUES (?,?,?,?)
	ON CONFLICT (guild_id, user_id) DO UPDATE SET staff_member_id = excluded.staff_member_id, reason = excluded.reason`
	_, err := r.db.ExecContext(ctx, q, int64(u.GuildID), int64(u.UserID), int64(u.StaffMemberID), u.Reason)
	return err
}

func (r *ExclusionRepository) RemoveUser(ctx context.Context, guildID, userID snowflake.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM excluded_users WHERE guild_id = ? AND user_id = ?`, int64(guildID), int64(userID))
	return err
}

func (r *ExclusionRepository) UsersByGuild(ctx context.Context, guildID snowflake.ID) ([]dg.ExcludedUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, staff_member_id, reason FROM excluded_users WHERE guild_id = ?`, int64(guildID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dg.ExcludedUser
	for rows.Next() {
		var userID, staffID int64
		u := dg.ExcludedUser{GuildID: guildID}
		if err := rows.Scan(&userID, &staffID, &u.Reason); err != nil {
			return nil, err
		}
		u.UserID = snowflake.ID(userID)
		u.StaffMemberID = snowflake.ID(staffID)
		out = append(out, u)
	}
	return out, rows.Err()
}

// AddRole inserts or refreshes a role exclusion.
func (r *ExclusionRepository) AddRole(ctx context.Context, role dg.ExcludedRole) error {
	const q = `
	INSERT INTO excluded_roles (guild_id, role_id, staff_member_id, reason) VALUES (?,?,?,?)
	ON CONFLICT (guild_id, role_id) DO UPDATE SET staff_member_id = excluded.staff_member_id, reason = excluded.reason`
	_, err := r.db.ExecContext(ctx, q, int64(role.GuildID), int64(role.RoleID), int64(role.StaffMemberID), role.Reason)
	return err
}

func (r *ExclusionRepository) RemoveRole(ctx context.Context, guildID, roleID snowflake.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM excluded_roles WHERE guild_id = ? AND role_id = ?`, int64(guildID), int64(roleID))
	return err
}

func (r *ExclusionRepository) RolesByGuild(ctx context.Context, guildID snowflake.ID) ([]dg.ExcludedRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_id, staff_member_id, reason FROM excluded_roles WHERE guild_id = ?`, int64(guildID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dg.ExcludedRole
	for rows.Next() {
		var roleID, staffID int64
		role := dg.ExcludedRole{GuildID: guildID}
		if err := rows.Scan(&roleID, &staffID, &role.Reason); err != nil {
			return nil, err
		}
		role.RoleID = snowflake.ID(roleID)
		role.StaffMemberID = snowflake.ID(staffID)
		out = append(out, role)
	}
	return out, rows.Err()
}
