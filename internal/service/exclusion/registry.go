package exclusion

import (
	"context"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// AuditLogger receives exclusion changes for the guild's log channel.
type AuditLogger interface {
	UserExcluded(ctx context.Context, u dg.ExcludedUser) error
	UserIncluded(ctx context.Context, u dg.ExcludedUser, staffMemberID snowflake.ID) error
	RoleExcluded(ctx context.Context, r dg.ExcludedRole) error
	RoleIncluded(ctx context.Context, r dg.ExcludedRole, staffMemberID snowflake.ID) error
}

// guildSet is a per-guild index of exclusion records keyed by target id.
type guildSet[T any] map[snowflake.ID]map[snowflake.ID]T

func (s guildSet[T]) get(guildID, targetID snowflake.ID) (T, bool) {
	v, ok := s[guildID][targetID]
	return v, ok
}

func (s guildSet[T]) put(guildID, targetID snowflake.ID, v T) {
	m, ok := s[guildID]
	if !ok {
		m = make(map[snowflake.ID]T)
		s[guildID] = m
	}
	m[targetID] = v
}

func (s guildSet[T]) delete(guildID, targetID snowflake.ID) {
	delete(s[guildID], targetID)
}

func (s guildSet[T]) list(guildID snowflake.ID) []T {
	out := make([]T, 0, len(s[guildID]))
	for _, v := range s[guildID] {
		out = append(out, v)
	}
	return out
}

// Registry mirrors persisted exclusions in memory, per guild.
//
// Mutations hold writeMu across the database write and the mirror update, so
// the mirror always reflects the last committed state. Readers only take mu.
type Registry struct {
	repo  dg.ExclusionRepository
	audit AuditLogger
	log   zerolog.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	users   guildSet[dg.ExcludedUser]
	roles   guildSet[dg.ExcludedRole]
}

func NewRegistry(repo dg.ExclusionRepository, audit AuditLogger, log zerolog.Logger) *Registry {
	return &Registry{
		repo:  repo,
		audit: audit,
		log:   log,
		users: make(guildSet[dg.ExcludedUser]),
		roles: make(guildSet[dg.ExcludedRole]),
	}
}

// Reload replaces the guild's mirror with the persisted records.
func (r *Registry) Reload(ctx context.Context, guildID snowflake.ID) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	users, err := r.repo.UsersByGuild(ctx, guildID)
	if err != nil {
		return apperrors.NewDatabaseError("load excluded users", err)
	}
	roles, err := r.repo.RolesByGuild(ctx, guildID)
	if err != nil {
		return apperrors.NewDatabaseError("load excluded roles", err)
	}

	r.mu.Lock()
	delete(r.users, guildID)
	delete(r.roles, guildID)
	for _, u := range users {
		r.users.put(guildID, u.UserID, u)
	}
	for _, role := range roles {
		r.roles.put(guildID, role.RoleID, role)
	}
	r.mu.Unlock()

	r.log.Debug().
		Str("guild_id", guildID.String()).
		Int("users", len(users)).
		Int("roles", len(roles)).
		Msg("Exclusions loaded")
	return nil
}

func (r *Registry) IsUserExcluded(guildID, userID snowflake.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users.get(guildID, userID)
	return ok
}

func (r *Registry) IsRoleExcluded(guildID, roleID snowflake.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roles.get(guildID, roleID)
	return ok
}

// AnyRoleExcluded reports whether any of the roles is excluded in the guild.
func (r *Registry) AnyRoleExcluded(guildID snowflake.ID, roleIDs []snowflake.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, roleID := range roleIDs {
		if _, ok := r.roles.get(guildID, roleID); ok {
			return true
		}
	}
	return false
}

// Users returns a snapshot of the guild's excluded users.
func (r *Registry) Users(guildID snowflake.ID) []dg.ExcludedUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users.list(guildID)
}

// Roles returns a snapshot of the guild's excluded roles.
func (r *Registry) Roles(guildID snowflake.ID) []dg.ExcludedRole {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles.list(guildID)
}

// ExcludeUser persists the exclusion, then mirrors it and emits an audit entry.
func (r *Registry) ExcludeUser(ctx context.Context, guildID, staffMemberID, userID snowflake.ID, reason string) (dg.ExcludedUser, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.IsUserExcluded(guildID, userID) {
		return dg.ExcludedUser{}, apperrors.New(apperrors.ErrCodeAlreadyExcluded, "User is already excluded").
			WithDetail("user_id", userID.String())
	}

	u := dg.ExcludedUser{
		GuildID:       guildID,
		UserID:        userID,
		StaffMemberID: staffMemberID,
		Reason:        strings.TrimSpace(reason),
	}
	if err := r.repo.AddUser(ctx, u); err != nil {
		return dg.ExcludedUser{}, apperrors.NewDatabaseError("add excluded user", err)
	}

	r.mu.Lock()
	r.users.put(guildID, userID, u)
	r.mu.Unlock()

	r.log.Info().
		Str("guild_id", guildID.String()).
		Str("user_id", userID.String()).
		Str("staff_member_id", staffMemberID.String()).
		Str("reason", u.Reason).
		Msg("User excluded")
	if err := r.audit.UserExcluded(ctx, u); err != nil {
		r.log.Warn().Err(err).Msg("Failed to log user exclusion")
	}
	return u, nil
}

// IncludeUser removes an exclusion. It returns false without side effects
// when the user was not excluded.
func (r *Registry) IncludeUser(ctx context.Context, guildID, staffMemberID, userID snowflake.ID) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	u, ok := r.users.get(guildID, userID)
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := r.repo.RemoveUser(ctx, guildID, userID); err != nil {
		return false, apperrors.NewDatabaseError("remove excluded user", err)
	}

	r.mu.Lock()
	r.users.delete(guildID, userID)
	r.mu.Unlock()

	r.log.Info().
		Str("guild_id", guildID.String()).
		Str("user_id", userID.String()).
		Str("staff_member_id", staffMemberID.String()).
		Msg("User exclusion removed")
	if err := r.audit.UserIncluded(ctx, u, staffMemberID); err != nil {
		r.log.Warn().Err(err).Msg("Failed to log user inclusion")
	}
	return true, nil
}

// ExcludeRole persists the exclusion, then mirrors it and emits an audit entry.
func (r *Registry) ExcludeRole(ctx context.Context, guildID, staffMemberID, roleID snowflake.ID, reason string) (dg.ExcludedRole, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.IsRoleExcluded(guildID, roleID) {
		return dg.ExcludedRole{}, apperrors.New(apperrors.ErrCodeAlreadyExcluded, "Role is already excluded").
			WithDetail("role_id", roleID.String())
	}

	role := dg.ExcludedRole{
		GuildID:       guildID,
		RoleID:        roleID,
		StaffMemberID: staffMemberID,
		Reason:        strings.TrimSpace(reason),
	}
	if err := r.repo.AddRole(ctx, role); err != nil {
		return dg.ExcludedRole{}, apperrors.NewDatabaseError("add excluded role", err)
	}

	r.mu.Lock()
	r.roles.put(guildID, roleID, role)
	r.mu.Unlock()

	r.log.Info().
		Str("guild_id", guildID.String()).
		Str("role_id", roleID.String()).
		Str("staff_member_id", staffMemberID.String()).
		Str("reason", role.Reason).
		Msg("Role excluded")
	if err := r.audit.RoleExcluded(ctx, role); err != nil {
		r.log.Warn().Err(err).Msg("Failed to log role exclusion")
	}
	return role, nil
}

// IncludeRole removes a role exclusion; no-op when the role was not excluded.
func (r *Registry) IncludeRole(ctx context.Context, guildID, staffMemberID, roleID snowflake.ID) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	role, ok := r.roles.get(guildID, roleID)
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := r.repo.RemoveRole(ctx, guildID, roleID); err != nil {
		return false, apperrors.NewDatabaseError("remove excluded role", err)
	}

	r.mu.Lock()
	r.roles.delete(guildID, roleID)
	r.mu.Unlock()

	r.log.Info().
		Str("guild_id", guildID.String()).
		Str("role_id", roleID.String()).
		Str("staff_member_id", staffMemberID.String()).
		Msg("Role exclusion removed")
	if err := r.audit.RoleIncluded(ctx, role, staffMemberID); err != nil {
		r.log.Warn().Err(err).Msg("Failed to log role inclusion")
	}
	return true, nil
}
