package discord

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/omit"
)

const commandName = "giveaway"

// Option names of the giveaway subcommands.
const (
	optChannel     = "channel"
	optWinners     = "winners"
	optTitle       = "title"
	optDescription = "description"
	optEnd         = "end"
	optImage       = "image"
	optID          = "id"
	optKeepIDs     = "keepids"
	optUser        = "user"
	optRole        = "role"
	optReason      = "reason"
)

func intPtr(v int) *int { return &v }

func idOption() discord.ApplicationCommandOption {
	return discord.ApplicationCommandOptionString{
		Name:        optID,
		Description: "The ID of the giveaway.",
		Required:    true,
	}
}

// Commands returns the /giveaway command tree.
func Commands() []discord.ApplicationCommandCreate {
	manageGuild := discord.PermissionManageGuild

	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:                     commandName,
			Description:              "Manages giveaways.",
			DefaultMemberPermissions: omit.New(&manageGuild),
			Contexts: []discord.InteractionContextType{
				discord.InteractionContextTypeGuild,
			},
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "create",
					Description: "Creates a new giveaway.",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionChannel{
							Name:        optChannel,
							Description: "The channel in which to post the giveaway.",
							Required:    true,
							ChannelTypes: []discord.ChannelType{
								discord.ChannelTypeGuildText,
								discord.ChannelTypeGuildNews,
							},
						},
						discord.ApplicationCommandOptionInt{
							Name:        optWinners,
							Description: "The number of winners.",
							Required:    true,
							MinValue:    intPtr(1),
						},
						discord.ApplicationCommandOptionString{
							Name:        optTitle,
							Description: "The title of the giveaway.",
							Required:    true,
							MaxLength:   intPtr(255),
						},
						discord.ApplicationCommandOptionString{
							Name:        optDescription,
							Description: "The description of the giveaway.",
							Required:    true,
							MaxLength:   intPtr(4000),
						},
						discord.ApplicationCommandOptionString{
							Name:        optEnd,
							Description: "When the giveaway ends: a unix timestamp, a duration like 1d12h, or e.g. \"next friday 18:00\".",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        optImage,
							Description: "An image URL to show in the giveaway.",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "end",
					Description: "Ends a giveaway early without drawing winners.",
					Options:     []discord.ApplicationCommandOption{idOption()},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "redraw",
					Description: "Draws new winners for an ended giveaway, optionally keeping selected existing winners.",
					Options: []discord.ApplicationCommandOption{
						idOption(),
						discord.ApplicationCommandOptionString{
							Name:        optKeepIDs,
							Description: "Space-separated IDs of users to ensure as winners of the giveaway.",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "setwinners",
					Description: "Changes the number of winners of an active giveaway.",
					Options: []discord.ApplicationCommandOption{
						idOption(),
						discord.ApplicationCommandOptionInt{
							Name:        optWinners,
							Description: "The new number of winners.",
							Required:    true,
							MinValue:    intPtr(1),
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "view",
					Description: "Shows information about a giveaway.",
					Options:     []discord.ApplicationCommandOption{idOption()},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "viewentrants",
					Description: "Lists the entrants of a giveaway.",
					Options:     []discord.ApplicationCommandOption{idOption()},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "blockuser",
					Description: "Prevents a user from winning giveaways.",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionUser{
							Name:        optUser,
							Description: "The user to block.",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        optReason,
							Description: "Why the user is blocked.",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "blockrole",
					Description: "Prevents members with a role from winning giveaways.",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionRole{
							Name:        optRole,
							Description: "The role to block.",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        optReason,
							Description: "Why the role is blocked.",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "unblockuser",
					Description: "Allows a blocked user to win giveaways again.",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionUser{
							Name:        optUser,
							Description: "The user to unblock.",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "unblockrole",
					Description: "Allows members with a blocked role to win giveaways again.",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionRole{
							Name:        optRole,
							Description: "The role to unblock.",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "info",
					Description: "Shows bot uptime and active giveaways.",
				},
			},
		},
	}
}
