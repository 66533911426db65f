package utils

import (
	"rustbot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.CommandsConfig
}

// NewAuth creates a new Auth instance with the loaded configuration.
func NewAuth() (*Auth, error) {
	var commandsConfig models.CommandsConfig
	if err := viper.UnmarshalKey("commands", &commandsConfig); err != nil {
		return nil, err
	}
	return &Auth{config: commandsConfig}, nil
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	for _, devID := range a.config.Auth.Developers {
		if userID == devID {
			return true
		}
	}
	return false
}

// IsAdmin checks if a user has an admin role.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	for _, adminRoleID := range a.config.Auth.AdminsRoles {
		for _, userRoleID := range member.Roles {
			if userRoleID == adminRoleID {
				return true
			}
		}
	}
	return false
}

// CanManageMessages checks the invoker's channel-level permissions for the
// Manage Messages bit, which gates the move command.
func CanManageMessages(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionManageMessages != 0
}

// CheckPermission checks if a user has the required permission level.
func (a *Auth) CheckPermission(s *discordgo.Session, i *discordgo.InteractionCreate, requiredLevel string) bool {
	switch requiredLevel {
	case "developer":
		return i.Member != nil && a.IsDeveloper(i.Member.User.ID)
	case "admin":
		return i.Member != nil && (a.IsDeveloper(i.Member.User.ID) || a.IsAdmin(i.Member))
	case "manage_messages":
		return CanManageMessages(i)
	case "guest":
		return true
	default:
		return false
	}
}
