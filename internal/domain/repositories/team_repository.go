package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// SaveTeam creates or replaces a team with its members and returns its ID
	SaveTeam(ctx context.Context, team *entities.Team) (string, error)

	// GetTeam retrieves a team with its members; nil when it does not exist
	GetTeam(ctx context.Context, teamID string) (*entities.Team, error)

	// GetTeamMembers retrieves every member of a team regardless of status
	GetTeamMembers(ctx context.Context, teamID string) ([]entities.TeamMember, error)

	// GetUserTeams retrieves the teams a user belongs to
	GetUserTeams(ctx context.Context, userID string) ([]entities.Team, error)

	// SubscribeToUserTeams delivers a full snapshot of the user's teams on every change
	SubscribeToUserTeams(ctx context.Context, userID string, onSnapshot func([]entities.Team)) (Unsubscribe, error)
}
