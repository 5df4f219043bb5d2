package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// SaveTeam upserts a team and replaces its member list
func (s *PostgresStore) SaveTeam(ctx context.Context, team *entities.Team) (string, error) {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	members := team.Members
	for i := range members {
		members[i].TeamID = team.ID
		if members[i].JoinedAt.IsZero() {
			members[i].JoinedAt = time.Now().UTC()
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if team.CreatedAt.IsZero() {
			var existing entities.Team
			err := tx.Select("created_at").Where("id = ?", team.ID).Take(&existing).Error
			switch {
			case err == nil:
				team.CreatedAt = existing.CreatedAt
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if err := tx.Omit("Members").Save(team).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&entities.TeamMember{}).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return "", apperrors.ErrDBQueryFailed("save team", err)
	}
	return team.ID, nil
}

// GetTeam returns the team with its members in join order
func (s *PostgresStore) GetTeam(ctx context.Context, teamID string) (*entities.Team, error) {
	if !isUUID(teamID) {
		return nil, nil
	}
	var team entities.Team
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Where("id = ?", teamID).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get team", err)
	}
	return &team, nil
}

// GetTeamMembers returns every member of teamID in join order
func (s *PostgresStore) GetTeamMembers(ctx context.Context, teamID string) ([]entities.TeamMember, error) {
	if !isUUID(teamID) {
		return []entities.TeamMember{}, nil
	}
	var members []entities.TeamMember
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get team members", err)
	}
	return members, nil
}

// GetUserTeams returns teams the user owns or is a member of
func (s *PostgresStore) GetUserTeams(ctx context.Context, userID string) ([]entities.Team, error) {
	var teams []entities.Team
	memberOf := s.db.Model(&entities.TeamMember{}).Select("team_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Where("owner_id = ? OR id IN (?)", userID, memberOf).
		Order("created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get user teams", err)
	}
	return teams, nil
}

// SubscribeToUserTeams polls the user's teams
func (s *PostgresStore) SubscribeToUserTeams(ctx context.Context, userID string, onSnapshot func([]entities.Team)) (repositories.Unsubscribe, error) {
	return pollWatch(ctx, s, "teams:"+userID, func(ctx context.Context) ([]entities.Team, error) {
		return s.GetUserTeams(ctx, userID)
	}, onSnapshot)
}
