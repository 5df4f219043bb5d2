package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// SaveTeam stores the team document and indexes it for its owner and members
func (s *RedisStore) SaveTeam(ctx context.Context, team *entities.Team) (string, error) {
	now := s.now()
	if team.ID == "" {
		team.ID = uuid.NewString()
	}

	previous, err := getJSON[entities.Team](ctx, s.rdb, teamKey(team.ID))
	if err != nil {
		return "", fmt.Errorf("save team: %w", err)
	}
	if previous != nil && team.CreatedAt.IsZero() {
		team.CreatedAt = previous.CreatedAt
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = now
	}
	team.UpdatedAt = now
	for i := range team.Members {
		team.Members[i].TeamID = team.ID
		if team.Members[i].JoinedAt.IsZero() {
			team.Members[i].JoinedAt = now
		}
	}

	data, err := json.Marshal(team)
	if err != nil {
		return "", fmt.Errorf("encode team: %w", err)
	}

	current := teamUsers(team)
	removed := map[string]bool{}
	if previous != nil {
		for u := range teamUsers(previous) {
			if !current[u] {
				removed[u] = true
			}
		}
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, teamKey(team.ID), data, 0)
		for u := range current {
			p.ZAdd(ctx, userTeamsKey(u), redis.Z{Score: score(team.CreatedAt), Member: team.ID})
		}
		for u := range removed {
			p.ZRem(ctx, userTeamsKey(u), team.ID)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save team: %w", err)
	}

	keys := make([]entities.SubscriptionKey, 0, len(current)+len(removed))
	for _, set := range []map[string]bool{current, removed} {
		for u := range set {
			keys = append(keys, entities.SubscriptionKey{EntityType: entities.EntityUserTeams, EntityID: u})
		}
	}
	s.publish(ctx, keys...)
	return team.ID, nil
}

// GetTeam loads the team document
func (s *RedisStore) GetTeam(ctx context.Context, teamID string) (*entities.Team, error) {
	team, err := getJSON[entities.Team](ctx, s.rdb, teamKey(teamID))
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return team, nil
}

// GetTeamMembers returns every member of teamID
func (s *RedisStore) GetTeamMembers(ctx context.Context, teamID string) ([]entities.TeamMember, error) {
	team, err := getJSON[entities.Team](ctx, s.rdb, teamKey(teamID))
	if err != nil {
		return nil, fmt.Errorf("get team members: %w", err)
	}
	if team == nil || team.Members == nil {
		return []entities.TeamMember{}, nil
	}
	return team.Members, nil
}

// GetUserTeams returns teams the user owns or belongs to, newest first
func (s *RedisStore) GetUserTeams(ctx context.Context, userID string) ([]entities.Team, error) {
	ids, err := s.newestIDs(ctx, userTeamsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get user teams: %w", err)
	}
	teams, err := mgetJSON[entities.Team](ctx, s.rdb, keysFor(ids, teamKey))
	if err != nil {
		return nil, fmt.Errorf("get user teams: %w", err)
	}
	return teams, nil
}

// SubscribeToUserTeams follows the user's team index
func (s *RedisStore) SubscribeToUserTeams(ctx context.Context, userID string, onSnapshot func([]entities.Team)) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserTeams, EntityID: userID}
	return redisWatch(ctx, s, key, func(ctx context.Context) ([]entities.Team, error) {
		return s.GetUserTeams(ctx, userID)
	}, onSnapshot)
}

func teamUsers(t *entities.Team) map[string]bool {
	out := map[string]bool{}
	if t.OwnerID != "" {
		out[t.OwnerID] = true
	}
	for _, m := range t.Members {
		out[m.UserID] = true
	}
	return out
}
