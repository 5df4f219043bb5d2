package entities

import "time"

// MemberRole defines a member's role inside a team
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// IsValid checks if the member role is valid
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleAdmin, MemberRoleMember:
		return true
	}
	return false
}

// MemberStatus represents the lifecycle state of a team membership
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInvited  MemberStatus = "invited"
	MemberStatusInactive MemberStatus = "inactive"
)

// TeamMember represents a user's membership in a team
type TeamMember struct {
	TeamID      string       `json:"team_id,omitempty" gorm:"type:uuid;primaryKey"`
	UserID      string       `json:"user_id" gorm:"type:varchar(128);primaryKey;index:idx_team_members_user"`
	Email       string       `json:"email" gorm:"type:varchar(255);not null"`
	DisplayName string       `json:"display_name" gorm:"type:varchar(255);not null"`
	Role        MemberRole   `json:"role" gorm:"type:varchar(20);default:'member';not null"`
	Status      MemberStatus `json:"status" gorm:"type:varchar(20);default:'invited';not null;index"`
	JoinedAt    time.Time    `json:"joined_at"`
}

// TableName specifies the table name for TeamMember
func (TeamMember) TableName() string {
	return "team_members"
}

// IsActive checks if the member participates in matching and assignment
func (m *TeamMember) IsActive() bool {
	return m.Status == MemberStatusActive
}

// Team is the aggregate owning a roster of members
type Team struct {
	ID        string       `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	OwnerID   string       `json:"owner_id" gorm:"type:varchar(128);not null;index"`
	Members   []TeamMember `json:"members" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Team
func (Team) TableName() string {
	return "teams"
}

// ActiveMembers returns the roster: the active subset of members, in their original order
func ActiveMembers(members []TeamMember) []TeamMember {
	roster := make([]TeamMember, 0, len(members))
	for _, m := range members {
		if m.IsActive() {
			roster = append(roster, m)
		}
	}
	return roster
}

// FindMember looks a member up by user ID
func FindMember(members []TeamMember, userID string) (*TeamMember, bool) {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i], true
		}
	}
	return nil, false
}
