package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-taskflow/pkg/jwt"
)

func main() {
	log.Println("🚀 Seeding demo team...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := repository.Open(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Storage.Driver, err)
	}
	defer store.Close()

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Define demo members; the invited one is left out of the roster
	members := []entities.TeamMember{
		{UserID: "demo-alice", Email: "alice.nguyen@test.local", DisplayName: "Alice Nguyen", Role: entities.MemberRoleAdmin, Status: entities.MemberStatusActive},
		{UserID: "demo-bob", Email: "bob.smith@test.local", DisplayName: "Bob Smith", Role: entities.MemberRoleMember, Status: entities.MemberStatusActive},
		{UserID: "demo-sarah", Email: "sarah.chen@test.local", DisplayName: "Sarah Chen", Role: entities.MemberRoleMember, Status: entities.MemberStatusActive},
		{UserID: "demo-diana", Email: "diana@test.local", DisplayName: "Diana Prince", Role: entities.MemberRoleMember, Status: entities.MemberStatusInvited},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	teamID, err := store.SaveTeam(ctx, &entities.Team{
		Name:    "Demo Team",
		OwnerID: members[0].UserID,
		Members: members,
	})
	if err != nil {
		log.Fatalf("Failed to save team: %v", err)
	}
	log.Printf("✅ Team created: %s\n", teamID)

	fmt.Println("\n========================================")
	fmt.Println("📋 DEMO MEMBERS")
	fmt.Println("========================================")
	for _, m := range members {
		token, err := jwtManager.GenerateAccessToken(m.UserID, m.Email)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", m.UserID, err)
		}
		fmt.Printf("\n%s <%s> [%s]\n", m.DisplayName, m.Email, m.Status)
		fmt.Printf("User ID: %s\n", m.UserID)
		fmt.Printf("Token:   %s\n", token)
	}
	fmt.Println("\n========================================")
	fmt.Printf("Use team_id %s when processing transcripts.\n", teamID)
}
