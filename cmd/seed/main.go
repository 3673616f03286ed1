package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fixhub/internal/database"
	"fixhub/internal/domain"
	"fixhub/internal/repository"
)

func main() {
	db, err := database.Connect("fixhub.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM conversations")
	db.Exec("DELETE FROM settlements")
	db.Exec("DELETE FROM email_verification_codes")
	db.Exec("DELETE FROM service_requests")
	db.Exec("DELETE FROM repairer_profiles")
	db.Exec("DELETE FROM users")

	ctx := context.Background()
	verifiedAt := time.Now()
	users := repository.NewUserRepository(db)
	profiles := repository.NewRepairerProfileRepository(db)
	requests := repository.NewRequestRepository(db)

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:           "admin@fixhub.in",
		PasswordHash:    string(adminHash),
		Role:            domain.RoleAdmin,
		Name:            "FixHub Admin",
		EmailVerifiedAt: &verifiedAt,
	}
	if err := users.Create(ctx, &admin); err != nil {
		log.Fatal("admin create failed:", err)
	}
	log.Println("Admin created: admin@fixhub.in / admin123")

	customers := []domain.User{}
	customerNames := []string{"Priya Sharma", "Rahul Verma", "Anita Desai"}
	for i, name := range customerNames {
		hash, _ := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
		c := domain.User{
			Email:           fmt.Sprintf("customer%d@example.com", i+1),
			PasswordHash:    string(hash),
			Role:            domain.RoleCustomer,
			Name:            name,
			Phone:           fmt.Sprintf("+91 98450 123%02d", i+10),
			EmailVerifiedAt: &verifiedAt,
		}
		if err := users.Create(ctx, &c); err != nil {
			log.Fatal("customer create failed:", err)
		}
		customers = append(customers, c)
	}
	log.Printf("%d customers created (password: customer123)", len(customers))

	type repairerSeed struct {
		name     string
		services []string
		pincode  string
	}
	repairerSeeds := []repairerSeed{
		{"Suresh Kumar", []string{"plumbing", "appliance_repair"}, "560034"},
		{"Mohammed Irfan", []string{"electrical", "ac_repair"}, "560001"},
		{"Vikram Singh", []string{"carpentry", "painting"}, "110001"},
	}
	repairers := []domain.User{}
	for i, rs := range repairerSeeds {
		hash, _ := bcrypt.GenerateFromPassword([]byte("repairer123"), bcrypt.DefaultCost)
		u := domain.User{
			Email:           fmt.Sprintf("repairer%d@example.com", i+1),
			PasswordHash:    string(hash),
			Role:            domain.RoleRepairer,
			Name:            rs.name,
			Phone:           fmt.Sprintf("+91 99000 456%02d", i+10),
			EmailVerifiedAt: &verifiedAt,
		}
		if err := users.Create(ctx, &u); err != nil {
			log.Fatal("repairer create failed:", err)
		}
		if err := profiles.Upsert(ctx, &domain.RepairerProfile{
			UserID:   u.ID,
			Services: rs.services,
			Pincode:  rs.pincode,
			Bio:      fmt.Sprintf("%s, available for %v jobs", rs.name, rs.services),
			Verified: true,
		}); err != nil {
			log.Fatal("profile create failed:", err)
		}
		repairers = append(repairers, u)
	}
	log.Printf("%d repairers created (password: repairer123)", len(repairers))

	// ================== SERVICE REQUESTS ==================
	log.Println("Creating service requests...")

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	open := []domain.ServiceRequest{
		{
			CustomerID:  customers[0].ID,
			Title:       "Kitchen sink leaking",
			ServiceType: "plumbing",
			Description: "Water pooling under the sink, joint seems loose.",
			Urgency:     domain.UrgencyHigh,
			Location: domain.Location{
				FullAddress:   "42 Koramangala 4th Block, Bengaluru",
				Pincode:       "560034",
				CaptureMethod: "manual",
			},
			PreferredTimeSlot: domain.TimeSlot{Date: tomorrow, Time: "10:00"},
			Budget:            800,
			ContactInfo:       customers[0].Phone,
			Status:            domain.RequestRequested,
		},
		{
			CustomerID:  customers[1].ID,
			Title:       "Ceiling fan not working",
			ServiceType: "electrical",
			Description: "Fan stopped spinning, switch board sparks occasionally.",
			Urgency:     domain.UrgencyMedium,
			Location: domain.Location{
				FullAddress:   "7 MG Road, Bengaluru",
				Pincode:       "560001",
				CaptureMethod: "manual",
			},
			PreferredTimeSlot: domain.TimeSlot{Date: tomorrow, Time: "14:00"},
			Budget:            500,
			ContactInfo:       customers[1].Phone,
			Status:            domain.RequestRequested,
		},
		{
			CustomerID:  customers[2].ID,
			Title:       "Wardrobe door hinge broken",
			ServiceType: "carpentry",
			Description: "Left door hangs loose, hinge screws stripped.",
			Urgency:     domain.UrgencyLow,
			Location: domain.Location{
				FullAddress:   "15 Connaught Place, New Delhi",
				Pincode:       "110001",
				CaptureMethod: "manual",
			},
			PreferredTimeSlot: domain.TimeSlot{Date: tomorrow, Time: "11:30"},
			Budget:            1200,
			ContactInfo:       customers[2].Phone,
			Status:            domain.RequestRequested,
		},
	}
	for i := range open {
		if err := requests.Create(ctx, &open[i]); err != nil {
			log.Fatal("request create failed:", err)
		}
	}

	// One request already in progress so the demo has a live assignment.
	ok, err := requests.Assign(ctx, open[0].ID, repairers[0].ID, time.Now())
	if err != nil || !ok {
		log.Fatal("seed assignment failed:", err)
	}

	log.Printf("%d service requests created (1 assigned to %s)", len(open), repairers[0].Name)
	log.Println("Seed complete.")
}
