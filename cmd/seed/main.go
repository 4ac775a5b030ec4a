// seed inserts a default admin and development sample data for local testing.
// Idempotent: skips all inserts when the admin account already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Dak6000/ETax-Togo/internal/config"
	"github.com/Dak6000/ETax-Togo/internal/db"
	"github.com/Dak6000/ETax-Togo/internal/security"
	taxdomain "github.com/Dak6000/ETax-Togo/internal/tax/domain"
	taxrepo "github.com/Dak6000/ETax-Togo/internal/tax/repository"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
	userrepo "github.com/Dak6000/ETax-Togo/internal/user/repository"
)

const (
	adminEmail    = "admin@etaxe.tg"
	adminPassword = "admin123"
)

type seedMerchant struct {
	firstName    string
	lastName     string
	email        string
	phone        string
	fiscalNumber string
	sector       string
	taxes        []seedTax
}

type seedTax struct {
	amount  float64
	taxType string
	dueIn   time.Duration // negative for overdue
	paid    bool
}

var merchants = []seedMerchant{
	{
		firstName: "Kossi", lastName: "Mensah", email: "kossi.mensah@example.tg",
		phone: "90123456", fiscalNumber: "TG10001", sector: "Commerce",
		taxes: []seedTax{
			{amount: 25000, taxType: "TVA", dueIn: -10 * 24 * time.Hour},
			{amount: 15000, taxType: "Patente", dueIn: 20 * 24 * time.Hour, paid: true},
		},
	},
	{
		firstName: "Afi", lastName: "Lawson", email: "afi.lawson@example.tg",
		phone: "91234567", fiscalNumber: "TG10002", sector: "Services",
		taxes: []seedTax{
			{amount: 40000, taxType: "TVA", dueIn: -45 * 24 * time.Hour},
			{amount: 12000, taxType: "TVA", dueIn: -3 * 24 * time.Hour},
			{amount: 30000, taxType: "Patente", dueIn: 15 * 24 * time.Hour, paid: true},
		},
	},
	{
		firstName: "Yao", lastName: "Agbeko", email: "yao.agbeko@example.tg",
		phone: "92345678", fiscalNumber: "TG10003", sector: "Artisanat",
		taxes: []seedTax{
			{amount: 8000, taxType: "Taxe professionnelle", dueIn: 30 * 24 * time.Hour, paid: true},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)
	taxes := taxrepo.NewPostgresRepository(database)
	hasher := security.NewHasher(cfg.BcryptCost)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("check admin: %v", err)
	}
	if existing != nil {
		log.Println("seed data already present; nothing to do")
		return
	}

	now := time.Now().UTC()

	adminHash, err := hasher.Hash([]byte(adminPassword))
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		FirstName:    "Admin",
		LastName:     "ETax",
		Email:        adminEmail,
		Phone:        "90000000",
		PasswordHash: adminHash,
		FiscalNumber: "TG00001",
		Sector:       "Administration",
		Role:         userdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin %s", adminEmail)

	merchantHash, err := hasher.Hash([]byte("password123"))
	if err != nil {
		log.Fatalf("hash merchant password: %v", err)
	}
	for _, m := range merchants {
		user := &userdomain.User{
			ID:           uuid.New().String(),
			FirstName:    m.firstName,
			LastName:     m.lastName,
			Email:        m.email,
			Phone:        m.phone,
			PasswordHash: merchantHash,
			FiscalNumber: m.fiscalNumber,
			Sector:       m.sector,
			Role:         userdomain.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("create merchant %s: %v", m.email, err)
		}
		for _, st := range m.taxes {
			tax := &taxdomain.Tax{
				ID:        uuid.New().String(),
				UserID:    user.ID,
				Amount:    st.amount,
				Type:      st.taxType,
				Status:    taxdomain.StatusPending,
				DueAt:     now.Add(st.dueIn),
				CreatedAt: now,
			}
			if st.paid {
				tax.Status = taxdomain.StatusPaid
				paidAt := now.Add(-24 * time.Hour)
				tax.PaidAt = &paidAt
			}
			if err := taxes.Create(ctx, tax); err != nil {
				log.Fatalf("create tax for %s: %v", m.email, err)
			}
		}
		log.Printf("created merchant %s with %d tax records", m.email, len(m.taxes))
	}
}
