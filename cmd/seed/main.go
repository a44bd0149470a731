// Package main seeds the database with the base currency, a default company,
// its VAT registration and demo customers.
//
//	seed                 # reference data
//	seed token -admin    # print an access token for local testing
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"workshop/internal/app"
	"workshop/internal/config"
	appctx "workshop/internal/core/context"
	"workshop/internal/core/apperror"
	"workshop/internal/core/security"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/pkg/logger"
)

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			log.Fatalw("failed to issue token", "error", err)
		}
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database.Pool())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	services, err := app.New(app.Deps{TxManager: txManager})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	ctx = logger.WithLogger(postgres.WithTxManager(ctx, txManager), log)
	if err := seed(ctx, services, log); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, s *app.Services, log *logger.Logger) error {
	omr, err := s.Currencies.FindByISOCode(ctx, currency.CodeOMR)
	if apperror.IsNotFound(err) {
		omr = currency.NewOMR()
		if err = s.Currencies.Create(ctx, omr); err == nil {
			log.Infow("currency created", "iso", omr.ISOCode)
		}
	}
	if err != nil {
		return fmt.Errorf("currency: %w", err)
	}

	comp, err := s.Companies.GetByCode(ctx, "WS-001")
	if apperror.IsNotFound(err) {
		comp = company.NewCompany("WS-001", "Al Noor Auto Workshop LLC", omr.ID)
		comp.NameAr = "ورشة النور للسيارات ش.م.م"
		comp.VATNumber = strPtr("OM1100012345")
		comp.CRNumber = strPtr("1234567")
		comp.Address = strPtr("Way 3017, Ghala Industrial Area, Muscat")
		comp.IsDefault = true
		if err = s.Companies.Create(ctx, comp); err == nil {
			log.Infow("company created", "code", comp.Code)
		}
	}
	if err != nil {
		return fmt.Errorf("company: %w", err)
	}

	today := time.Now()
	if _, err := s.VAT.ActiveFor(ctx, comp.ID, today); apperror.HasCode(err, apperror.CodeVATNotConfigured) {
		from := time.Date(2021, time.April, 16, 0, 0, 0, 0, time.UTC)
		cfg := vat.NewConfiguration(comp.ID, "OM1100012345", comp.Name, from)
		cfg.RegistrationNameAr = comp.NameAr
		if err := s.VAT.Create(ctx, cfg); err != nil {
			return fmt.Errorf("vat configuration: %w", err)
		}
		log.Infow("vat configuration created", "vat_number", cfg.VATNumber, "rate", cfg.Rate.String())
	} else if err != nil {
		return fmt.Errorf("vat configuration: %w", err)
	}

	type customerSeed struct {
		code, name, nameAr string
		vatNumber          string
		creditDays         int
	}
	customers := []customerSeed{
		{"CUST-0001", "Walk-in Customer", "عميل نقدي", "", 0},
		{"CUST-0002", "Oman Logistics SAOC", "عمان للخدمات اللوجستية", "OM1100098765", 30},
		{"CUST-0003", "Sohar Fleet Services LLC", "صحار لخدمات الأساطيل", "OM1100054321", 45},
	}
	for _, cs := range customers {
		_, err := s.Customers.GetByCode(ctx, cs.code)
		if err == nil {
			continue
		}
		if !apperror.IsNotFound(err) {
			return fmt.Errorf("customer %s: %w", cs.code, err)
		}

		c := customer.NewCustomer(cs.code, cs.name)
		c.NameAr = cs.nameAr
		c.CreditDays = cs.creditDays
		if cs.vatNumber != "" {
			c.Type = customer.TypeCompany
			c.VATNumber = strPtr(cs.vatNumber)
		}
		if err := s.Customers.Create(ctx, c); err != nil {
			log.Warnw("failed to seed customer", "code", cs.code, "error", err)
			continue
		}
		log.Infow("customer created", "code", cs.code)
	}
	return nil
}

// issueToken signs a token with the configured secret. There is no user
// store: the claims come from the flags.
func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.String("user", "dev", "user id")
	email := fs.String("email", "dev@workshop.local", "email")
	admin := fs.Bool("admin", false, "grant every permission")
	perms := fs.String("perms", "", "comma separated permissions")
	companies := fs.String("companies", "", "comma separated company ids")
	ttl := fs.Duration("ttl", cfg.JWT.TTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	jwtCfg := security.DefaultJWTConfig(cfg.JWT.Secret)
	jwtCfg.Issuer = cfg.JWT.Issuer
	jwtCfg.AccessTokenTTL = *ttl

	token, expiresAt, err := security.NewJWTService(jwtCfg).GenerateAccessToken(appctx.UserContext{
		UserID:      *userID,
		Email:       *email,
		Permissions: splitList(*perms),
		CompanyIDs:  splitList(*companies),
		IsAdmin:     *admin,
	})
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }
