package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cmsadmin/internal/config"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/service"
)

func main() {
	var (
		email  = flag.String("email", "", "email of the initial admin account (required)")
		name   = flag.String("name", "Administrator", "display name of the admin account")
		dbHost = flag.String("db-host", "", "database host (defaults to DATABASE_HOST)")
		dbPort = flag.Int("db-port", 0, "database port (defaults to DATABASE_PORT)")
		dbName = flag.String("db-name", "", "database name (defaults to POSTGRES_DB)")
		dbUser = flag.String("db-user", "", "database user (defaults to POSTGRES_USER)")
		dbPass = flag.String("db-password", "", "database password (defaults to POSTGRES_PASSWORD)")
		ssl    = flag.String("db-sslmode", "", "database sslmode (defaults to DATABASE_SSLMODE)")
	)
	flag.Parse()

	addr := strings.TrimSpace(*email)
	if addr == "" {
		log.Fatal("missing required flag: --email")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *ssl)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	users := service.NewUserService(db, nil, slog.Default())
	user, err := users.Create(context.Background(), service.NewUser{
		Name:               *name,
		Email:              addr,
		Password:           password,
		Role:               database.RoleAdmin,
		MustChangePassword: true,
	})
	if err != nil {
		if errcode.Is(err, errcode.KindConflict) {
			log.Fatalf("user %q already exists", addr)
		}
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("Created admin account (password change required on first login):\n")
	fmt.Printf("ID:       %d\n", user.ID)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Password: %s\n", password)
	fmt.Printf("This password is shown only once.\n")
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("DB_NAME")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("DB_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("DB_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		LogLevel: "warn",
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
