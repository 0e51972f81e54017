package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"clinic_flow_app_go/config"
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/logger"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"golang.org/x/term"
	"gorm.io/gorm"
)

var staffRoles = []string{
	models.StaffRoleAdmin,
	models.StaffRoleDoctor,
	models.StaffRoleNurse,
	models.StaffRoleReceptionist,
}

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New("warn", "console", "create-user")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
		Quiet:       true,
	}, appLogger); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.MigrationModels()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	// Get user details
	fmt.Println("=== Create New User ===")
	fmt.Println()

	name := prompt("Name: ")
	email := strings.ToLower(prompt("Email: "))

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	// Validate inputs
	if name == "" || email == "" || password == "" {
		log.Fatal("Name, email, and password are required")
	}

	if err := services.ValidatePassword(password); err != nil {
		log.Fatalf("Password is too weak:\n%v", err)
	}

	// Check if user already exists
	var existingUser models.User
	if err := db.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Fatalf("User with email %s already exists", email)
	}

	clinicName := prompt("New clinic name (leave blank to join an existing clinic): ")
	var clinicSlug, role string
	if clinicName == "" {
		clinicSlug = prompt("Clinic slug: ")
		role = prompt(fmt.Sprintf("Role [%s]: ", strings.Join(staffRoles, "/")))
		if !validRole(role) {
			log.Fatalf("Unknown role %q", role)
		}
	}

	// Hash password
	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		IsActive: true,
	}

	var clinic models.Clinic
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		if clinicName != "" {
			clinic = models.Clinic{OwnerID: user.ID, Name: clinicName, Email: email}
			if err := tx.Create(&clinic).Error; err != nil {
				return fmt.Errorf("create clinic: %w", err)
			}
			role = models.RoleOwner
			return nil
		}

		if err := tx.Where("slug = ?", clinicSlug).First(&clinic).Error; err != nil {
			return fmt.Errorf("clinic %q not found: %w", clinicSlug, err)
		}
		staff := &models.ClinicStaff{ClinicID: clinic.ID, UserID: user.ID, Role: role}
		if err := tx.Create(staff).Error; err != nil {
			return fmt.Errorf("add staff: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ User created successfully!")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Clinic: %s (%s)\n", clinic.Name, clinic.Slug)
	fmt.Printf("  Role: %s\n", role)
	fmt.Println()
	fmt.Printf("The user can now log in at %s/login or run the palette.\n", cfg.AppURL)
}

func validRole(role string) bool {
	for _, r := range staffRoles {
		if r == role {
			return true
		}
	}
	return false
}
