package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"visitor-backend/models"
	"visitor-backend/utils"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "visitor_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// Migrate runs AutoMigrate in parent -> child order. Exported so tests can
// reuse the same schema against their own DB.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Site{},
		&models.User{},
		&models.Visitor{},
		&models.Visit{},
		&models.VisitHostContact{},
		&models.VisitDocument{},
		&models.InductionRecord{},
		&models.PreApproval{},
		&models.DenyListEntry{},
		&models.Notification{},
		&models.EvacuationEvent{},
		&models.AuditLogEntry{},
	)
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	if err := Migrate(DB); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase ensures one site and its first site admin exist so a fresh
// install is usable. Idempotent: existing rows are left alone.
func SeedDatabase() {
	var siteCount int64
	DB.Model(&models.Site{}).Count(&siteCount)

	var site models.Site
	if siteCount == 0 {
		site = models.Site{
			Name:                          "Head Office",
			SiteCode:                      "HQ1",
			HSContentVersion:              1,
			NotificationEscalationMinutes: 15,
			PreApprovalDefaultDays:        30,
			IsActive:                      true,
		}
		if err := DB.Create(&site).Error; err != nil {
			log.Printf("warning: failed to seed default site: %v", err)
			return
		}
		log.Println("Default site seeded")
	} else {
		if err := DB.Order("id").First(&site).Error; err != nil {
			log.Printf("warning: failed to load seed site: %v", err)
			return
		}
	}

	var userCount int64
	DB.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		return
	}

	pin := utils.EnvOrDefault("SEED_ADMIN_PIN", "123456")
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("warning: failed to hash seed admin PIN: %v", err)
		return
	}

	admin := models.User{
		Name:     "Site Admin",
		Username: "admin",
		PinHash:  string(hash),
		SiteID:   site.ID,
		Role:     models.RoleSiteAdmin,
		IsActive: true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("warning: failed to seed site admin: %v", err)
		return
	}
	log.Println("Default site admin seeded")
}
