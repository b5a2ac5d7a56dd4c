package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email         string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password      string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role          string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status        string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	Phone         string         `gorm:"type:varchar(30);default:null" json:"phone" validate:"max=30"`
	WalletBalance float64        `gorm:"type:decimal(12,2);not null;default:0" json:"wallet_balance"`
	Points        int            `gorm:"not null;default:0" json:"points"`
	ReferralCode  string         `gorm:"type:varchar(20);uniqueIndex" json:"referral_code"`
	ReferredByID  *uint          `gorm:"index" json:"referred_by_id,omitempty"`
	APIKeyHash    string         `gorm:"type:varchar(64);index" json:"-"`
	LastLoginAt   *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	code, err := generateReferralCode()
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         username,
		Email:        email,
		Password:     pw,
		Role:         ROLE_USER,
		Status:       STATUS_ACTIVE,
		ReferralCode: code,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a new random API key, stores its hash on the user
// and returns the raw key. The raw key is only available at generation time.
func (u *User) GenerateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	rawKey := "gb_" + hex.EncodeToString(b)
	u.APIKeyHash = HashAPIKey(rawKey)
	return rawKey, nil
}

// WasReferred reports whether the user signed up through a referral.
func (u *User) WasReferred() bool {
	return u.ReferredByID != nil && *u.ReferredByID != 0
}

func generateReferralCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
