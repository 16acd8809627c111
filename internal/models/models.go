package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

type Author struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null"                 json:"name"`
	Bio  string `json:"bio"`
}

type Publisher struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null"                 json:"name"`
	City string `json:"city"`
}

type Book struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string  `gorm:"not null"                 json:"title"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	AuthorID    uint    `gorm:"index;not null"           json:"author_id"`
	PublisherID uint    `gorm:"index;not null"           json:"publisher_id"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Body      string    `gorm:"not null"       json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated caller as seen by the service layer.
// Handlers build it from the JWT claims the auth middleware stored in
// the request context; services never reach into ambient state.
type Principal struct {
	ID   uint
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanMutate is the ownership guard: an order may be touched only by
// its owner or an administrator.
func (p Principal) CanMutate(o *Order) bool {
	return p.ID == o.UserID || p.IsAdmin()
}
