package participant

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a marketplace seller. Identity is immutable once registered.
type Vendor struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Password          string    `json:"-"`
	ShopName          string    `json:"shopName"`
	ShopCategory      string    `json:"shopCategory"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	Country           string    `json:"country"`
	BusinessLicenseNo string    `json:"businessLicenseNo,omitempty"`
	GSTNumber         string    `json:"gstNumber"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Agent is the support side of every conversation. The system runs with
// exactly one agent.
type Agent struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterVendorRequest struct {
	Name              string `json:"name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required"`
	Password          string `json:"password" validate:"required,min=6"`
	ConfirmPassword   string `json:"confirmPassword" validate:"required,eqfield=Password"`
	ShopName          string `json:"shopName" validate:"required"`
	ShopCategory      string `json:"shopCategory" validate:"required"`
	Address           string `json:"address" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state" validate:"required"`
	Country           string `json:"country" validate:"required"`
	BusinessLicenseNo string `json:"businessLicenseNo"`
	GSTNumber         string `json:"gstNumber" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
}

// Info is the public slice of a participant profile.
type Info struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
