package participant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vendor-chat/internal/errs"
)

type Service struct {
	repo      *Repository
	jwtSecret string
	validate  *validator.Validate
}

type Claims struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Party string `json:"party"`
	jwt.RegisteredClaims
}

func NewService(repo *Repository, secret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: secret,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) RegisterVendor(ctx context.Context, req *RegisterVendorRequest) (*Vendor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("registration", err.Error())
	}

	if _, err := s.repo.GetVendorByEmail(ctx, req.Email); err == nil {
		return nil, errs.Validation("email", "already registered")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	v := &Vendor{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		Password:          string(hashed),
		ShopName:          req.ShopName,
		ShopCategory:      req.ShopCategory,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		Country:           req.Country,
		BusinessLicenseNo: req.BusinessLicenseNo,
		GSTNumber:         req.GSTNumber,
	}
	return s.repo.CreateVendor(ctx, v)
}

func (s *Service) LoginVendor(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("login", err.Error())
	}

	v, err := s.repo.GetVendorByEmail(ctx, req.Email)
	if err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.Password), []byte(req.Password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	return s.issueToken(v.ID.String(), v.Name, "Vendor")
}

func (s *Service) LoginAgent(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("login", err.Error())
	}

	a, err := s.repo.GetAgentByEmail(ctx, req.Email)
	if err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(req.Password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	return s.issueToken(a.ID.String(), a.Name, "Agent")
}

func (s *Service) issueToken(id, name, party string) (*LoginResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:    id,
		Name:  name,
		Party: party,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vendor-chat",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{AccessToken: ss, ID: id, Name: name, Party: party}, nil
}

// ValidateToken satisfies middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (string, string, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", "", "", err
	}
	if !token.Valid {
		return "", "", "", errors.New("invalid token")
	}
	return claims.ID, claims.Name, claims.Party, nil
}

// DefaultAgent resolves the single support agent every vendor chats with.
func (s *Service) DefaultAgent(ctx context.Context) (*Agent, error) {
	return s.repo.DefaultAgent(ctx)
}

func (s *Service) ListVendors(ctx context.Context) ([]Vendor, error) {
	return s.repo.ListVendors(ctx)
}

func (s *Service) VendorInfo(ctx context.Context, id string) (*Info, error) {
	v, err := s.repo.GetVendorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Info{Name: v.Name, Email: v.Email}, nil
}

// SeedAgent creates the support agent on first boot. No-op when an agent
// already exists or no credentials are configured.
func (s *Service) SeedAgent(ctx context.Context, name, email, password string) error {
	n, err := s.repo.CountAgents(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if email == "" || password == "" {
		return fmt.Errorf("no agent exists and AGENT_EMAIL/AGENT_PASSWORD are not set")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.CreateAgent(ctx, &Agent{Name: name, Email: email, Password: string(hashed)})
	return err
}
