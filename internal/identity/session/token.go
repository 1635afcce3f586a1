// Package session issues and validates the signed cookies that carry a
// signed-in user's session and the short-lived login state.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"onboarding/internal/onboarding/models"
	authmw "onboarding/pkg/platform/middleware/auth"
	dErrors "onboarding/pkg/domain-errors"
)

const (
	audienceSession    = "onboarding-session"
	audienceLoginState = "onboarding-login"
)

// Claims represents the JWT claims stored in the session cookie.
type Claims struct {
	SessionID   string `json:"sid"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Picture     string `json:"picture,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	jwt.RegisteredClaims
}

// LoginState is the PKCE verifier and CSRF state carried between /login and
// /callback.
type LoginState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
	jwt.RegisteredClaims
}

// Service handles session token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewService(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL is the lifetime of issued session tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue starts a new session for subject and returns its signed token.
func (s *Service) Issue(subject string, profile models.ExternalProfile) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		SessionID:   uuid.NewString(),
		GivenName:   profile.GivenName,
		FamilyName:  profile.FamilyName,
		Email:       profile.Email,
		Picture:     profile.Picture,
		LinkedInURL: profile.LinkedInURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audienceSession},
			ID:        uuid.NewString(),
		},
	}
	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Validate parses a session token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims, audienceSession); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateSession adapts Validate to the session middleware.
func (s *Service) ValidateSession(tokenString string) (*authmw.SessionClaims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}

// IssueLoginState signs the state and verifier for the login round trip.
func (s *Service) IssueLoginState(state, verifier string, ttl time.Duration) (string, error) {
	now := s.now()
	return s.sign(&LoginState{
		State:    state,
		Verifier: verifier,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audienceLoginState},
		},
	})
}

// ValidateLoginState parses a login state token.
func (s *Service) ValidateLoginState(tokenString string) (*LoginState, error) {
	ls := &LoginState{}
	if err := s.parse(tokenString, ls, audienceLoginState); err != nil {
		return nil, err
	}
	return ls, nil
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *Service) parse(tokenString string, claims jwt.Claims, audience string) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return nil
}

// ToMiddlewareClaims converts token claims into the middleware's view.
func ToMiddlewareClaims(claims *Claims) *authmw.SessionClaims {
	return &authmw.SessionClaims{
		SessionID:   claims.SessionID,
		Subject:     claims.Subject,
		GivenName:   claims.GivenName,
		FamilyName:  claims.FamilyName,
		Email:       claims.Email,
		Picture:     claims.Picture,
		LinkedInURL: claims.LinkedInURL,
	}
}
