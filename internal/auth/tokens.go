package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ActionRestock = "restock"

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ActionClaims is a single-purpose credential authorizing one operation on
// one resource, redeemable without a login.
type ActionClaims struct {
	MedicineID string `json:"medicine_id"`
	Action     string `json:"action"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies both access tokens and action tokens with a
// shared HS256 secret.
type Tokens struct {
	secret      []byte
	accessTTL   time.Duration
	approvalTTL time.Duration
	now         func() time.Time
}

func NewTokens(secret string, accessTTL, approvalTTL time.Duration) *Tokens {
	return &Tokens{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		approvalTTL: approvalTTL,
		now:         time.Now,
	}
}

func (t *Tokens) MintAccessToken(userID uuid.UUID, role string) (string, error) {
	now := t.now()
	claims := Claims{
		Sub:  userID.String(),
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) ParseAccessToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// MintRestockToken issues a 24h (configurable) credential authorizing a
// single restock of one medicine. The jti identifies the token for
// single-use tracking.
func (t *Tokens) MintRestockToken(medicineID uuid.UUID) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.approvalTTL)
	claims := ActionClaims{
		MedicineID: medicineID.String(),
		Action:     ActionRestock,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (t *Tokens) ParseRestockToken(tokenStr string) (string, uuid.UUID, time.Time, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &ActionClaims{}, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", uuid.Nil, time.Time{}, ErrTokenExpired
		}
		return "", uuid.Nil, time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*ActionClaims)
	if !ok || !parsed.Valid {
		return "", uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	if claims.Action != ActionRestock || claims.ID == "" {
		return "", uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	medicineID, err := uuid.Parse(claims.MedicineID)
	if err != nil {
		return "", uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return "", uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	return claims.ID, medicineID, claims.ExpiresAt.Time, nil
}

// IsExpired reports whether a parse failure was an expiry.
func (t *Tokens) IsExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func (t *Tokens) keyFunc(_ *jwt.Token) (interface{}, error) {
	return t.secret, nil
}
