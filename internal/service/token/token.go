package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (t *TokenService) SignAccessToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.JWTSecret)
}

func (t *TokenService) SignRefreshToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.RefreshSecret)
}

func (t *TokenService) SaveRefreshToken(ctx context.Context, token string, userID uint) error {
	rec := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
	}
	if err := t.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// ParseAccess validates an access token and returns the principal it
// carries.
func (t *TokenService) ParseAccess(raw string) (models.Principal, error) {
	claims, err := parseHMAC(raw, t.JWTSecret)
	if err != nil {
		return models.Principal{}, err
	}
	return principalFromClaims(claims)
}

// ValidateRefresh checks signature, typ claim and the stored copy of
// the refresh token (revocation, expiry).
func (t *TokenService) ValidateRefresh(ctx context.Context, raw string) (models.Principal, error) {
	claims, err := parseHMAC(raw, t.RefreshSecret)
	if err != nil {
		return models.Principal{}, err
	}
	if typ, ok := claims["typ"].(string); !ok || typ != "refresh" {
		return models.Principal{}, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	var stored models.RefreshToken
	if err := t.DB.WithContext(ctx).Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Principal{}, fmt.Errorf("%w: refresh token unknown", ErrInvalidToken)
		}
		return models.Principal{}, err
	}
	if stored.Revoked {
		return models.Principal{}, fmt.Errorf("%w: refresh token revoked", ErrInvalidToken)
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return models.Principal{}, fmt.Errorf("%w: refresh token expired", ErrInvalidToken)
	}

	return principalFromClaims(claims)
}

// Rotate exchanges a valid refresh token for a fresh access+refresh
// pair and revokes the old one.
func (t *TokenService) Rotate(ctx context.Context, raw string) (access, refresh string, p models.Principal, err error) {
	p, err = t.ValidateRefresh(ctx, raw)
	if err != nil {
		return "", "", models.Principal{}, err
	}

	access, err = t.SignAccessToken(p.ID, p.Role)
	if err != nil {
		return "", "", models.Principal{}, err
	}
	refresh, err = t.SignRefreshToken(p.ID, p.Role)
	if err != nil {
		return "", "", models.Principal{}, err
	}

	if err = t.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error; err != nil {
		return "", "", models.Principal{}, err
	}
	if err = t.SaveRefreshToken(ctx, refresh, p.ID); err != nil {
		return "", "", models.Principal{}, err
	}
	return access, refresh, p, nil
}

func (t *TokenService) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return t.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

func parseHMAC(raw string, secret []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	return claims, nil
}

func principalFromClaims(claims jwt.MapClaims) (models.Principal, error) {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return models.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return models.Principal{}, fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	return models.Principal{ID: uint(sub), Role: role}, nil
}
