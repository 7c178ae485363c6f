package verify

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
)

// SessionClaims are the claims of a verification session token. The token
// lets an authenticated third party fetch the printable ledger without
// retyping the seed; it grants read access to one record only.
type SessionClaims struct {
	RecordID string `json:"record_id"`
	jwt.RegisteredClaims
}

// TokenService mints and validates verification session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue mints a session token scoped to the verified record.
func (s *TokenService) Issue(recordID id.RecordID, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RecordID: recordID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	return signed, nil
}

// Validate parses a session token and returns the record it is scoped to.
func (s *TokenService) Validate(tokenString string) (id.RecordID, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !token.Valid {
		return id.RecordID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return id.ParseRecordID(claims.RecordID)
}
