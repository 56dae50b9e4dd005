package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// AlgHS256 is the HMAC256 algorithm
	AlgHS256 = "HS256"
	// TypJWT is the token type
	TypJWT = "JWT"
)

const (
	// TokenTypeAccess a access token
	TokenTypeAccess string = "access_token"

	// TokenTypeRefresh a refresh token
	TokenTypeRefresh string = "refresh_token"
)

var (
	// ErrMalformed is returned for tokens that are not three base64 encoded JSON parts
	ErrMalformed = errors.New("malformed token")
	// ErrSignature is returned when the signature does not match
	ErrSignature = errors.New("invalid signature")
	// ErrExpired is returned for expired tokens
	ErrExpired = errors.New("token expired")
	// ErrWrongType is returned when an access token is used as refresh token or vice versa
	ErrWrongType = errors.New("wrong token type")
)

// now is replaced in tests
var now = time.Now

// Header part of a JWT
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Claims our JWT can have
type Claims struct {
	Issuer         string `json:"iss,omitempty"`
	Subject        string `json:"sub,omitempty"`
	Audience       string `json:"aud,omitempty"`
	ExpirationTime int64  `json:"exp,omitempty"`
	NotBefore      int64  `json:"nbf,omitempty"`
	IssuedAt       int64  `json:"iat,omitempty"`
	JwtID          string `json:"jti,omitempty"`
	TokenType      string `json:"tkt,omitempty"`
}

// Token represents the token without a signature
type Token struct {
	Header  Header
	Payload Claims
}

// Verify checks the time based claims and the token type
func (c *Claims) Verify(tokenType string) error {
	current := now()

	if c.ExpirationTime != 0 && time.Unix(c.ExpirationTime, 0).Before(current) {
		return fmt.Errorf("%w: %s > %d", ErrExpired, current, c.ExpirationTime)
	}

	if c.NotBefore != 0 && time.Unix(c.NotBefore, 0).After(current) {
		return fmt.Errorf("token not valid before %d", c.NotBefore)
	}

	if tokenType != "" && c.TokenType != tokenType {
		return ErrWrongType
	}

	return nil
}

// New constructs a new token
func New(algorithm string, payload Claims) Token {
	t := Token{}
	header := Header{Alg: algorithm, Typ: TypJWT}
	t.Header = header
	t.Payload = payload

	return t
}

// Issue creates a signed token of the given type for subject, a zero ttl never expires
func Issue(subject string, issuer string, tokenType string, ttl time.Duration, secret string) (string, error) {
	issuedAt := now()

	claims := Claims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  issuedAt.Unix(),
		JwtID:     uuid.New().String(),
		TokenType: tokenType,
	}

	if ttl > 0 {
		claims.ExpirationTime = issuedAt.Add(ttl).Unix()
	}

	token := New(AlgHS256, claims)
	return token.Sign(secret)
}

// Sign returns the signed token
func (t *Token) Sign(secret string) (string, error) {
	headerJSON, err := json.Marshal(t.Header)
	if err != nil {
		return "", err
	}

	payloadJSON, err := json.Marshal(t.Payload)
	if err != nil {
		return "", err
	}

	unsigned := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(payloadJSON)

	return unsigned + "." + base64.RawURLEncoding.EncodeToString(signature(unsigned, secret)), nil
}

func signature(unsigned string, secret string) []byte {
	hash := hmac.New(sha256.New, []byte(secret))
	hash.Write([]byte(unsigned))
	return hash.Sum(nil)
}

// Verify checks if token is valid
func Verify(token string, tokenType string, secret string, algorithm string, payload Claims) (*Token, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrMalformed)
	}

	const headerPart = 0
	const payloadPart = 1
	const signaturePart = 2

	tokenParts := strings.Split(token, ".")
	if len(tokenParts) != 3 {
		return nil, fmt.Errorf("%w: no 3 part token structure", ErrMalformed)
	}

	decodedHeader, err := base64.RawURLEncoding.DecodeString(tokenParts[headerPart])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	header := Header{}
	err = json.Unmarshal(decodedHeader, &header)
	if err != nil {
		return nil, fmt.Errorf("%w: header json not valid", ErrMalformed)
	}

	if header.Typ != TypJWT || header.Alg != algorithm {
		return nil, errors.New("incompatible token")
	}

	decodedSignature, err := base64.RawURLEncoding.DecodeString(tokenParts[signaturePart])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	expected := signature(tokenParts[headerPart]+"."+tokenParts[payloadPart], secret)
	if !hmac.Equal(decodedSignature, expected) {
		return nil, ErrSignature
	}

	decodedPayload, err := base64.RawURLEncoding.DecodeString(tokenParts[payloadPart])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	err = json.Unmarshal(decodedPayload, &payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload json not valid", ErrMalformed)
	}

	err = payload.Verify(tokenType)
	if err != nil {
		return nil, err
	}

	decodedToken := New(algorithm, payload)

	return &decodedToken, nil
}
