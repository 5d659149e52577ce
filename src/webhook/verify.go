package webhook

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v41/plaid"
)

// Plaid signs each webhook with a short lived ES256 JWT carried in this
// header. See https://plaid.com/docs/api/webhooks/webhook-verification/
const Header = "Plaid-Verification"

const DefaultMaxAge = 5 * time.Minute

var (
	ErrMissingHeader = errors.New("missing Plaid-Verification header")
	ErrExpired       = errors.New("webhook token too old")
	ErrBodyMismatch  = errors.New("webhook body hash mismatch")
)

// KeyFetcher resolves a verification key id to its public JWK.
type KeyFetcher interface {
	VerificationKey(ctx context.Context, kid string) (*plaid.JWKPublicKey, error)
}

type Verifier struct {
	keys   KeyFetcher
	maxAge time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*ecdsa.PublicKey
}

func NewVerifier(keys KeyFetcher) *Verifier {
	return &Verifier{
		keys:   keys,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		cache:  map[string]*ecdsa.PublicKey{},
	}
}

// Verify checks the signature, age and body hash of a webhook request.
func (v *Verifier) Verify(ctx context.Context, body []byte, header http.Header) error {
	tokenString := header.Get(Header)
	if tokenString == "" {
		return ErrMissingHeader
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(v.now),
	)

	// Decode the header unverified to find which key signed it.
	unverified, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("parse unverified token: %w", err)
	}
	if unverified.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return fmt.Errorf("unexpected alg %q (want ES256)", unverified.Method.Alg())
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return errors.New("missing kid in JWT header")
	}

	pubKey, err := v.key(ctx, kid)
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return pubKey, nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return errors.New("missing iat")
	}
	if v.now().Sub(iat.Time) > v.maxAge {
		return ErrExpired
	}

	wantHash, ok := claims["request_body_sha256"].(string)
	if !ok || wantHash == "" {
		return errors.New("missing request_body_sha256")
	}
	sum := sha256.Sum256(body)
	gotHex := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(gotHex), []byte(strings.ToLower(wantHash))) != 1 {
		return ErrBodyMismatch
	}

	return nil
}

func (v *Verifier) key(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	v.mu.Lock()
	cached, ok := v.cache[kid]
	v.mu.Unlock()
	if ok {
		return cached, nil
	}

	jwk, err := v.keys.VerificationKey(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("get JWK: %w", err)
	}
	pubKey, err := PublicKeyFromJWK(jwk)
	if err != nil {
		return nil, fmt.Errorf("jwk->ecdsa: %w", err)
	}

	if jwk.Kid == kid {
		v.mu.Lock()
		v.cache[kid] = pubKey
		v.mu.Unlock()
	}
	return pubKey, nil
}

func PublicKeyFromJWK(jwk *plaid.JWKPublicKey) (*ecdsa.PublicKey, error) {
	if jwk == nil || jwk.X == "" || jwk.Y == "" ||
		jwk.Kty != "EC" ||
		jwk.Crv != "P-256" {
		return nil, errors.New("invalid/unsupported JWK")
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
