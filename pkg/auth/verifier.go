package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRole is assigned when a token carries no application role.
const DefaultRole = "candidate"

var (
	ErrNoKey      = errors.New("auth: no verification key configured")
	ErrKeyUnknown = errors.New("auth: signing key not found")
)

// Claims is the identity extracted from a verified token.
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// Verifier validates HS256 tokens with a shared secret and RS256 tokens
// against a JWKS endpoint. Either may be left unconfigured.
type Verifier struct {
	secret []byte
	jwks   *KeySet
}

func NewVerifier(secret string, jwks *KeySet) *Verifier {
	v := &Verifier{jwks: jwks}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Verify parses and validates raw, returning its identity claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.secret == nil {
				return nil, ErrNoKey
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.jwks == nil {
				return nil, ErrNoKey
			}
			kid, _ := t.Header["kid"].(string)
			return v.jwks.PublicKey(ctx, kid)
		}
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("auth: unexpected claims type")
	}
	sub, _ := mc["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, errors.New("auth: token has no subject")
	}
	email, _ := mc["email"].(string)
	return &Claims{Subject: sub, Email: email, Role: roleOf(mc)}, nil
}

// roleOf prefers app_metadata.role, where Supabase keeps application roles;
// the top-level role claim is usually just "authenticated".
func roleOf(mc jwt.MapClaims) string {
	if meta, ok := mc["app_metadata"].(map[string]interface{}); ok {
		if r, ok := meta["role"].(string); ok && r != "" {
			return r
		}
	}
	if r, ok := mc["user_role"].(string); ok && r != "" {
		return r
	}
	return DefaultRole
}

// KeySet caches RSA keys from a JWKS endpoint.
type KeySet struct {
	url    string
	client *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	refreshed time.Time
}

func NewKeySet(url string) *KeySet {
	return &KeySet{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// PublicKey returns the key for kid, refetching the set at most once a minute.
func (s *KeySet) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	s.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok = s.keys[kid]; !ok {
		return nil, ErrKeyUnknown
	}
	return key, nil
}

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (s *KeySet) refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.refreshed) < time.Minute && len(s.keys) > 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var body struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(body.Keys))
	for _, k := range body.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	s.keys = keys
	s.refreshed = time.Now()
	return nil
}

func (k jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
