package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roach88/storefront/internal/ir"
)

// ErrMalformedToken is returned by Decode for tokens it cannot read.
var ErrMalformedToken = errors.New("auth: malformed token")

// Claims is the decoded claim set of a token. Empty means logged out.
type Claims ir.Object

// Login returns sub.login, the name the backend knows the user by.
func (c Claims) Login() string {
	return ir.Object(c).GetObject("sub").GetString("login")
}

// UserID returns sub.id when present.
func (c Claims) UserID() string {
	return ir.Object(c).GetObject("sub").GetString("id")
}

// LoggedIn reports whether c holds any claims.
func (c Claims) LoggedIn() bool {
	return len(c) > 0
}

// Decode reads the payload segment of a three-part token as base64 JSON.
//
// Only the middle segment is looked at. The header and signature are not
// parsed or verified; the backend does that on every request. The client
// only needs the claims to know who is logged in.
func Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	v, err := ir.UnmarshalValue(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedToken)
	}
	return Claims(obj), nil
}

// segmentParser decodes URL-safe base64 with or without padding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())
