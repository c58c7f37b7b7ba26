package filter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTBearer builds a Custom filter that admits requests carrying a valid
// Bearer token in the Authorization header. A missing header or a token
// that fails verification is an ordinary non-match (false, nil); an
// Authorization header present but not shaped like "Bearer <token>" is a
// FilterFailure-class error, since that is a malformed request rather
// than "try the next service".
func JWTBearer(keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) Filter {
	parser := jwt.NewParser(opts...)
	return filterFunc(func(r *http.Request) (bool, error) {
		header := r.Header.Get("Authorization")
		if header == "" {
			return false, nil
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return false, fmt.Errorf("filter: malformed Authorization header")
		}
		parsed, err := parser.Parse(token, keyFunc)
		if err != nil || !parsed.Valid {
			return false, nil
		}
		return true, nil
	})
}
