package driven

import "github.com/custodia-labs/similarity-core/internal/core/domain"

// TokenVerifier validates bearer tokens issued by the surrounding application.
// Token issuance is not handled here.
type TokenVerifier interface {
	// ParseToken verifies the signature and expiry and returns the claims
	ParseToken(token string) (*domain.TokenClaims, error)
}
