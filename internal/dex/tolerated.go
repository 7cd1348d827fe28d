package dex

import (
	"fmt"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// The backend reports a handful of "already done" conditions as errors. They
// are matched by exact string; a change to the backend's wording turns a
// recoverable case into a fatal one, so every such string lives here.

func errTokenAlreadyExists(token string) string {
	return fmt.Sprintf("Token %s already exists", token)
}

func errLPTokenAlreadyExists(lpToken string) string {
	return fmt.Sprintf("LP token %s already exists", lpToken)
}

func errPoolAlreadyExists(lpToken string) string {
	return fmt.Sprintf("Pool %s already exists", lpToken)
}

// IsTokenAlreadyRegistered reports whether an add_token failure just means
// the token was registered earlier.
func IsTokenAlreadyRegistered(err *types.Error, token string) bool {
	return types.IsBackend(err, errTokenAlreadyExists(token))
}

// IsPoolAlreadyCreated reports whether an add_pool failure just means the
// pool exists and a top-up should be attempted instead.
func IsPoolAlreadyCreated(err *types.Error, symbol0, symbol1 string) bool {
	lpToken := LPTokenSymbol(symbol0, symbol1)
	return types.IsBackend(err, errLPTokenAlreadyExists(lpToken)) ||
		types.IsBackend(err, errPoolAlreadyExists(lpToken))
}
