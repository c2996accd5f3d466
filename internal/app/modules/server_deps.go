package modules

import (
	"greenledger.io/greenledger/internal/api/handlers"
	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/config"
)

// TokenIssuer is the iss claim of tokens minted for this service.
const TokenIssuer = "greenledger"

// NewServerDeps lets each module contribute explicit wiring.
func NewServerDeps(mods []Module) handlers.ServerDeps {
	var deps handlers.ServerDeps
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		contributor, ok := mod.(ServerDepsContributor)
		if !ok {
			continue
		}
		contributor.ContributeServerDeps(&deps)
	}
	return deps
}

// NewJWTConfig builds the token settings shared by the server and ledgerctl.
func NewJWTConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.SessionSecret),
		Issuer:     TokenIssuer,
		ExpiresIn:  cfg.Security.TokenTTL,
	}
}
