// Package authctx resolves an inbound bearer token into an AuthContext,
// probing the shared session cache first and falling back to JWKS-based
// cryptographic verification (spec.md §4.7.1).
package authctx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
)

const dmsUsersCollection = "dms_users"

// AuthContext is the resolved identity and authorization snapshot attached
// to every authenticated request.
type AuthContext struct {
	UserID            string             `json:"user_id"`
	TokenHash         string             `json:"token_hash"`
	TokenType         string             `json:"token_type"`
	TenantID          string             `json:"tenant_id,omitempty"`
	TeamIDs           []string           `json:"team_ids,omitempty"`
	MicroservicesData MicroservicesData  `json:"microservices_data"`
}

// MicroservicesData is the fallback permission source consulted when the
// external permissions KV is unavailable (§4.7.2).
type MicroservicesData struct {
	ByID map[string]MicroserviceEntry `json:"by_id,omitempty"`
}

type MicroserviceEntry struct {
	Permissions []string             `json:"permissions,omitempty"`
	Teams       map[string]TeamEntry `json:"teams,omitempty"`
}

type TeamEntry struct {
	Permissions []string `json:"permissions,omitempty"`
}

const (
	providerLocal = "local"
	providerAzure = "azure"
)

// SessionCache probes the shared session KV for a cached AuthContext.
type SessionCache interface {
	// Probe issues a pipelined lookup across keys and returns the bytes of
	// the first one that's set.
	Probe(ctx context.Context, keys []string) (value []byte, hit bool, err error)
}

// Verifier performs JWKS-backed cryptographic verification of a bearer
// token, returning its claims as a generic key/value map.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (claims map[string]interface{}, err error)
}

// Dependencies are the collaborators Resolve needs. MicroserviceID scopes
// the fallback MicroservicesData entry populated from the local dms_users
// cache when JWKS verification (not the session cache) resolves a token.
type Dependencies struct {
	Sessions      SessionCache
	Verifier      Verifier
	Store         graphstore.Store
	MicroserviceID string
	Log           logr.Logger
}

// Resolve implements §4.7.1: hash the token, probe the session cache across
// all three provider-prefixed keys, and fall back to JWKS verification plus
// a dms_users permission lookup when nothing is cached.
func Resolve(ctx context.Context, deps Dependencies, rawToken string) (*AuthContext, error) {
	sum := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(sum[:])

	keys := []string{
		fmt.Sprintf("session:%s:%s", providerLocal, tokenHash),
		fmt.Sprintf("session:%s:%s", providerAzure, tokenHash),
		fmt.Sprintf("session:%s", tokenHash),
	}

	if raw, hit, err := deps.Sessions.Probe(ctx, keys); err != nil {
		return nil, fmt.Errorf("authctx: probing session cache: %w", err)
	} else if hit {
		var cached AuthContext
		if err := json.Unmarshal(raw, &cached); err != nil {
			return nil, fmt.Errorf("authctx: decoding cached session: %w", err)
		}
		cached.TokenHash = tokenHash
		return &cached, nil
	}

	claims, err := deps.Verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	userID := claimString(claims, "oid")
	if userID == "" {
		userID = claimString(claims, "sub")
	}
	if userID == "" {
		return nil, fmt.Errorf("authctx: token carries neither oid nor sub")
	}

	authCtx := &AuthContext{
		UserID:    userID,
		TokenHash: tokenHash,
		TokenType: claimString(claims, "token_type"),
		TenantID:  claimString(claims, "tid"),
	}

	if err := enrichFromDMSUsers(ctx, deps, authCtx); err != nil {
		deps.Log.Error(err, "authctx: dms_users enrichment failed, continuing with bare claims", "user_id", userID)
	}
	return authCtx, nil
}

// enrichFromDMSUsers copies a resolved user's cached dms_permissions into
// team_ids and the microservices_data fallback slot.
func enrichFromDMSUsers(ctx context.Context, deps Dependencies, authCtx *AuthContext) error {
	key, err := identity.SanitizeGUID(authCtx.UserID)
	if err != nil {
		return err
	}

	var user graphmodel.DMSUser
	if err := deps.Store.GetVertex(ctx, dmsUsersCollection, key, &user); err != nil {
		return err
	}

	authCtx.TeamIDs = user.DMSPermissions.Teams
	if deps.MicroserviceID != "" {
		authCtx.MicroservicesData = MicroservicesData{
			ByID: map[string]MicroserviceEntry{
				deps.MicroserviceID: {Permissions: user.DMSPermissions.Permissions},
			},
		}
	}
	return nil
}

func claimString(claims map[string]interface{}, key string) string {
	v, ok := claims[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
