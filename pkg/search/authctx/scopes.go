package authctx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const globalTeam = "global"

// PermissionsKV tests set membership of a permission at a composite key.
type PermissionsKV interface {
	IsMember(ctx context.Context, key, permission string) (bool, error)
}

// RedisPermissionsKV is a PermissionsKV backed by go-redis sets.
type RedisPermissionsKV struct {
	client *redis.Client
}

func NewRedisPermissionsKV(client *redis.Client) *RedisPermissionsKV {
	return &RedisPermissionsKV{client: client}
}

func (kv *RedisPermissionsKV) IsMember(ctx context.Context, key, permission string) (bool, error) {
	ok, err := kv.client.SIsMember(ctx, key, permission).Result()
	if err != nil {
		return false, fmt.Errorf("authctx: checking permission membership at %s: %w", key, err)
	}
	return ok, nil
}

// ScopesFor implements scopes_for(permission, ctx) → list<team_id | "*">
// (§4.7.2). Primary path probes the permissions KV per team ctx belongs to,
// plus the team-less "global" key; a hit on global short-circuits to the
// wildcard scope. If the KV is unreachable, it falls back to the
// in-memory microservices_data snapshot carried on the AuthContext.
func ScopesFor(ctx context.Context, kv PermissionsKV, tenant, microservice, permission string, authCtx *AuthContext) ([]string, error) {
	teams := append([]string{globalTeam}, authCtx.TeamIDs...)
	var scopes []string

	for _, team := range teams {
		key := permissionsKey(tenant, microservice, authCtx.UserID, team)
		hit, err := kv.IsMember(ctx, key, permission)
		if err != nil {
			return fallbackScopes(microservice, permission, authCtx), nil
		}
		if !hit {
			continue
		}
		if team == globalTeam {
			return []string{"*"}, nil
		}
		scopes = append(scopes, team)
	}
	return scopes, nil
}

func permissionsKey(tenant, microservice, user, team string) string {
	if team == globalTeam {
		return fmt.Sprintf("perm:%s:%s:%s", tenant, microservice, user)
	}
	return fmt.Sprintf("perm:%s:%s:%s:%s", tenant, microservice, user, team)
}

// fallbackScopes consults the AuthContext's microservices_data snapshot when
// the permissions KV is down: a top-level permission maps to the wildcard
// scope, a per-team permission maps to that team.
func fallbackScopes(microservice, permission string, authCtx *AuthContext) []string {
	entry, ok := authCtx.MicroservicesData.ByID[microservice]
	if !ok {
		return nil
	}
	for _, p := range entry.Permissions {
		if p == permission {
			return []string{"*"}
		}
	}

	var scopes []string
	for team, t := range entry.Teams {
		for _, p := range t.Permissions {
			if p == permission {
				scopes = append(scopes, team)
				break
			}
		}
	}
	return scopes
}
