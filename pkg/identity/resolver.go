// Package identity resolves free-text identity hints (a display name, an
// email, a directory GUID) to a DMSUser vertex, caching external directory
// hits locally (spec.md §4.3).
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity/directory"
)

const dmsUsersCollection = "dms_users"

// similarityThreshold is the minimum score a name-only candidate must cross
// to be accepted (spec.md §4.3).
const similarityThreshold = 0.75

// Resolver implements resolve_user and create_user.
type Resolver struct {
	store     graphstore.Store
	directory directory.Client
	log       logr.Logger
}

// NewResolver builds a Resolver.
func NewResolver(store graphstore.Store, dir directory.Client, log logr.Logger) *Resolver {
	return &Resolver{store: store, directory: dir, log: log}
}

// ResolveUser implements resolve_user(display_name?, email?, guid_ms?).
// Returns (nil, nil) when no match is found.
func (r *Resolver) ResolveUser(ctx context.Context, displayName, email, guidMS string) (*graphmodel.DMSUser, error) {
	if guidMS != "" || email != "" {
		if user, err := r.lookupLocal(ctx, email, guidMS); err != nil {
			return nil, err
		} else if user != nil {
			return user, nil
		}

		if cand, ok, err := r.directory.ExactLookup(ctx, email, guidMS); err != nil {
			return nil, fmt.Errorf("identity: directory exact lookup: %w", err)
		} else if ok {
			return r.upsertFromCandidate(ctx, cand)
		}
		if guidMS == "" {
			return nil, nil
		}
	}

	if displayName == "" {
		return nil, nil
	}
	return r.resolveByName(ctx, displayName, email)
}

// lookupLocal implements steps 1-2: exact lookup by guid_ms or
// case-insensitive email, then by the sanitized guid_ms key.
func (r *Resolver) lookupLocal(ctx context.Context, email, guidMS string) (*graphmodel.DMSUser, error) {
	if guidMS != "" {
		if v, ok, err := r.store.FindOneCI(ctx, dmsUsersCollection, "guid_ms", guidMS); err != nil {
			return nil, err
		} else if ok {
			return decodeUser(v)
		}
	}
	if email != "" {
		if v, ok, err := r.store.FindOneCI(ctx, dmsUsersCollection, "email", email); err != nil {
			return nil, err
		} else if ok {
			return decodeUser(v)
		}
	}
	if guidMS != "" {
		sanitized, err := SanitizeGUID(guidMS)
		if err == nil {
			var user graphmodel.DMSUser
			if err := r.store.GetVertex(ctx, dmsUsersCollection, sanitized, &user); err == nil {
				return &user, nil
			}
		}
	}
	return nil, nil
}

// resolveByName implements step 4: prefix search, then exact email match or
// similarity scoring against the best candidate.
func (r *Resolver) resolveByName(ctx context.Context, displayName, email string) (*graphmodel.DMSUser, error) {
	candidates, err := r.directory.PrefixSearch(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("identity: directory prefix search: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if email != "" {
		for _, c := range candidates {
			if strings.EqualFold(c.Mail, email) {
				return r.upsertFromCandidate(ctx, c)
			}
		}
	}

	best := candidates[0]
	bestScore := SimilarityRatio(displayName, best.DisplayName)
	for _, c := range candidates[1:] {
		if score := SimilarityRatio(displayName, c.DisplayName); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < similarityThreshold {
		return nil, nil
	}
	return r.upsertFromCandidate(ctx, best)
}

func (r *Resolver) upsertFromCandidate(ctx context.Context, c directory.Candidate) (*graphmodel.DMSUser, error) {
	key, err := SanitizeGUID(c.GUIDMS)
	if err != nil {
		return nil, fmt.Errorf("identity: upserting directory candidate: %w", err)
	}
	name, lastName := SplitDisplayName(c.DisplayName)
	user := graphmodel.DMSUser{
		Key:      key,
		GUIDMS:   c.GUIDMS,
		Name:     name,
		LastName: lastName,
		Email:    c.Mail,
		Source:   graphmodel.UserSourceDirectory,
	}
	if err := r.store.UpsertVertex(ctx, dmsUsersCollection, key, user); err != nil {
		return nil, fmt.Errorf("identity: upserting user %s: %w", key, err)
	}
	return &user, nil
}

// CreateUser implements create_user(display_name, email?).
func (r *Resolver) CreateUser(ctx context.Context, displayName, email string) (string, error) {
	name, lastName := SplitDisplayName(displayName)
	user := graphmodel.DMSUser{
		Name:     name,
		LastName: lastName,
		Email:    email,
		Source:   graphmodel.UserSourceManualCreation,
	}
	key, err := r.store.InsertVertex(ctx, dmsUsersCollection, user)
	if err != nil {
		return "", fmt.Errorf("identity: creating user %q: %w", displayName, err)
	}
	return key, nil
}

func decodeUser(v graphstore.Vertex) (*graphmodel.DMSUser, error) {
	user := graphmodel.DMSUser{Key: v.Key}
	if name, ok := v.Doc["name"].(string); ok {
		user.Name = name
	}
	if lastName, ok := v.Doc["last_name"].(string); ok {
		user.LastName = lastName
	}
	if email, ok := v.Doc["email"].(string); ok {
		user.Email = email
	}
	if guid, ok := v.Doc["guid_ms"].(string); ok {
		user.GUIDMS = guid
	}
	if source, ok := v.Doc["source"].(string); ok {
		user.Source = source
	}
	return &user, nil
}
