// Package directory calls the external identity directory (the
// organization's user directory service) for exact and prefix lookups that
// back pkg/identity's resolver (spec.md §4.3).
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/resilience"
)

// Candidate is one directory search result.
type Candidate struct {
	GUIDMS             string `json:"guid_ms"`
	DisplayName        string `json:"displayName"`
	GivenName          string `json:"givenName"`
	Surname            string `json:"surname"`
	Mail               string `json:"mail"`
	UserPrincipalName  string `json:"userPrincipalName"`
}

// Client is the directory's exact and prefix lookup surface.
type Client interface {
	// ExactLookup finds a single directory entry by email or guid_ms.
	// ok is false if nothing matched.
	ExactLookup(ctx context.Context, email, guidMS string) (Candidate, bool, error)

	// PrefixSearch finds directory entries whose displayName, givenName,
	// surname, mail, or userPrincipalName starts with prefix.
	PrefixSearch(ctx context.Context, prefix string) ([]Candidate, error)
}

// httpClient calls a REST-shaped directory service over HTTP.
type httpClient struct {
	baseURL string
	http    *http.Client
	log     logr.Logger
	breaker *resilience.Manager
}

// NewHTTPClient builds a Client against baseURL using httpClient for
// transport (see pkg/shared/httpclient.DirectoryClientConfig).
func NewHTTPClient(baseURL string, client *http.Client, log logr.Logger, breaker *resilience.Manager) Client {
	return &httpClient{baseURL: baseURL, http: client, log: log, breaker: breaker}
}

func (c *httpClient) ExactLookup(ctx context.Context, email, guidMS string) (Candidate, bool, error) {
	query := url.Values{}
	if email != "" {
		query.Set("mail", email)
	}
	if guidMS != "" {
		query.Set("guid_ms", guidMS)
	}

	var candidates []Candidate
	if err := c.get(ctx, "/v1/directory/lookup?"+query.Encode(), &candidates); err != nil {
		return Candidate{}, false, err
	}
	if len(candidates) == 0 {
		return Candidate{}, false, nil
	}
	return candidates[0], true, nil
}

func (c *httpClient) PrefixSearch(ctx context.Context, prefix string) ([]Candidate, error) {
	query := url.Values{}
	query.Set("prefix", prefix)

	var candidates []Candidate
	if err := c.get(ctx, "/v1/directory/search?"+query.Encode(), &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *httpClient) get(ctx context.Context, path string, out interface{}) error {
	call := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("directory: %s returned %d", path, resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute("directory.lookup", call)
	} else {
		_, err = call()
	}
	return err
}
