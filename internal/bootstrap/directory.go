package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Jistoria/document-service/internal/config"
	"github.com/Jistoria/document-service/pkg/shared/httpclient"
)

// NewDirectoryHTTPClient builds the *http.Client pkg/identity/directory dials
// the external identity directory with, authenticating every request via an
// Azure AD client-credentials token rather than a static header.
func NewDirectoryHTTPClient(ctx context.Context, cfg config.AzureConfig) *http.Client {
	tokenSource := (&clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{cfg.Scope},
	}).TokenSource(ctx)

	base := httpclient.NewClient(httpclient.DirectoryClientConfig())
	return &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: tokenSource,
			Base:   base.Transport,
		},
	}
}
