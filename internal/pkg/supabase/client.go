package supabase

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/supabase-community/postgrest-go"
)

var ErrMissingCredentials = errors.New("supabase URL and service key are required")

// ProjectRef extracts the project reference from a Supabase URL.
// From: https://akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func ProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

// RestURL is the PostgREST endpoint of a Supabase project.
func RestURL(projectURL string) string {
	return strings.TrimRight(projectURL, "/") + "/rest/v1"
}

// NewRestClient builds a PostgREST client authenticated with the service key.
func NewRestClient(projectURL, serviceKey string, logger *slog.Logger) (*postgrest.Client, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, ErrMissingCredentials
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Only log a prefix of the key
	truncatedKey := ""
	if len(serviceKey) > 10 {
		truncatedKey = serviceKey[:10] + "..."
	}
	logger.Info("Initializing Supabase client", "projectRef", ProjectRef(projectURL), "key", truncatedKey)

	client := postgrest.NewClient(RestURL(projectURL), "public", nil)
	if client.ClientError != nil {
		return nil, client.ClientError
	}
	return client.SetApiKey(serviceKey).SetAuthToken(serviceKey), nil
}
