package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
)

const adminTokenCacheKey = "admin_access_token"

// AdminConfig locates the administrative principal used for directory
// lookups. ClientID defaults to admin-cli.
type AdminConfig struct {
	BaseURL  string
	Realm    string
	Username string
	Password string
	ClientID string
}

// AdminClient implements credentials.AdminDirectory against the Keycloak
// Admin REST API. The admin token is cached until shortly before its expiry
// so repeated lookups do not re-authenticate.
type AdminClient struct {
	config AdminConfig
	http   *http.Client
	cache  *gocache.Cache
}

var _ credentials.AdminDirectory = (*AdminClient)(nil)

// NewAdminClient builds a directory client for the realm's admin API.
func NewAdminClient(config AdminConfig) *AdminClient {
	if config.ClientID == "" {
		config.ClientID = "admin-cli"
	}
	return &AdminClient{
		config: config,
		http:   &http.Client{Timeout: 30 * time.Second},
		cache:  gocache.New(time.Minute, 5*time.Minute),
	}
}

// UserAttributes looks the target user up by exact name and returns their
// profile attributes.
func (a *AdminClient) UserAttributes(ctx context.Context, username string) (map[string][]string, error) {
	token, err := a.adminToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[AdminClient.UserAttributes] admin token")
	}

	endpoint := fmt.Sprintf("%s/admin/realms/%s/users?username=%s&exact=true",
		strings.TrimRight(a.config.BaseURL, "/"), a.config.Realm, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[AdminClient.UserAttributes] build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[AdminClient.UserAttributes] admin API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[AdminClient.UserAttributes] admin API returned %s", resp.Status)
	}

	var found []struct {
		ID         string              `json:"id"`
		Username   string              `json:"username"`
		Attributes map[string][]string `json:"attributes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, errors.Wrap(err, "[AdminClient.UserAttributes] decode response")
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(credentials.ErrUserNotFound, "[AdminClient.UserAttributes] user %q", username)
	}

	attrs := found[0].Attributes
	if attrs == nil {
		attrs = map[string][]string{}
	}
	return attrs, nil
}

// adminToken authenticates the admin principal with a password grant, caching
// the access token until 10 seconds before it expires.
func (a *AdminClient) adminToken(ctx context.Context) (string, error) {
	if token, ok := a.cache.Get(adminTokenCacheKey); ok {
		return token.(string), nil
	}

	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token",
		strings.TrimRight(a.config.BaseURL, "/"), a.config.Realm)
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {a.config.ClientID},
		"username":   {a.config.Username},
		"password":   {a.config.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "[AdminClient.adminToken] build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[AdminClient.adminToken] token endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("[AdminClient.adminToken] token endpoint returned %s", resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "[AdminClient.adminToken] decode response")
	}
	if body.AccessToken == "" {
		return "", errors.New("[AdminClient.adminToken] empty access token in response")
	}

	ttl := time.Duration(body.ExpiresIn)*time.Second - 10*time.Second
	if ttl > 0 {
		a.cache.Set(adminTokenCacheKey, body.AccessToken, ttl)
	}
	return body.AccessToken, nil
}
