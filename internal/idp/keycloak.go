package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Keycloak系の管理REST APIクライアント。
// client_credentialsでトークンを取り、期限内は使い回す。
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *logrus.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewKeycloakClient(baseURL string, realm string, clientID string, clientSecret string, logger *logrus.Logger) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// 管理APIのベースパス。
func (c *KeycloakClient) adminURL(path string) string {
	return c.baseURL + "/admin/realms/" + c.realm + path
}

// トークンを取得する。期限が30秒以上残っていれば再利用。
func (c *KeycloakClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > 30*time.Second {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	tokenURL := c.baseURL + "/realms/" + c.realm + "/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("idp token request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("idp token request: status %d", res.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("idp token response: %w", err)
	}

	c.accessToken = body.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// 管理APIを1回呼ぶ。2xx以外はerror。
// outがnilでなければレスポンスJSONをデコードする。
func (c *KeycloakClient) do(ctx context.Context, method string, path string, in interface{}, out interface{}) (*http.Response, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.adminURL(path), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("idp %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": res.StatusCode,
		}).Warn("idp call failed")
		return nil, fmt.Errorf("idp %s %s: status %d", method, path, res.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("idp %s %s: decode: %w", method, path, err)
		}
	}
	return res, nil
}

// Locationヘッダの末尾が新規IDになる。
func idFromLocation(res *http.Response) string {
	loc := res.Header.Get("Location")
	if loc == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(loc, "/"), "/")
	return parts[len(parts)-1]
}

func (c *KeycloakClient) CreateUser(ctx context.Context, user UserRepresentation) (string, error) {
	res, err := c.do(ctx, http.MethodPost, "/users", user, nil)
	if err != nil {
		return "", err
	}
	return idFromLocation(res), nil
}

func (c *KeycloakClient) UpdateUser(ctx context.Context, userID string, user UserRepresentation) error {
	_, err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), user, nil)
	return err
}

func (c *KeycloakClient) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
	return err
}

func (c *KeycloakClient) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	var reps []struct {
		Name string `json:"name"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/role-mappings/realm", nil, &reps); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(reps))
	for _, rep := range reps {
		names = append(names, rep.Name)
	}
	return names, nil
}

func (c *KeycloakClient) GetUserAttributes(ctx context.Context, userID string) (map[string][]string, error) {
	var rep struct {
		Attributes map[string][]string `json:"attributes"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &rep); err != nil {
		return nil, err
	}
	if rep.Attributes == nil {
		return map[string][]string{}, nil
	}
	return rep.Attributes, nil
}

// realmロールはname指定で付け外しする。先にrole定義を引いてIDを埋める。
func (c *KeycloakClient) realmRoleRepresentation(ctx context.Context, role string) (map[string]interface{}, error) {
	var rep struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/roles/"+url.PathEscape(role), nil, &rep); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": rep.ID, "name": rep.Name}, nil
}

func (c *KeycloakClient) AddRealmRole(ctx context.Context, userID string, role string) error {
	rep, err := c.realmRoleRepresentation(ctx, role)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/role-mappings/realm", []map[string]interface{}{rep}, nil)
	return err
}

func (c *KeycloakClient) RemoveRealmRole(ctx context.Context, userID string, role string) error {
	rep, err := c.realmRoleRepresentation(ctx, role)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID)+"/role-mappings/realm", []map[string]interface{}{rep}, nil)
	return err
}

func (c *KeycloakClient) CreateGroup(ctx context.Context, group GroupRepresentation) (string, error) {
	res, err := c.do(ctx, http.MethodPost, "/groups", group, nil)
	if err != nil {
		return "", err
	}
	return idFromLocation(res), nil
}

func (c *KeycloakClient) UpdateGroup(ctx context.Context, groupID string, group GroupRepresentation) error {
	_, err := c.do(ctx, http.MethodPut, "/groups/"+url.PathEscape(groupID), group, nil)
	return err
}

func (c *KeycloakClient) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/groups/"+url.PathEscape(groupID), nil, nil)
	return err
}
