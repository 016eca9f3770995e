package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

const (
	usersPath = "/api/v1/users/username/"

	// maxErrorBody caps how much of an error response ends up in the error
	// message.
	maxErrorBody = 512
)

// HTTPResolver fetches user records from the user microservice with
// GET {base}/api/v1/users/username/{username}.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver builds a resolver for the service at baseURL. A zero
// timeout leaves the client without a deadline; callers should then bound
// requests through the context.
func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *HTTPResolver) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+usersPath+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.ErrorNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("user service lookup failed: %s; body: %s", resp.Status, string(b))
	}

	var u userPayload
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	// Some deployments answer 200 with an empty body for unknown users.
	if u.Username == "" {
		return nil, common.ErrorNotFound
	}
	return u.toModel(), nil
}

// userPayload is the user service's JSON representation.
type userPayload struct {
	ID        flexibleID `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Firstname string     `json:"firstname"`
	Lastname  string     `json:"lastname"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	Roles     []string   `json:"roles"`
}

func (p *userPayload) toModel() *models.User {
	return &models.User{
		ID:           string(p.ID),
		Username:     p.Username,
		PasswordHash: p.Password,
		Firstname:    p.Firstname,
		Lastname:     p.Lastname,
		Email:        p.Email,
		Status:       p.Status,
		Roles:        p.Roles,
	}
}

// flexibleID accepts identifiers encoded either as JSON strings or numbers.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid user id %s: %w", string(b), err)
	}
	*id = flexibleID(n.String())
	return nil
}
