package client

import "context"

type AuthClient struct {
	httpClient *HttpClient
}

func NewAuthClient(httpClient *HttpClient) *AuthClient {
	return &AuthClient{httpClient: httpClient}
}

type Identity struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *AuthClient) Register(ctx context.Context, email, name, password string) (*Identity, error) {
	return c.identity(ctx, "/api/v1/auth/register", registerRequest{Email: email, Name: name, Password: password})
}

func (c *AuthClient) Login(ctx context.Context, email, password string) (*Identity, error) {
	return c.identity(ctx, "/api/v1/auth/login", loginRequest{Email: email, Password: password})
}

func (c *AuthClient) identity(ctx context.Context, path string, body any) (*Identity, error) {
	resp, err := c.httpClient.POST(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var id Identity
	if err := resp.DecodeData(&id); err != nil {
		return nil, err
	}
	return &id, nil
}
