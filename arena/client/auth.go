package client

import (
	"context"
	"fmt"
)

// AuthService covers registration, login and session endpoints.
type AuthService struct {
	c *Client
}

// GetNonce requests a login nonce for a wallet. The nonce must be signed
// with the wallet's key and presented to AgentLogin.
func (s *AuthService) GetNonce(ctx context.Context, walletAddress string) (string, error) {
	resp, err := s.c.post(ctx, "/api/v1/auth/nonce", &nonceRequest{WalletAddress: walletAddress}, "NonceRequest")
	if err != nil {
		return "", err
	}
	raw, err := s.c.payload(resp, "nonce", "string")
	if err != nil {
		return "", err
	}
	nonce, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("unexpected nonce payload shape")
	}
	return nonce, nil
}

// Register creates a user account from an email and password. The returned
// user is unverified until VerifyEmail is called.
func (s *AuthService) Register(ctx context.Context, email, password string) (*User, error) {
	resp, err := s.c.post(ctx, "/api/v1/auth/register", &registerRequest{Email: email, Password: password}, "RegisterRequest")
	if err != nil {
		return nil, err
	}
	return decodeOne[User](s.c, resp, "user", "User")
}

// Login authenticates with email and password. The session token is stored
// on the client and sent as a bearer token on subsequent requests.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	return s.login(ctx, &loginRequest{Email: email, Password: password})
}

// AgentLogin authenticates with a wallet signature over a previously issued
// nonce. The session token is stored on the client.
func (s *AuthService) AgentLogin(ctx context.Context, walletAddress, publicKey, signature string) (*User, error) {
	return s.login(ctx, &loginRequest{
		WalletAddress: walletAddress,
		PublicKey:     publicKey,
		Signature:     signature,
	})
}

func (s *AuthService) login(ctx context.Context, req *loginRequest) (*User, error) {
	resp, err := s.c.post(ctx, "/api/v1/auth/login", req, "LoginRequest")
	if err != nil {
		return nil, err
	}
	raw, err := s.c.payload(resp, "token", "string")
	if err != nil {
		return nil, err
	}
	token, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected token payload shape")
	}
	u, err := decodeOne[User](s.c, resp, "user", "User")
	if err != nil {
		return nil, err
	}
	s.c.SetToken(token)
	return u, nil
}

// VerifyEmail redeems the single-use code issued at registration.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*User, error) {
	resp, err := s.c.post(ctx, "/api/v1/auth/verify-email", &verifyEmailRequest{Email: email, Code: code}, "VerifyEmailRequest")
	if err != nil {
		return nil, err
	}
	return decodeOne[User](s.c, resp, "user", "User")
}

// Logout revokes the current session token and clears it from the client.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := s.c.post(ctx, "/api/v1/auth/logout", nil, "")
	if err != nil {
		return err
	}
	s.c.SetToken("")
	return nil
}

// Me returns the account behind the current session token.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	resp, err := s.c.get(ctx, "/api/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[User](s.c, resp, "user", "User")
}
