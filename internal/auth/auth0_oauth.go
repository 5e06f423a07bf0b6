package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Auth0OAuthConfig はAuth0形式のフェデレーションプロバイダーの設定。
type Auth0OAuthConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient はトークン交換とユーザー情報取得に使用する。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client
}

// Auth0OAuthProvider はAuth0のAuthorization Code Flowによる認証を提供する。
// トークン交換はgolang.org/x/oauth2に委譲し、署名検証などのプロトコル処理は行わない。
type Auth0OAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewAuth0OAuthProvider はAuth0OAuthProviderを生成する。
// Domainは "example.auth0.com" 形式でも "https://example.auth0.com" 形式でもよい。
func NewAuth0OAuthProvider(config Auth0OAuthConfig) *Auth0OAuthProvider {
	base := domainBaseURL(config.Domain)
	if config.AuthURL == "" {
		config.AuthURL = base + "/authorize"
	}
	if config.TokenURL == "" {
		config.TokenURL = base + "/oauth/token"
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = base + "/userinfo"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	return &Auth0OAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: config.UserInfoURL,
		client:      config.HTTPClient,
	}
}

// GetLoginURL はAuth0の認可エンドポイントURLを生成する。
// スコープにはopenid, profile, emailを含む。
func (p *Auth0OAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// auth0UserInfo はAuth0のユーザー情報エンドポイントのレスポンス。
type auth0UserInfo struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、プロフィールを取得する。
func (p *Auth0OAuthProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	// 1. 認可コードをアクセストークンに交換
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. アクセストークンでユーザー情報を取得
	info, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	name := info.Name
	if name == "" {
		name = info.Nickname
	}

	return &Profile{
		ExternalID:  info.Sub,
		DisplayName: name,
		Email:       info.Email,
		AvatarURL:   info.Picture,
	}, nil
}

// fetchUserInfo はアクセストークンでユーザー情報を取得する。
func (p *Auth0OAuthProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info auth0UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in user info response")
	}

	return &info, nil
}

func domainBaseURL(domain string) string {
	domain = strings.TrimRight(domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// compile-time interface check
var _ OAuthProvider = (*Auth0OAuthProvider)(nil)
