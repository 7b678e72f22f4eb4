package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// 微信网页扫码授权端点。微信不走标准 client_id 参数，
// 授权 URL 用 oauth2.Config 拼装并覆盖 appid，换码接口手动请求。
var wechatEndpoint = oauth2.Endpoint{
	AuthURL:  "https://open.weixin.qq.com/connect/qrconnect",
	TokenURL: "https://api.weixin.qq.com/sns/oauth2/access_token",
}

// WechatUser 微信用户信息
type WechatUser struct {
	OpenID    string `json:"openid"`
	UnionID   string `json:"unionid"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"headimgurl"`
}

type wechatTokenResponse struct {
	AccessToken string `json:"access_token"`
	OpenID      string `json:"openid"`
	UnionID     string `json:"unionid"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

type WechatOAuth struct {
	config     *oauth2.Config
	appSecret  string
	httpClient *http.Client
}

func NewWechatOAuth(appID, appSecret, redirectURI string) *WechatOAuth {
	return &WechatOAuth{
		config: &oauth2.Config{
			ClientID:    appID,
			RedirectURL: redirectURI,
			Scopes:      []string{"snsapi_login"},
			Endpoint:    wechatEndpoint,
		},
		appSecret:  appSecret,
		httpClient: http.DefaultClient,
	}
}

// GetAuthURL 获取微信扫码授权 URL
func (w *WechatOAuth) GetAuthURL(state string) string {
	return w.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("appid", w.config.ClientID),
	) + "#wechat_redirect"
}

// ExchangeUser 用授权码换取 openid / unionid 及用户资料
func (w *WechatOAuth) ExchangeUser(ctx context.Context, code string) (*WechatUser, error) {
	params := url.Values{}
	params.Set("appid", w.config.ClientID)
	params.Set("secret", w.appSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")

	token, err := w.fetchToken(ctx, params)
	if err != nil {
		return nil, err
	}

	user, err := w.fetchUserInfo(ctx, token.AccessToken, token.OpenID)
	if err != nil {
		return nil, err
	}
	if user.UnionID == "" {
		user.UnionID = token.UnionID
	}
	return user, nil
}

func (w *WechatOAuth) fetchToken(ctx context.Context, params url.Values) (*wechatTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		w.config.Endpoint.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	defer resp.Body.Close()

	var token wechatTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.ErrCode != 0 {
		return nil, fmt.Errorf("wechat oauth error %d: %s", token.ErrCode, token.ErrMsg)
	}
	return &token, nil
}

func (w *WechatOAuth) fetchUserInfo(ctx context.Context, accessToken, openID string) (*WechatUser, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("openid", openID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.weixin.qq.com/sns/userinfo?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("wechat api error: %s", string(body))
	}

	var user WechatUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.OpenID == "" {
		user.OpenID = openID
	}
	return &user, nil
}
