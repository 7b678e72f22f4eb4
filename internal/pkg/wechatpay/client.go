// Package wechatpay 实现微信支付 APIv3 协议。
//
// 下单：H5（手机浏览器跳转）与 Native（PC 扫码）两种变体。
// 签名：RSA-SHA256（PKCS#1 v1.5），不依赖官方 SDK。
// 回调：AES-256-GCM 解密 resource 字段，认证失败即拒绝。
package wechatpay

import (
	"bytes"
	"context"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airchieve/airchieve_go_server/config"
)

const defaultBaseURL = "https://api.mch.weixin.qq.com"

const (
	pathH5     = "/v3/pay/transactions/h5"
	pathNative = "/v3/pay/transactions/native"
)

var (
	// ErrDecryptFailed 回调密文解密或认证失败，密文不可信
	ErrDecryptFailed = errors.New("回调数据解密失败")
	// ErrInvalidKey 商户密钥配置不合法
	ErrInvalidKey = errors.New("商户密钥配置不合法")
)

// ProviderError 微信支付返回的非 2xx 错误
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("微信支付请求失败 [%s] %s", e.Code, e.Message)
}

type Client struct {
	appID      string
	mchID      string
	apiV3Key   []byte
	serialNo   string
	privateKey *rsa.PrivateKey
	baseURL    string
	httpClient *http.Client
}

// NewClient 从商户配置创建客户端。私钥为 PEM 格式，
// 配置文件中多行用 \n 连接存储。
func NewClient(cfg *config.WechatPayConfig) (*Client, error) {
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	if len(cfg.APIv3Key) != 32 {
		return nil, fmt.Errorf("%w: APIv3 密钥必须为 32 字节", ErrInvalidKey)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		appID:      cfg.AppID,
		mchID:      cfg.MchID,
		apiV3Key:   []byte(cfg.APIv3Key),
		serialNo:   cfg.CertSerialNo,
		privateKey: key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func parsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	pemText = strings.ReplaceAll(pemText, `\n`, "\n")
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: 无法解析 PEM", ErrInvalidKey)
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: 私钥不是 RSA 类型", ErrInvalidKey)
		}
		return rsaKey, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: 私钥格式不支持", ErrInvalidKey)
}

// ---------------------------------------------------------------------------
// 签名 & 请求
// ---------------------------------------------------------------------------

// buildAuthHeader 构造 WECHATPAY2-SHA256-RSA2048 Authorization 头。
//
// 签名消息格式（每项末尾含 \n）：
//
//	HTTP方法\n
//	URL路径（含 ?query）\n
//	时间戳\n
//	随机串\n
//	请求体\n
//
// serial_no 用于微信定位验签公钥，本端不参与验证。
func (c *Client) buildAuthHeader(method, urlPath, body string) (string, error) {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n", method, urlPath, ts, nonce, body)
	digest := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPKCS1v15(rand.Reader, c.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	return fmt.Sprintf(
		`WECHATPAY2-SHA256-RSA2048 mchid="%s",nonce_str="%s",signature="%s",timestamp="%s",serial_no="%s"`,
		c.mchID, nonce, base64.StdEncoding.EncodeToString(sig), ts, c.serialNo,
	), nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	auth, err := c.buildAuthHeader(http.MethodPost, path, string(body))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AIrchieve/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wechat pay request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Code != "" {
			perr.Code = errBody.Code
			perr.Message = errBody.Message
		} else {
			perr.Code = fmt.Sprintf("%d", resp.StatusCode)
			perr.Message = "未知错误"
		}
		return perr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// 下单接口
// ---------------------------------------------------------------------------

type amount struct {
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

type h5Info struct {
	Type string `json:"type"`
}

type sceneInfo struct {
	PayerClientIP string `json:"payer_client_ip"`
	H5Info        h5Info `json:"h5_info"`
}

type h5Request struct {
	AppID       string    `json:"appid"`
	MchID       string    `json:"mchid"`
	Description string    `json:"description"`
	OutTradeNo  string    `json:"out_trade_no"`
	NotifyURL   string    `json:"notify_url"`
	Amount      amount    `json:"amount"`
	SceneInfo   sceneInfo `json:"scene_info"`
}

type nativeRequest struct {
	AppID       string `json:"appid"`
	MchID       string `json:"mchid"`
	Description string `json:"description"`
	OutTradeNo  string `json:"out_trade_no"`
	NotifyURL   string `json:"notify_url"`
	Amount      amount `json:"amount"`
}

// CreateH5Order H5 下单（手机浏览器），返回 h5_url 供前端跳转。
func (c *Client) CreateH5Order(ctx context.Context, orderNo string, amountFen int64, description, notifyURL, clientIP string) (string, error) {
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}
	payload := h5Request{
		AppID:       c.appID,
		MchID:       c.mchID,
		Description: description,
		OutTradeNo:  orderNo,
		NotifyURL:   notifyURL,
		Amount:      amount{Total: amountFen, Currency: "CNY"},
		SceneInfo: sceneInfo{
			PayerClientIP: clientIP,
			H5Info:        h5Info{Type: "Wap"},
		},
	}

	var out struct {
		H5URL string `json:"h5_url"`
	}
	if err := c.post(ctx, pathH5, payload, &out); err != nil {
		return "", err
	}
	return out.H5URL, nil
}

// CreateNativeOrder Native 下单（PC 扫码），返回 code_url
// （weixin://wxpay/... 格式），前端渲染成二维码。
func (c *Client) CreateNativeOrder(ctx context.Context, orderNo string, amountFen int64, description, notifyURL string) (string, error) {
	payload := nativeRequest{
		AppID:       c.appID,
		MchID:       c.mchID,
		Description: description,
		OutTradeNo:  orderNo,
		NotifyURL:   notifyURL,
		Amount:      amount{Total: amountFen, Currency: "CNY"},
	}

	var out struct {
		CodeURL string `json:"code_url"`
	}
	if err := c.post(ctx, pathNative, payload, &out); err != nil {
		return "", err
	}
	return out.CodeURL, nil
}

// ---------------------------------------------------------------------------
// 回调解密
// ---------------------------------------------------------------------------

// NotifyBody 微信回调请求体（只取 resource 字段）
type NotifyBody struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	ResourceType string         `json:"resource_type"`
	Resource     NotifyResource `json:"resource"`
}

// NotifyResource 回调中的加密数据块
type NotifyResource struct {
	Algorithm      string `json:"algorithm"`
	Ciphertext     string `json:"ciphertext"`
	AssociatedData string `json:"associated_data"`
	Nonce          string `json:"nonce"`
}

// NotifyResult 解密后的业务数据
type NotifyResult struct {
	OutTradeNo    string `json:"out_trade_no"`
	TransactionID string `json:"transaction_id"`
	TradeState    string `json:"trade_state"`
	TradeType     string `json:"trade_type"`
	Payer         struct {
		OpenID string `json:"openid"`
	} `json:"payer"`
}

// DecryptNotifyResource 解密回调 resource 字段（AEAD_AES_256_GCM）。
// GCM tag 校验失败返回 ErrDecryptFailed，绝不返回未认证的明文。
func (c *Client) DecryptNotifyResource(resource *NotifyResource) (*NotifyResult, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(resource.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext 不是合法 base64", ErrDecryptFailed)
	}

	block, err := aes.NewCipher(c.apiV3Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	nonce := []byte(resource.Nonce)
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce 长度不合法", ErrDecryptFailed)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(resource.AssociatedData))
	if err != nil {
		return nil, fmt.Errorf("%w: 认证失败", ErrDecryptFailed)
	}

	var result NotifyResult
	if err := json.Unmarshal(plaintext, &result); err != nil {
		return nil, fmt.Errorf("%w: 明文不是合法 JSON", ErrDecryptFailed)
	}
	return &result, nil
}
