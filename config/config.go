package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	WechatPay WechatPayConfig `mapstructure:"wechat_pay"`
	Wechat    WechatConfig    `mapstructure:"wechat"`
	Points    PointsConfig    `mapstructure:"points"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// WechatPayConfig 微信支付 APIv3 商户参数
type WechatPayConfig struct {
	AppID          string `mapstructure:"app_id"`          // 公众号 / 小程序 AppID
	MchID          string `mapstructure:"mch_id"`          // 商户号（10位数字）
	APIv3Key       string `mapstructure:"api_v3_key"`      // APIv3 密钥（32字节）
	CertSerialNo   string `mapstructure:"cert_serial_no"`  // 商户 API 证书序列号
	PrivateKey     string `mapstructure:"private_key"`     // 商户私钥 PEM（多行用 \n 连接）
	NotifyBaseURL  string `mapstructure:"notify_base_url"` // 回调基础 URL
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 请求超时（秒）
}

// WechatConfig 微信网页扫码登录
type WechatConfig struct {
	AppID       string `mapstructure:"app_id"`
	AppSecret   string `mapstructure:"app_secret"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// PointsConfig 积分换算与扣费规则
type PointsConfig struct {
	PointsPerYuan       int `mapstructure:"points_per_yuan"`       // 1 元兑换积分数
	CreationCost        int `mapstructure:"creation_cost"`         // 整本创作消耗
	PageEditCost        int `mapstructure:"page_edit_cost"`        // 单页编辑消耗
	SignupBonus         int `mapstructure:"signup_bonus"`          // 注册赠送积分
	FreeCreationInitial int `mapstructure:"free_creation_initial"` // 注册赠送免费创作次数
}

type SMSConfig struct {
	CodeLength     int `mapstructure:"code_length"`
	CodeTTLSeconds int `mapstructure:"code_ttl_seconds"`
}

// OrdersConfig 订单后台清理参数
type OrdersConfig struct {
	PendingTimeoutMinutes int `mapstructure:"pending_timeout_minutes"` // 超过该时长未支付的订单关闭
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Points.PointsPerYuan == 0 {
		cfg.Points.PointsPerYuan = 3
	}
	if cfg.Points.CreationCost == 0 {
		cfg.Points.CreationCost = 10
	}
	if cfg.Points.PageEditCost == 0 {
		cfg.Points.PageEditCost = 1
	}
	if cfg.Points.FreeCreationInitial == 0 {
		cfg.Points.FreeCreationInitial = 1
	}
	if cfg.SMS.CodeLength == 0 {
		cfg.SMS.CodeLength = 6
	}
	if cfg.SMS.CodeTTLSeconds == 0 {
		cfg.SMS.CodeTTLSeconds = 300
	}
	if cfg.Orders.PendingTimeoutMinutes == 0 {
		cfg.Orders.PendingTimeoutMinutes = 120
	}
	if cfg.WechatPay.TimeoutSeconds == 0 {
		cfg.WechatPay.TimeoutSeconds = 15
	}
}
