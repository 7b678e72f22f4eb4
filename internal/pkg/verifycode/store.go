// Package verifycode 短信验证码存取。
//
// 验证码放在 Redis 并带 TTL，实例重启或多实例部署时仍然有效，
// 校验成功后立即删除，一码一用。
package verifycode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "sms_code:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
	length int
}

func NewStore(client *redis.Client, ttl time.Duration, length int) *Store {
	if length <= 0 {
		length = 6
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, ttl: ttl, length: length}
}

// Generate 为手机号生成并存储一个数字验证码，覆盖旧码并刷新 TTL
func (s *Store) Generate(ctx context.Context, phone string) (string, error) {
	code, err := randomDigits(s.length)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, keyPrefix+phone, code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

// Verify 校验验证码，成功后删除，防止重放
func (s *Store) Verify(ctx context.Context, phone, code string) (bool, error) {
	key := keyPrefix + phone

	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read code: %w", err)
	}

	if stored != code {
		return false, nil
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("failed to delete code: %w", err)
	}
	return true, nil
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
