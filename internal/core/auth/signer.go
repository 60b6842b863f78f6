package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
	"github.com/dep2p/go-concrnt/pkg/types"
)

var logger = log.Logger("core/auth")

// 请求头与令牌常量
const (
	HeaderAuthorization = "Authorization"
	HeaderPassport      = "passport"

	// TokenSubject 令牌 sub 的固定值
	TokenSubject = "concrnt"
)

// maxPassportBody passport 响应体上限
const maxPassportBody = 64 << 10

// keySigner 主密钥与子密钥共用的令牌与 passport 状态
type keySigner struct {
	key    *secp256k1.PrivateKey
	ccid   string
	ckid   string
	issuer string // API 令牌的 iss
	host   string
	opts   options

	tokenMu sync.Mutex
	tokens  *lru.Cache[string, string]

	passportGroup singleflight.Group
	passportMu    sync.RWMutex
	passport      string
}

func newKeySigner(key *secp256k1.PrivateKey, ccid, ckid, issuer, host string, opts options) (*keySigner, error) {
	tokens, err := lru.New[string, string](opts.cfg.TokenCacheSize)
	if err != nil {
		return nil, err
	}
	return &keySigner{
		key:    key,
		ccid:   ccid,
		ckid:   ckid,
		issuer: issuer,
		host:   host,
		opts:   opts,
		tokens: tokens,
	}, nil
}

// CCID 返回实体地址
func (s *keySigner) CCID() (string, error) {
	return s.ccid, nil
}

// CKID 返回子密钥地址
func (s *keySigner) CKID() string {
	return s.ckid
}

// Host 返回归属服务器
func (s *keySigner) Host() string {
	return s.host
}

// Sign 对 payload 签名
func (s *keySigner) Sign(payload []byte) (string, error) {
	return crypto.SignWithKey(s.key, payload), nil
}

// AuthToken 返回作用于 remote 的令牌，缓存的令牌即将过期时重新签发
func (s *keySigner) AuthToken(remote string) (string, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	now := s.opts.clock.Now()
	if token, ok := s.tokens.Get(remote); ok && crypto.CheckJWTIsValid(token, now, s.opts.cfg.RefreshMargin.Duration()) {
		return token, nil
	}

	token, err := crypto.IssueJWT(s.key, crypto.Claims{
		Audience: remote,
		Issuer:   s.issuer,
		Subject:  TokenSubject,
	}, crypto.JWTOptions{
		Now:      now,
		Lifetime: s.opts.cfg.TokenLifetime.Duration(),
	})
	if err != nil {
		return "", err
	}
	s.tokens.Add(remote, token)
	logger.Debug("签发令牌", "aud", remote, "iss", log.TruncateID(s.issuer, 12))
	return token, nil
}

// issueJWT 签发自定义声明，iss 缺省为 CCID
func (s *keySigner) issueJWT(claims crypto.Claims, keyID string) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = s.ccid
	}
	return crypto.IssueJWT(s.key, claims, crypto.JWTOptions{
		KeyID:    keyID,
		Now:      s.opts.clock.Now(),
		Lifetime: s.opts.cfg.TokenLifetime.Duration(),
	})
}

// Headers 返回访问 domain 的请求头
func (s *keySigner) Headers(ctx context.Context, domain string) (map[string]string, error) {
	passport, err := s.Passport(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.AuthToken(domain)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderAuthorization: "Bearer " + token,
		HeaderPassport:      passport,
	}, nil
}

// Passport 返回归属服务器签发的 passport
//
// 成功结果在实例内缓存；并发调用共享一次请求，失败会传给所有等待者，
// 下一次调用重新请求。
func (s *keySigner) Passport(ctx context.Context) (string, error) {
	s.passportMu.RLock()
	cached := s.passport
	s.passportMu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	ch := s.passportGroup.DoChan("passport", func() (interface{}, error) {
		s.passportMu.RLock()
		cached := s.passport
		s.passportMu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		// 共享请求不受单个调用方取消的影响
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.passportTimeout)
		defer cancel()

		passport, err := s.fetchPassport(fetchCtx)
		if err != nil {
			return "", err
		}
		s.passportMu.Lock()
		s.passport = passport
		s.passportMu.Unlock()
		return passport, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", types.WaitError(ctx, s.host)
	}
}

// fetchPassport 从归属服务器获取 passport
func (s *keySigner) fetchPassport(ctx context.Context) (string, error) {
	token, err := s.AuthToken(s.host)
	if err != nil {
		return "", err
	}

	url := s.opts.scheme + "://" + s.host + s.opts.cfg.PassportPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", types.NewFetchError(types.ErrTransport, s.host, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAuthorization, "Bearer "+token)

	resp, err := s.opts.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", types.NewFetchError(types.ErrTimeout, s.host, err)
		}
		return "", types.NewFetchError(types.ErrTransport, s.host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPassportBody))
	if err != nil {
		return "", types.NewFetchError(types.ErrTransport, s.host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.StatusError(statusKind(resp.StatusCode), s.host, resp.StatusCode, string(body))
	}

	var out types.APIResponse[string]
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: passport: %v", types.ErrInvalidDocument, err)
	}
	if out.Content == "" {
		return "", fmt.Errorf("%w: empty passport", types.ErrInvalidDocument)
	}
	logger.Debug("已获取 passport", "host", s.host)
	return out.Content, nil
}

// statusKind 将状态码映射为错误类别
func statusKind(status int) error {
	switch status {
	case http.StatusForbidden, http.StatusUnauthorized:
		return types.ErrPermissionDenied
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return types.ErrServerOffline
	default:
		return types.ErrTransport
	}
}
