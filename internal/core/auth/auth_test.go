package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/internal/core/securestore"
	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// passportServer 模拟归属服务器的 passport 接口
type passportServer struct {
	*httptest.Server
	hits    atomic.Int32
	status  atomic.Int32
	release chan struct{}
	lastAud atomic.Value
}

func newPassportServer(t *testing.T) *passportServer {
	t.Helper()
	ps := &passportServer{}
	ps.status.Store(http.StatusOK)
	ps.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		if ps.release != nil {
			<-ps.release
		}
		if r.URL.Path != "/api/v1/auth/passport" {
			http.NotFound(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get(HeaderAuthorization), "Bearer ")
		parsed, err := crypto.VerifyJWT(token, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ps.lastAud.Store(parsed.Claims.Audience)

		status := int(ps.status.Load())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "content": "passport-for-" + parsed.Claims.Issuer})
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *passportServer) host() string {
	return strings.TrimPrefix(ps.URL, "https://")
}

func testIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.GenerateIdentity()
	require.NoError(t, err)
	return id
}

// ============================================================================
// 令牌
// ============================================================================

func TestMasterKey_TokenReuseAndRefresh(t *testing.T) {
	id := testIdentity(t)
	mock := clock.NewMock()
	mock.Set(time.Now())

	p, err := NewMasterKeyProvider(id.PrivateKey, "home.example", WithClock(mock))
	require.NoError(t, err)

	first, err := p.AuthToken("remote.example")
	require.NoError(t, err)
	parsed, err := crypto.VerifyJWT(first, mock.Now())
	require.NoError(t, err)
	assert.Equal(t, "remote.example", parsed.Claims.Audience)
	assert.Equal(t, id.CCID, parsed.Claims.Issuer)
	assert.Equal(t, TokenSubject, parsed.Claims.Subject)
	assert.Empty(t, parsed.Header.KeyID)

	mock.Add(4*time.Minute + 29*time.Second)
	again, _ := p.AuthToken("remote.example")
	assert.Equal(t, first, again, "有效期内复用令牌")

	other, _ := p.AuthToken("other.example")
	assert.NotEqual(t, first, other, "每个服务器一个令牌")

	mock.Add(2 * time.Second)
	refreshed, _ := p.AuthToken("remote.example")
	assert.NotEqual(t, first, refreshed, "剩余有效期不足余量时重新签发")

	ccid, err := p.CCID()
	require.NoError(t, err)
	assert.Equal(t, id.CCID, ccid)
	assert.Empty(t, p.CKID())
	assert.Equal(t, "home.example", p.Host())
}

func TestMasterKey_SignAndIssue(t *testing.T) {
	id := testIdentity(t)
	p, err := NewMasterKeyProvider(id.PrivateKey, "home.example")
	require.NoError(t, err)

	sig, err := p.Sign([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, crypto.VerifySignature([]byte("payload"), sig, id.CCID))

	token, err := p.IssueJWT(crypto.Claims{Subject: "custom", Audience: "x"})
	require.NoError(t, err)
	parsed, err := crypto.VerifyJWT(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, id.CCID, parsed.Claims.Issuer)
	assert.Equal(t, "custom", parsed.Claims.Subject)
}

func TestNewMasterKeyProvider_Invalid(t *testing.T) {
	_, err := NewMasterKeyProvider("zz", "home.example")
	assert.ErrorIs(t, err, types.ErrInvalidIdentity)

	_, err = NewMasterKeyProvider(testIdentity(t).PrivateKey, "")
	assert.ErrorIs(t, err, ErrEmptyHost)
}

// ============================================================================
// passport
// ============================================================================

func TestPassport_SharedRequest(t *testing.T) {
	ps := newPassportServer(t)
	ps.release = make(chan struct{})
	id := testIdentity(t)

	p, err := NewMasterKeyProvider(id.PrivateKey, ps.host(), WithHTTPClient(ps.Client()))
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Passport(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return ps.hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(ps.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "passport-for-"+id.CCID, results[i])
	}
	assert.Equal(t, int32(1), ps.hits.Load())
	assert.Equal(t, ps.host(), ps.lastAud.Load())

	// 成功结果被缓存
	_, err = p.Passport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), ps.hits.Load())
}

func TestPassport_FailureRetries(t *testing.T) {
	ps := newPassportServer(t)
	ps.status.Store(http.StatusInternalServerError)

	p, err := NewMasterKeyProvider(testIdentity(t).PrivateKey, ps.host(), WithHTTPClient(ps.Client()))
	require.NoError(t, err)

	_, err = p.Passport(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)

	ps.status.Store(http.StatusForbidden)
	_, err = p.Passport(context.Background())
	assert.True(t, types.IsPermissionDenied(err))

	ps.status.Store(http.StatusOK)
	passport, err := p.Passport(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, passport)
	assert.Equal(t, int32(3), ps.hits.Load())
}

func TestPassport_CallerCancel(t *testing.T) {
	ps := newPassportServer(t)
	ps.release = make(chan struct{})
	defer close(ps.release)

	p, err := NewMasterKeyProvider(testIdentity(t).PrivateKey, ps.host(), WithHTTPClient(ps.Client()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Passport(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, types.IsTimeout(err), "got %v", err)
}

// TestPassport_PlainHTTP 按配置的协议访问归属服务器
func TestPassport_PlainHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/v1/auth/passport" || r.Header.Get(HeaderAuthorization) == "" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "content": "plain"})
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	p, err := NewMasterKeyProvider(testIdentity(t).PrivateKey, host,
		WithHTTPClient(srv.Client()), WithScheme("http"))
	require.NoError(t, err)

	headers, err := p.Headers(context.Background(), "remote.example")
	require.NoError(t, err)
	assert.Equal(t, "plain", headers[HeaderPassport])
	assert.Equal(t, int32(1), hits.Load())
}

// TestProvideAuth_Scheme 模块把请求协议传给 provider
func TestProvideAuth_Scheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "content": "from-module"})
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.Host = strings.TrimPrefix(srv.URL, "http://")
	cfg.Fetch.Scheme = "http"

	res, err := ProvideAuth(Params{
		Config:      cfg,
		Credentials: &Credentials{PrivateKey: testIdentity(t).PrivateKey},
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)

	passport, err := res.Provider.Passport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-module", passport)
}

func TestHeaders(t *testing.T) {
	ps := newPassportServer(t)
	id := testIdentity(t)

	p, err := NewMasterKeyProvider(id.PrivateKey, ps.host(), WithHTTPClient(ps.Client()))
	require.NoError(t, err)

	headers, err := p.Headers(context.Background(), "remote.example")
	require.NoError(t, err)
	assert.Equal(t, "passport-for-"+id.CCID, headers[HeaderPassport])

	token := strings.TrimPrefix(headers[HeaderAuthorization], "Bearer ")
	parsed, err := crypto.VerifyJWT(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "remote.example", parsed.Claims.Audience)
}

// ============================================================================
// 子密钥与访客
// ============================================================================

func TestSubKeyProvider(t *testing.T) {
	ps := newPassportServer(t)
	id := testIdentity(t)
	sk, err := identity.NewSubKey(id.CCID, ps.host(), "laptop")
	require.NoError(t, err)

	p, err := NewSubKeyProvider(sk.String(), WithHTTPClient(ps.Client()))
	require.NoError(t, err)

	ccid, _ := p.CCID()
	assert.Equal(t, id.CCID, ccid)
	assert.Equal(t, sk.CKID, p.CKID())
	assert.Equal(t, ps.host(), p.Host())

	token, err := p.AuthToken("remote.example")
	require.NoError(t, err)
	parsed, err := crypto.VerifyJWT(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, sk.CKID, parsed.Claims.Issuer)

	custom, err := p.IssueJWT(crypto.Claims{Subject: "custom"})
	require.NoError(t, err)
	parsed, err = crypto.VerifyJWT(custom, time.Now())
	require.NoError(t, err)
	assert.Equal(t, id.CCID, parsed.Claims.Issuer)
	assert.Equal(t, sk.CKID, parsed.Header.KeyID)

	passport, err := p.Passport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "passport-for-"+sk.CKID, passport)

	_, err = NewSubKeyProvider("not a subkey")
	assert.ErrorIs(t, err, types.ErrInvalidIdentity)
}

func TestGuestProvider(t *testing.T) {
	g := NewGuestProvider("home.example")

	headers, err := g.Headers(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, headers)
	assert.Equal(t, "home.example", g.Host())
	assert.Empty(t, g.CKID())

	_, err = g.CCID()
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	_, err = g.AuthToken("x")
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	_, err = g.Passport(context.Background())
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	_, err = g.Sign(nil)
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	_, err = g.IssueJWT(crypto.Claims{})
	assert.ErrorIs(t, err, types.ErrNotImplemented)
}

// ============================================================================
// 凭据
// ============================================================================

func TestNew_Selection(t *testing.T) {
	id := testIdentity(t)
	sk, err := identity.NewSubKey(id.CCID, "sub.example", "phone")
	require.NoError(t, err)

	p, err := New(Credentials{Host: "home.example"})
	require.NoError(t, err)
	assert.IsType(t, &GuestProvider{}, p)

	p, err = New(Credentials{Host: "home.example", Identity: id})
	require.NoError(t, err)
	assert.IsType(t, &MasterKeyProvider{}, p)

	p, err = New(Credentials{Host: "home.example", PrivateKey: id.PrivateKey, SubKey: sk.String()})
	require.NoError(t, err)
	assert.IsType(t, &SubKeyProvider{}, p)
	assert.Equal(t, "sub.example", p.Host())

	_, err = New(Credentials{Host: "home.example", PrivateKey: "bad"})
	assert.True(t, errors.Is(err, types.ErrInvalidIdentity))
}

func TestLoadCredentials(t *testing.T) {
	ctx := context.Background()
	store := identity.NewStore(securestore.NewMemory())

	creds, err := LoadCredentials(ctx, store, "fallback.example")
	require.NoError(t, err)
	assert.True(t, creds.Guest())
	assert.Equal(t, "fallback.example", creds.Host)

	id, _, err := store.LoadOrCreate(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SetHost(ctx, "home.example"))

	creds, err = LoadCredentials(ctx, store, "fallback.example")
	require.NoError(t, err)
	assert.Equal(t, id.CCID, creds.Identity.CCID)
	assert.Equal(t, "home.example", creds.Host)

	sk, err := identity.NewSubKey(id.CCID, "home.example", "cli")
	require.NoError(t, err)
	require.NoError(t, store.SaveSubKey(ctx, sk))

	creds, err = LoadCredentials(ctx, store, "")
	require.NoError(t, err)
	assert.Equal(t, sk.String(), creds.SubKey)
	assert.Nil(t, creds.Identity)
}
