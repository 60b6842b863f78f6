package concrnt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/internal/core/securestore"
	"github.com/dep2p/go-concrnt/pkg/types"
	"github.com/dep2p/go-concrnt/tests/testutil"
)

func newClient(t *testing.T, d *testutil.Domain, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithHost(d.Host), WithHTTPClient(testutil.Client(d))}
	c, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ============================================================================
// 构造
// ============================================================================

func TestNew_Guest(t *testing.T) {
	d := testutil.NewDomain(t)
	c := newClient(t, d, WithGuest())

	assert.Empty(t, c.Address())
	assert.Equal(t, d.Host, c.Host())

	server, err := c.GetServer(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, d.CSID, server.CSID)

	_, err = c.Commit(context.Background(), map[string]string{"author": "x"}, "")
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = c.EnsureHomeTimeline(context.Background())
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestNew_SubKey(t *testing.T) {
	d := testutil.NewDomain(t)
	id, err := identity.GenerateIdentity()
	require.NoError(t, err)
	sk, err := identity.NewSubKey(id.CCID, d.Host, "laptop")
	require.NoError(t, err)

	c, err := New(context.Background(), WithSubKey(sk.String()), WithHTTPClient(testutil.Client(d)))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, d.Host, c.Host())
	assert.Equal(t, id.CCID, c.Address())
	assert.Equal(t, sk.CKID, c.Auth().CKID())
}

func TestNew_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, WithPrivateKey("zz"))
	assert.Error(t, err)

	_, err = New(ctx, WithConfig(nil))
	assert.Error(t, err)

	_, err = New(ctx, WithHost(""))
	assert.Error(t, err)

	cfg := config.NewConfig()
	cfg.Cache.Backend = "redis"
	_, err = New(ctx, WithConfig(cfg))
	assert.Error(t, err)
}

func TestNew_Metrics(t *testing.T) {
	d := testutil.NewDomain(t)
	reg := prometheus.NewRegistry()
	c := newClient(t, d, WithGuest(), WithMetricsRegisterer(reg))

	_, err := c.GetServer(context.Background(), "")
	require.NoError(t, err)

	n, err := promtest.GatherAndCount(reg, "concrnt_fetch_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotZero(t, c.BandwidthStats()[d.Host].TotalIn)
}

// ============================================================================
// 读写
// ============================================================================

func TestEnsureHomeTimeline(t *testing.T) {
	d := testutil.NewDomain(t)
	id, err := identity.GenerateIdentity()
	require.NoError(t, err)
	c := newClient(t, d, WithIdentity(id))
	ctx := context.Background()

	created, err := c.EnsureHomeTimeline(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	commits := d.Commits()
	require.Len(t, commits, 1)
	var doc types.Document[types.EmptyValue]
	require.NoError(t, json.Unmarshal([]byte(commits[0].Document), &doc))
	assert.Equal(t, types.HomeTimelineKey, doc.Key)
	assert.Equal(t, types.SchemaEmptyTimeline, doc.Schema)
	assert.Equal(t, types.ContentTypeChunkline, doc.ContentType)
	assert.Equal(t, id.CCID, doc.Author)

	// 服务器保存后不再创建
	uri := "cc://" + id.CCID + "/" + types.HomeTimelineKey
	d.SetResource(uri, doc)
	created, err = c.EnsureHomeTimeline(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, d.Commits(), 1)

	tl, err := GetResource[types.Document[types.EmptyValue]](ctx, c, uri, d.Host)
	require.NoError(t, err)
	require.NotNil(t, tl)
	assert.Equal(t, id.CCID, tl.Author)
}

func TestAffiliateAndEntity(t *testing.T) {
	d := testutil.NewDomain(t)
	id, err := identity.GenerateIdentity()
	require.NoError(t, err)
	c := newClient(t, d, WithPrivateKey(id.PrivateKey))
	ctx := context.Background()

	assert.Equal(t, id.CCID, c.Address())

	_, err = c.Affiliate(ctx, "")
	require.NoError(t, err)
	require.Len(t, d.Commits(), 1)

	d.AddEntity(testutil.SignedEntity(t, id.PrivateKey, id.CCID, d.Host))
	entity, err := c.GetEntity(ctx, id.CCID, "")
	require.NoError(t, err)
	assert.Equal(t, d.Host, entity.Domain)

	assert.True(t, c.ServerOnline(ctx, d.Host))
}

func TestPersistentCache(t *testing.T) {
	d := testutil.NewDomain(t)
	dir := t.TempDir()
	uri := "cc://" + d.Host + "/motd"
	d.SetResource(uri, map[string]string{"body": "hello"})
	ctx := context.Background()

	c, err := New(ctx, WithHost(d.Host), WithGuest(), WithDataDir(dir), WithHTTPClient(testutil.Client(d)))
	require.NoError(t, err)
	assert.Equal(t, config.CacheBackendBadger, c.Config().Cache.Backend)

	raw, err := c.GetResourceRaw(ctx, uri, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":"hello"}`, string(raw))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// 重新打开后从磁盘读取
	c, err = New(ctx, WithHost(d.Host), WithGuest(), WithDataDir(dir), WithHTTPClient(testutil.Client(d)))
	require.NoError(t, err)
	defer c.Close()

	raw, err = c.GetResourceRaw(ctx, uri, "", fetch.WithCacheMode(fetch.CacheForce))
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":"hello"}`, string(raw))
	assert.Equal(t, 1, d.Hits(uri))
	assert.Equal(t, 1, d.Hits(testutil.HitWellKnown))
}

// ============================================================================
// 会话
// ============================================================================

func TestBootstrap(t *testing.T) {
	d := testutil.NewDomain(t)
	store := securestore.NewMemory()
	ctx := context.Background()
	client := WithHTTPClient(testutil.Client(d))

	_, err := Bootstrap(ctx, store, "", client)
	assert.ErrorIs(t, err, ErrNoHost)

	c, err := Bootstrap(ctx, store, d.Host, client)
	require.NoError(t, err)
	first := c.Address()
	assert.NotEmpty(t, first)
	require.NoError(t, c.Close())

	// 服务器与身份都从存储恢复
	c, err = Bootstrap(ctx, store, "", client)
	require.NoError(t, err)
	assert.Equal(t, first, c.Address())
	assert.Equal(t, d.Host, c.Host())
	require.NoError(t, c.Close())

	require.NoError(t, Logout(ctx, store))
	c, err = Bootstrap(ctx, store, "", client)
	require.NoError(t, err)
	defer c.Close()
	assert.NotEqual(t, first, c.Address())
}

func TestBootstrap_SubKey(t *testing.T) {
	d := testutil.NewDomain(t)
	store := securestore.NewMemory()
	ctx := context.Background()

	owner, err := identity.GenerateIdentity()
	require.NoError(t, err)
	sk, err := identity.NewSubKey(owner.CCID, d.Host, "phone")
	require.NoError(t, err)
	require.NoError(t, identity.NewStore(store).SaveSubKey(ctx, sk))

	c, err := Bootstrap(ctx, store, d.Host, WithHTTPClient(testutil.Client(d)))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, owner.CCID, c.Address())
	_, ok, err := identity.NewStore(store).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionInfo(t *testing.T) {
	assert.Contains(t, VersionInfo(), Version)
}
