package testutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// 请求计数键（资源请求以 URI 计数）
const (
	HitWellKnown = "well-known"
	HitCommit    = "commit"
	HitPassport  = "passport"
)

const (
	resourcePrefix = "/api/v1/resource/"
	entityPrefix   = "/api/v1/entity/"
)

// Domain 模拟的 Concrnt 服务器
//
// 提供服务描述、资源读取、实体查询、passport 与提交接口，
// 记录每类请求的次数，可强制指定某类请求的状态码。
type Domain struct {
	*httptest.Server

	// Host 服务器域名（127.0.0.1:port）
	Host string

	// CSID 服务器地址
	CSID string

	mu        sync.Mutex
	server    types.Server
	resources map[string][]byte
	entities  map[string]types.Entity
	statuses  map[string]int
	hits      map[string]int
	commits   []types.SignedDocument
	hold      chan struct{}
}

// NewDomain 启动模拟服务器，测试结束时自动关闭
func NewDomain(t *testing.T) *Domain {
	t.Helper()

	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	csid, err := crypto.ComputeCSID(key.PubKey())
	require.NoError(t, err)

	d := &Domain{
		CSID:      csid,
		resources: make(map[string][]byte),
		entities:  make(map[string]types.Entity),
		statuses:  make(map[string]int),
		hits:      make(map[string]int),
	}
	d.Server = httptest.NewTLSServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.Close)

	d.Host = strings.TrimPrefix(d.URL, "https://")
	d.server = types.Server{
		Version: "2.0.0",
		Domain:  d.Host,
		CSID:    csid,
		Layer:   "test",
		Endpoints: map[string]types.Endpoint{
			types.APIResource: {Template: ResourceTemplate, Method: http.MethodGet},
			APIEntity:         {Template: EntityTemplate, Method: http.MethodGet},
		},
	}
	d.setJSON("cc://"+csid, d.server)
	return d
}

// Client 返回信任所有给定服务器证书的 HTTP 客户端
func Client(domains ...*Domain) *http.Client {
	pool := x509.NewCertPool()
	for _, d := range domains {
		pool.AddCert(d.Certificate())
	}
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}
}

// ============================================================================
//                              数据设置
// ============================================================================

// Descriptor 返回当前服务描述
func (d *Domain) Descriptor() types.Server {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.server
}

// UpdateServer 修改服务描述
func (d *Domain) UpdateServer(fn func(*types.Server)) {
	d.mu.Lock()
	fn(&d.server)
	server := d.server
	d.mu.Unlock()
	d.setJSON("cc://"+d.CSID, server)
}

// SetResource 设置 uri 对应的资源
func (d *Domain) SetResource(uri string, v any) {
	d.setJSON(uri, v)
}

// RemoveResource 删除资源
func (d *Domain) RemoveResource(uri string) {
	d.mu.Lock()
	delete(d.resources, uri)
	d.mu.Unlock()
}

// AddEntity 登记实体，同时作为资源 cc://<ccid> 提供
func (d *Domain) AddEntity(entity types.Entity) {
	d.mu.Lock()
	d.entities[entity.CCID] = entity
	d.mu.Unlock()
	d.setJSON("cc://"+entity.CCID, entity)
}

func (d *Domain) setJSON(uri string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	d.mu.Lock()
	d.resources[uri] = data
	d.mu.Unlock()
}

// SetStatus 强制某类请求返回 status，0 表示恢复正常
func (d *Domain) SetStatus(hit string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if status == 0 {
		delete(d.statuses, hit)
		return
	}
	d.statuses[hit] = status
}

// Hold 挂起之后到达的请求，直到调用返回的 release
func (d *Domain) Hold() (release func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.hold = ch
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.hold = nil
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Hits 返回某类请求的次数
func (d *Domain) Hits(hit string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits[hit]
}

// Commits 返回收到的提交
func (d *Domain) Commits() []types.SignedDocument {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.SignedDocument, len(d.commits))
	copy(out, d.commits)
	return out
}

// ============================================================================
//                              请求处理
// ============================================================================

func (d *Domain) serve(w http.ResponseWriter, r *http.Request) {
	hit, handle := d.route(r)

	d.mu.Lock()
	d.hits[hit]++
	status, forced := d.statuses[hit]
	hold := d.hold
	d.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}
	if forced {
		http.Error(w, http.StatusText(status), status)
		return
	}
	handle(w, r)
}

func (d *Domain) route(r *http.Request) (string, http.HandlerFunc) {
	path := r.URL.EscapedPath()
	switch {
	case path == types.WellKnownPath:
		return HitWellKnown, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, d.Descriptor())
		}
	case path == types.CommitPath && r.Method == http.MethodPost:
		return HitCommit, d.handleCommit
	case path == PassportPath:
		return HitPassport, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, types.APIResponse[string]{Status: "ok", Content: TestPassport})
		}
	case strings.HasPrefix(path, resourcePrefix):
		uri, err := url.PathUnescape(strings.TrimPrefix(path, resourcePrefix))
		if err != nil {
			return path, badRequest(err)
		}
		return uri, func(w http.ResponseWriter, r *http.Request) {
			d.mu.Lock()
			data, ok := d.resources[uri]
			d.mu.Unlock()
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
		}
	case strings.HasPrefix(path, entityPrefix):
		ccid := strings.TrimPrefix(path, entityPrefix)
		return entityPrefix, func(w http.ResponseWriter, r *http.Request) {
			d.mu.Lock()
			entity, ok := d.entities[ccid]
			d.mu.Unlock()
			if !ok {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, types.APIResponse[types.Entity]{Status: "ok", Content: entity})
		}
	default:
		return path, http.NotFound
	}
}

func (d *Domain) handleCommit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(err)(w, r)
		return
	}
	var doc types.SignedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		badRequest(err)(w, r)
		return
	}
	if err := crypto.VerifyDocument(doc); err != nil {
		badRequest(err)(w, r)
		return
	}

	d.mu.Lock()
	d.commits = append(d.commits, doc)
	d.mu.Unlock()
	writeJSON(w, types.APIResponse[json.RawMessage]{Status: "ok", Content: json.RawMessage(doc.Document)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(err error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

// ============================================================================
//                              实体
// ============================================================================

// SignedEntity 构造归属于 domain 的实体记录，归属文档由 privHex 签名
func SignedEntity(t *testing.T, privHex, ccid, domain string) types.Entity {
	t.Helper()

	doc := types.Document[types.Affiliation]{
		Schema:    types.SchemaAffiliation,
		Value:     types.Affiliation{Domain: domain},
		Author:    ccid,
		CreatedAt: types.NewTime(time.Now()),
	}
	raw, err := types.CanonicalJSON(doc)
	require.NoError(t, err)
	sig, err := crypto.Sign(privHex, raw)
	require.NoError(t, err)

	return types.Entity{
		CCID:                 ccid,
		Domain:               domain,
		AffiliationDocument:  string(raw),
		AffiliationSignature: sig,
		CDate:                time.Now().UTC().Format(time.RFC3339),
	}
}
