package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// Commit 签名并提交文档
//
// 文档序列化一次，签名覆盖的正是发送的字节。domain 为空时发往默认服务器。
// 成功时返回服务器的确认响应。
func (r *Resolver) Commit(ctx context.Context, document any, domain string) (json.RawMessage, error) {
	if r.auth == nil {
		return nil, fmt.Errorf("commit: %w", types.ErrNotImplemented)
	}
	if v, ok := document.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	envelope, err := r.Seal(document)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	resp, err := r.engine.Do(ctx, fetch.Request{
		Method: http.MethodPost,
		Host:   domain,
		Path:   types.CommitPath,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		logger.Warn("提交文档失败", "domain", domain, "error", err)
		return nil, commitError(err)
	}

	logger.Info("文档已提交", "domain", domain, "ack", log.TruncateID(string(resp.Body), 128))
	return json.RawMessage(resp.Body), nil
}

// Seal 生成签名信封
func (r *Resolver) Seal(document any) (types.SignedDocument, error) {
	if r.auth == nil {
		return types.SignedDocument{}, fmt.Errorf("seal: %w", types.ErrNotImplemented)
	}
	raw, err := types.CanonicalJSON(document)
	if err != nil {
		return types.SignedDocument{}, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	sig, err := r.auth.Sign(raw)
	if err != nil {
		return types.SignedDocument{}, err
	}
	return types.SignedDocument{
		Document: string(raw),
		Proof: types.Proof{
			Type:      types.ProofTypeECRecoverDirect,
			Signature: sig,
			Key:       r.auth.CKID(),
		},
	}, nil
}

// commitError 离线错误原样返回，其余标记为提交失败
func commitError(err error) error {
	if types.IsServerOffline(err) {
		return err
	}
	var ferr *types.FetchError
	if errors.As(err, &ferr) && ferr.Status != 0 {
		return &types.FetchError{
			Kind:   types.ErrTransport,
			Host:   ferr.Host,
			Status: ferr.Status,
			Body:   ferr.Body,
			Err:    types.ErrCommitFailed,
		}
	}
	return fmt.Errorf("%w: %w", types.ErrCommitFailed, err)
}

// Affiliate 向 domain 声明归属
func (r *Resolver) Affiliate(ctx context.Context, domain string) (json.RawMessage, error) {
	if r.auth == nil {
		return nil, fmt.Errorf("affiliate: %w", types.ErrNotImplemented)
	}
	if domain == "" {
		domain = r.engine.DefaultHost()
	}
	ccid, err := r.auth.CCID()
	if err != nil {
		return nil, err
	}

	doc := types.Document[types.Affiliation]{
		Schema:    types.SchemaAffiliation,
		Value:     types.Affiliation{Domain: domain},
		Author:    ccid,
		CreatedAt: types.NewTime(r.clock.Now()),
	}
	return r.Commit(ctx, doc, domain)
}

// validator 可自检的文档
type validator interface {
	Validate() error
}
