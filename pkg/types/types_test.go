package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddressPredicates 测试地址形状判定
func TestAddressPredicates(t *testing.T) {
	ccid := "con1" + strings.Repeat("q", 38)
	csid := "ccs1" + strings.Repeat("q", 38)
	ckid := "cck1" + strings.Repeat("q", 38)

	assert.True(t, IsCCID(ccid))
	assert.False(t, IsCCID(csid))
	assert.True(t, IsCSID(csid))
	assert.True(t, IsCKID(ckid))

	assert.False(t, IsCCID("con1short"), "长度不足")
	assert.False(t, IsCCID("con1"+strings.Repeat("q", 37)+"."), "含点号视为域名")
	assert.False(t, IsCSID("example.com"))
}

// TestTime_JSON 测试时间戳格式与 JavaScript 一致
func TestTime_JSON(t *testing.T) {
	ts := NewTime(time.Date(2024, 1, 2, 3, 4, 5, 678_900_000, time.FixedZone("JST", 9*3600)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01T18:04:05.678Z"`, string(data))

	var back Time
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(ts.Time))

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}

// TestCanonicalJSON 测试规范序列化不转义 HTML 且无换行
func TestCanonicalJSON(t *testing.T) {
	doc := Document[map[string]string]{
		Schema:    "https://schema.example/<x>.json",
		Value:     map[string]string{"body": "a&b"},
		Author:    "con1" + strings.Repeat("q", 38),
		CreatedAt: NewTime(time.Unix(0, 0)),
	}

	data, err := CanonicalJSON(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"schema":"https://schema.example/<x>.json","value":{"body":"a&b"},"author":"`+doc.Author+`","createdAt":"1970-01-01T00:00:00.000Z"}`,
		string(data))
}

// TestDocument_Validate 测试文档校验
func TestDocument_Validate(t *testing.T) {
	doc := Document[Affiliation]{Schema: SchemaAffiliation, Author: "con1" + strings.Repeat("q", 38)}
	assert.NoError(t, doc.Validate())

	doc.Author = "nobody"
	assert.ErrorIs(t, doc.Validate(), ErrInvalidDocument)

	assert.ErrorIs(t, Server{}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, Entity{CCID: "x"}.Validate(), ErrInvalidDocument)
}

// TestFetchError_Is 测试 FetchError 的错误匹配
func TestFetchError_Is(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewFetchError(ErrTransport, "example.com", cause)

	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrServerOffline))
	assert.Contains(t, err.Error(), "example.com")

	off := OfflineError("down.example")
	assert.True(t, IsServerOffline(off))
	assert.Equal(t, "down.example: server offline", off.Error())

	st := StatusError(ErrPermissionDenied, "h", 403, "nope")
	assert.True(t, IsPermissionDenied(st))
	assert.Contains(t, st.Error(), "status 403")

	assert.True(t, IsNotFound(ErrDomainNotFound))
}
