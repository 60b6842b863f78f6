package types

import (
	"bytes"
	"encoding/json"
)

// CanonicalJSON 生成待签名的文档字节
//
// 不转义 HTML 字符、不带尾部换行，与 JSON.stringify 的输出保持一致。
// 返回的字节即签名覆盖的内容，之后不应再次序列化。
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
