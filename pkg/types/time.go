package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// jsTimeLayout 与 JavaScript Date.toJSON() 输出一致
const jsTimeLayout = "2006-01-02T15:04:05.000Z"

// Time 文档时间戳
//
// 序列化为毫秒精度的 UTC ISO-8601 字符串，例如 "2024-01-02T03:04:05.678Z"。
type Time struct {
	time.Time
}

// NewTime 包装 time.Time
func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON 实现 json.Marshaler
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(jsTimeLayout))
}

// UnmarshalJSON 实现 json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}
