package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// validator 可自检的文档类型
type validator interface {
	Validate() error
}

// Decode 将响应解码为 T，T 实现 Validate 时一并校验
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("%w: empty body", types.ErrInvalidDocument)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}

	var check validator
	switch x := any(&v).(type) {
	case validator:
		check = x
	default:
		if val, ok := any(v).(validator); ok {
			check = val
		}
	}
	if check != nil {
		if err := check.Validate(); err != nil {
			var zero T
			return zero, err
		}
	}
	return v, nil
}
