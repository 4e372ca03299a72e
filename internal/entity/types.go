package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray 以 JSON 格式存储字符串切片。
type StringArray []string

// Value 实现 driver.Valuer 接口。
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*a = []string{}
			return nil
		}
		return json.Unmarshal(v, (*[]string)(a))
	case string:
		if v == "" {
			*a = []string{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*[]string)(a))
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}
}

// Contains 检查数组是否包含给定的字符串。
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// JSONMap 以 JSON 文本格式存储 map。
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer 接口。
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal(v, (*map[string]interface{})(m))
	case string:
		if v == "" {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*map[string]interface{})(m))
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
}

// Meta 包含分页元数据。
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"limit"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

// BaseParams 包含通用的分页和排序参数。
type BaseParams struct {
	Page     int64  `json:"page" form:"page"`
	PageSize int64  `json:"limit" form:"limit"`
	SortBy   string `json:"sortBy" form:"sortBy"`
	Order    string `json:"order" form:"order"`
}
