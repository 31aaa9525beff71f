package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// StringArray 字符串数组类型，用于存储折扣适用类型等集合
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	raw, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*s = StringArray{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Contains 判断是否包含指定值
func (s StringArray) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// UintSet 可为空的 ID 集合，nil 表示不限制
type UintSet []uint

// Value 实现 driver.Valuer 接口
func (s UintSet) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	normalized := s.normalized()
	return json.Marshal(normalized)
}

// Scan 实现 sql.Scanner 接口
func (s *UintSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	raw, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*s = nil
		return nil
	}
	var items []uint
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*s = UintSet(items)
	return nil
}

// Has 判断集合是否包含指定 ID
func (s UintSet) Has(id uint) bool {
	for _, item := range s {
		if item == id {
			return true
		}
	}
	return false
}

func (s UintSet) normalized() []uint {
	seen := make(map[uint]struct{}, len(s))
	result := make([]uint, 0, len(s))
	for _, item := range s {
		if item == 0 {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// sqlite 驱动可能以 string 返回 JSON 列
func scanBytes(value interface{}) ([]byte, error) {
	switch typed := value.(type) {
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
