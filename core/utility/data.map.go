package utility

import (
	"encoding/json"
	"fmt"
)

// ToMap chuyển đổi một struct bất kỳ thành map[string]interface{} thông qua JSON marshal/unmarshal.
// @params - struct cần chuyển đổi
// @returns - map và lỗi nếu có
func ToMap(data interface{}) (map[string]interface{}, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi chuyển đổi struct thành JSON: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("lỗi khi chuyển đổi JSON thành map: %v", err)
	}
	return result, nil
}

// MapToJSON chuyển đổi map thành chuỗi JSON
// @params - map cần chuyển đổi
// @returns - chuỗi JSON và lỗi nếu có
func MapToJSON(m map[string]interface{}) (string, error) {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("lỗi khi chuyển đổi map thành JSON: %v", err)
	}
	return string(jsonBytes), nil
}

// JSONToMap chuyển đổi chuỗi JSON thành map
// @params - chuỗi JSON cần chuyển đổi
// @returns - map và lỗi nếu có
func JSONToMap(jsonStr string) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := json.Unmarshal([]byte(jsonStr), &result)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi chuyển đổi JSON thành map: %v", err)
	}
	return result, nil
}

// DeepCopy sao chép sâu một giá trị bất kỳ thông qua JSON round-trip.
// Dùng cho snapshot trước khi thực hiện thao tác phá hủy (xóa link sau upload).
// @params - con trỏ đích và giá trị nguồn
// @returns - lỗi nếu có
func DeepCopy(dst interface{}, src interface{}) error {
	jsonBytes, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("lỗi khi marshal giá trị nguồn: %v", err)
	}
	if err := json.Unmarshal(jsonBytes, dst); err != nil {
		return fmt.Errorf("lỗi khi unmarshal vào giá trị đích: %v", err)
	}
	return nil
}
