package asgsvc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tpos_commerce/internal/tpos"
)

// variantNumberRegex bắt số trong ngoặc đơn ở tên biến thể, ví dụ "Áo thun (2)"
var variantNumberRegex = regexp.MustCompile(`\((\d+)\)`)

// variantSizeRegex bắt size trong ngoặc đơn, ví dụ "Áo thun (XL)"
var variantSizeRegex = regexp.MustCompile(`\(([A-Za-z]+)\)`)

// sizeOrder là thứ tự chuẩn của size quần áo khi tên biến thể kết thúc bằng size
var sizeOrder = map[string]int{
	"S":    1,
	"M":    2,
	"L":    3,
	"XL":   4,
	"XXL":  5,
	"XXXL": 6,
}

// SortVariants sắp xếp biến thể theo thứ tự hiển thị ổn định:
// ưu tiên số trong ngoặc tăng dần, rồi đến size chuẩn (S < M < L < XL...),
// biến thể có khóa sắp xếp đứng trước biến thể không có, cuối cùng so theo tên.
func SortVariants(variants []tpos.Product) {
	sort.SliceStable(variants, func(i, j int) bool {
		return compareVariants(variants[i], variants[j]) < 0
	})
}

func compareVariants(a, b tpos.Product) int {
	nameA := variantDisplayName(a)
	nameB := variantDisplayName(b)

	numA, hasNumA := extractVariantNumber(nameA)
	numB, hasNumB := extractVariantNumber(nameB)
	if hasNumA && hasNumB {
		if numA != numB {
			if numA < numB {
				return -1
			}
			return 1
		}
	} else if hasNumA != hasNumB {
		// Biến thể có số đứng trước biến thể không có
		if hasNumA {
			return -1
		}
		return 1
	}

	sizeA, hasSizeA := extractVariantSize(nameA)
	sizeB, hasSizeB := extractVariantSize(nameB)
	if hasSizeA && hasSizeB {
		if sizeA != sizeB {
			if sizeA < sizeB {
				return -1
			}
			return 1
		}
	} else if hasSizeA != hasSizeB {
		if hasSizeA {
			return -1
		}
		return 1
	}

	return strings.Compare(nameA, nameB)
}

func variantDisplayName(p tpos.Product) string {
	if p.NameGet != "" {
		return p.NameGet
	}
	return p.Name
}

func extractVariantNumber(name string) (int, bool) {
	match := variantNumberRegex.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractVariantSize lấy size từ token trong ngoặc đơn, ví dụ "Áo thun (S)";
// không có ngoặc thì thử token cuối của tên, ví dụ "Áo thun - XL"
func extractVariantSize(name string) (int, bool) {
	if match := variantSizeRegex.FindStringSubmatch(name); match != nil {
		if order, ok := sizeOrder[strings.ToUpper(match[1])]; ok {
			return order, true
		}
	}

	trimmed := strings.TrimSpace(name)
	idx := strings.LastIndexAny(trimmed, " -/")
	token := trimmed
	if idx >= 0 {
		token = trimmed[idx+1:]
	}
	order, ok := sizeOrder[strings.ToUpper(strings.TrimSpace(token))]
	return order, ok
}
