package asgsvc

import (
	"testing"

	"tpos_commerce/internal/tpos"
)

func variantNames(variants []tpos.Product) []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = variantDisplayName(v)
	}
	return names
}

func TestSortVariantsByNumber(t *testing.T) {
	variants := []tpos.Product{
		{Name: "Áo khoác (10)"},
		{Name: "Áo khoác (2)"},
		{Name: "Áo khoác (1)"},
	}
	SortVariants(variants)

	want := []string{"Áo khoác (1)", "Áo khoác (2)", "Áo khoác (10)"}
	for i, name := range variantNames(variants) {
		if name != want[i] {
			t.Errorf("vị trí %d: muốn %q, nhận %q", i, want[i], name)
		}
	}
}

func TestSortVariantsBySize(t *testing.T) {
	variants := []tpos.Product{
		{Name: "Váy - XXL"},
		{Name: "Váy - S"},
		{Name: "Váy - XL"},
		{Name: "Váy - M"},
		{Name: "Váy - L"},
	}
	SortVariants(variants)

	want := []string{"Váy - S", "Váy - M", "Váy - L", "Váy - XL", "Váy - XXL"}
	for i, name := range variantNames(variants) {
		if name != want[i] {
			t.Errorf("vị trí %d: muốn %q, nhận %q", i, want[i], name)
		}
	}
}

func TestSortVariantsBySizeInParentheses(t *testing.T) {
	variants := []tpos.Product{
		{Name: "Áo thun (M)"},
		{Name: "Áo thun (XL)"},
		{Name: "Áo thun (S)"},
		{Name: "Áo thun (L)"},
	}
	SortVariants(variants)

	want := []string{"Áo thun (S)", "Áo thun (M)", "Áo thun (L)", "Áo thun (XL)"}
	for i, name := range variantNames(variants) {
		if name != want[i] {
			t.Errorf("size trong ngoặc phải xếp theo thứ tự chuẩn, vị trí %d: muốn %q, nhận %q", i, want[i], name)
		}
	}
}

func TestSortVariantsMixedNumberAndParenthesizedSize(t *testing.T) {
	// Biến thể đánh số đứng trước biến thể đánh size
	variants := []tpos.Product{
		{Name: "Đầm (M)"},
		{Name: "Đầm (2)"},
		{Name: "Đầm (S)"},
		{Name: "Đầm (1)"},
	}
	SortVariants(variants)

	want := []string{"Đầm (1)", "Đầm (2)", "Đầm (S)", "Đầm (M)"}
	for i, name := range variantNames(variants) {
		if name != want[i] {
			t.Errorf("vị trí %d: muốn %q, nhận %q", i, want[i], name)
		}
	}
}

func TestSortVariantsNumberBeforeSize(t *testing.T) {
	// Biến thể có số trong ngoặc đứng trước biến thể chỉ có size
	variants := []tpos.Product{
		{Name: "Đầm - M"},
		{Name: "Đầm (3)"},
		{Name: "Đầm (1)"},
	}
	SortVariants(variants)

	want := []string{"Đầm (1)", "Đầm (3)", "Đầm - M"}
	for i, name := range variantNames(variants) {
		if name != want[i] {
			t.Errorf("vị trí %d: muốn %q, nhận %q", i, want[i], name)
		}
	}
}

func TestSortVariantsFallbackToName(t *testing.T) {
	variants := []tpos.Product{
		{Name: "Khăn choàng đỏ"},
		{Name: "Khăn choàng cam"},
	}
	SortVariants(variants)

	if variantDisplayName(variants[0]) != "Khăn choàng cam" {
		t.Errorf("không có khóa sắp xếp thì so theo tên: %v", variantNames(variants))
	}
}

func TestSortVariantsDeterministic(t *testing.T) {
	build := func() []tpos.Product {
		return []tpos.Product{
			{Name: "Set đồ - L"},
			{Name: "Set đồ (2)"},
			{Name: "Set đồ - S"},
			{Name: "Set đồ (1)"},
			{Name: "Set đồ khác"},
		}
	}

	first := build()
	SortVariants(first)
	for i := 0; i < 5; i++ {
		again := build()
		SortVariants(again)
		for j := range again {
			if variantDisplayName(again[j]) != variantDisplayName(first[j]) {
				t.Fatalf("sort không ổn định ở lần %d, vị trí %d", i, j)
			}
		}
	}
}
