package notecodec

import (
	"strings"
	"testing"
)

func TestProcessNoteForUploadEmptyNote(t *testing.T) {
	c := newTestCodec()

	products := []ProductLine{{Code: "SP01", Quantity: 2, Price: 50000}}
	result := c.ProcessNoteForUpload("", products)

	decoded, ok := c.DecodeFullNote(result)
	if !ok {
		t.Fatal("kết quả upload không giải mã được")
	}
	if decoded != "SP01 - 2 - 50000" {
		t.Errorf("nội dung sổ cái sai: %q", decoded)
	}
}

func TestProcessNoteForUploadPreservesPlainText(t *testing.T) {
	c := newTestCodec()

	existing := []ProductLine{{Code: "SP01", Quantity: 1, Price: 10000}}
	plainText := "Khách hẹn giao chiều"
	currentNote := plainText + "\n" + c.EncodeFullNote(Serialize(existing))

	newProducts := []ProductLine{{Code: "SP02", Quantity: 3, Price: 25000}}
	result := c.ProcessNoteForUpload(currentNote, newProducts)

	// Văn bản thường phải được giữ nguyên làm prefix
	if !strings.HasPrefix(result, plainText) {
		t.Errorf("văn bản thường không được giữ làm prefix: %q", result)
	}

	comps := ExtractNoteComponents(result)
	if comps.PlainText != plainText {
		t.Errorf("plainText bị thay đổi: %q", comps.PlainText)
	}

	decoded, ok := c.DecodeFullNote(comps.EncodedContent)
	if !ok {
		t.Fatal("blob sau merge không giải mã được")
	}
	want := "SP01 - 1 - 10000\nSP02 - 3 - 25000"
	if decoded != want {
		t.Errorf("sổ cái sau merge sai: muốn %q, nhận %q", want, decoded)
	}
}

func TestProcessNoteForUploadLegacyEncodedNote(t *testing.T) {
	c := newTestCodec()

	// Ghi chú legacy: blob mã hóa trần, không có sentinel
	encoded := c.EncodeFullNote(Serialize([]ProductLine{{Code: "SP01", Quantity: 1, Price: 10000}}))
	legacyNote := encoded[2 : len(encoded)-2]

	result := c.ProcessNoteForUpload(legacyNote, []ProductLine{{Code: "SP02", Quantity: 2, Price: 20000}})

	comps := ExtractNoteComponents(result)
	if comps.PlainText != "" {
		t.Errorf("ghi chú legacy không có văn bản thường, nhận %q", comps.PlainText)
	}

	decoded, ok := c.DecodeFullNote(comps.EncodedContent)
	if !ok {
		t.Fatal("blob sau merge legacy không giải mã được")
	}
	want := "SP01 - 1 - 10000\nSP02 - 2 - 20000"
	if decoded != want {
		t.Errorf("merge legacy sai: muốn %q, nhận %q", want, decoded)
	}
}

func TestProcessNoteForUploadPlainTextOnlyNote(t *testing.T) {
	c := newTestCodec()

	result := c.ProcessNoteForUpload("giao buổi sáng", []ProductLine{{Code: "SP01", Quantity: 1, Price: 1000}})

	comps := ExtractNoteComponents(result)
	if comps.PlainText != "giao buổi sáng" {
		t.Errorf("văn bản thường bị mất: %q", comps.PlainText)
	}
	decoded, ok := c.DecodeFullNote(comps.EncodedContent)
	if !ok || decoded != "SP01 - 1 - 1000" {
		t.Errorf("sổ cái mới sai: %q (ok=%v)", decoded, ok)
	}
}

func TestProcessNoteForUploadAllEmpty(t *testing.T) {
	c := newTestCodec()
	if got := c.ProcessNoteForUpload("", nil); got != "" {
		t.Errorf("ghi chú rỗng + không sản phẩm phải trả về rỗng, nhận %q", got)
	}
}

func TestProcessNoteForRemovalDecrement(t *testing.T) {
	c := newTestCodec()

	note := c.EncodeFullNote(Serialize([]ProductLine{
		{Code: "SP01", Quantity: 3, Price: 10000},
		{Code: "SP02", Quantity: 1, Price: 20000},
	}))

	// Giảm 1 đơn vị SP01: còn 2, dòng được giữ
	result := c.ProcessNoteForRemoval(note, []NoteRemoval{{Code: "SP01", Quantity: 1}})
	decoded, ok := c.DecodeFullNote(result)
	if !ok {
		t.Fatal("kết quả removal không giải mã được")
	}
	want := "SP01 - 2 - 10000\nSP02 - 1 - 20000"
	if decoded != want {
		t.Errorf("decrement sai: muốn %q, nhận %q", want, decoded)
	}
}

func TestProcessNoteForRemovalDropLineAtZero(t *testing.T) {
	c := newTestCodec()

	note := c.EncodeFullNote(Serialize([]ProductLine{
		{Code: "SP01", Quantity: 1, Price: 10000},
		{Code: "SP02", Quantity: 2, Price: 20000},
	}))

	result := c.ProcessNoteForRemoval(note, []NoteRemoval{{Code: "SP01", Quantity: 1}})
	decoded, ok := c.DecodeFullNote(result)
	if !ok {
		t.Fatal("kết quả removal không giải mã được")
	}
	if decoded != "SP02 - 2 - 20000" {
		t.Errorf("dòng về 0 phải bị xóa: %q", decoded)
	}
}

func TestProcessNoteForRemovalRemoveAll(t *testing.T) {
	c := newTestCodec()

	note := c.EncodeFullNote(Serialize([]ProductLine{
		{Code: "SP01", Quantity: 5, Price: 10000},
		{Code: "SP02", Quantity: 2, Price: 20000},
	}))

	result := c.ProcessNoteForRemoval(note, []NoteRemoval{{Code: "SP01", RemoveAll: true}})
	decoded, ok := c.DecodeFullNote(result)
	if !ok {
		t.Fatal("kết quả removal không giải mã được")
	}
	if decoded != "SP02 - 2 - 20000" {
		t.Errorf("RemoveAll phải xóa cả dòng bất kể số lượng: %q", decoded)
	}
}

func TestProcessNoteForRemovalKeepsUnparseableLines(t *testing.T) {
	c := newTestCodec()

	// Sổ cái chứa một dòng tự do không đúng định dạng
	content := "SP01 - 2 - 10000\ndòng ghi chú lạ\nSP02 - 1 - 20000"
	note := c.EncodeFullNote(content)

	result := c.ProcessNoteForRemoval(note, []NoteRemoval{{Code: "SP02", Quantity: 1}})
	decoded, ok := c.DecodeFullNote(result)
	if !ok {
		t.Fatal("kết quả removal không giải mã được")
	}
	want := "SP01 - 2 - 10000\ndòng ghi chú lạ"
	if decoded != want {
		t.Errorf("dòng không parse được phải giữ nguyên: muốn %q, nhận %q", want, decoded)
	}
}

func TestProcessNoteForRemovalPreservesPlainText(t *testing.T) {
	c := newTestCodec()

	plainText := "Đơn gấp"
	note := plainText + "\n" + c.EncodeFullNote("SP01 - 2 - 10000")

	result := c.ProcessNoteForRemoval(note, []NoteRemoval{{Code: "SP01", Quantity: 1}})
	comps := ExtractNoteComponents(result)
	if comps.PlainText != plainText {
		t.Errorf("văn bản thường bị mất sau removal: %q", comps.PlainText)
	}
	decoded, _ := c.DecodeFullNote(comps.EncodedContent)
	if decoded != "SP01 - 1 - 10000" {
		t.Errorf("sổ cái sau removal sai: %q", decoded)
	}
}

func TestProcessNoteForRemovalNoLedger(t *testing.T) {
	c := newTestCodec()

	// Không có sổ cái: ghi chú giữ nguyên
	if got := c.ProcessNoteForRemoval("chỉ là ghi chú", []NoteRemoval{{Code: "SP01", Quantity: 1}}); got != "chỉ là ghi chú" {
		t.Errorf("ghi chú không có sổ cái phải giữ nguyên, nhận %q", got)
	}
}
