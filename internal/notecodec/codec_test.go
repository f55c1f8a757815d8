package notecodec

import (
	"strings"
	"testing"
)

func newTestCodec() *Codec {
	return NewCodec("n2store")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec()

	lines := []ProductLine{
		{Code: "AO-THUN-01", Quantity: 2, Price: 150000},
		{Code: "QUAN-JEAN (M)", Quantity: 1, Price: 320000},
		{Code: "VAY - HOA", Quantity: 3, Price: 99.5},
	}
	serialized := Serialize(lines)

	encoded := c.EncodeFullNote(serialized)
	if encoded == "" {
		t.Fatal("EncodeFullNote trả về chuỗi rỗng với input không rỗng")
	}
	if !strings.HasPrefix(encoded, `["`) || !strings.HasSuffix(encoded, `"]`) {
		t.Errorf("blob thiếu sentinel: %q", encoded)
	}
	if strings.ContainsAny(encoded[2:len(encoded)-2], "+/=") {
		t.Errorf("blob phải dùng alphabet URL-safe không padding: %q", encoded)
	}

	decoded, ok := c.DecodeFullNote(encoded)
	if !ok {
		t.Fatal("DecodeFullNote không giải mã được blob vừa encode")
	}
	if decoded != serialized {
		t.Errorf("round-trip sai: muốn %q, nhận %q", serialized, decoded)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	c := newTestCodec()

	if got := c.EncodeFullNote(""); got != "" {
		t.Errorf("EncodeFullNote(\"\") phải trả về chuỗi rỗng, nhận %q", got)
	}
	if got := Serialize(nil); got != "" {
		t.Errorf("Serialize(nil) phải trả về chuỗi rỗng, nhận %q", got)
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	c := newTestCodec()

	cases := []string{
		"",
		"không phải base64 ***",
		`["!!!"]`,
		`["`,
	}
	for _, input := range cases {
		if decoded, ok := c.DecodeFullNote(input); ok {
			t.Errorf("DecodeFullNote(%q) phải fail, nhận %q", input, decoded)
		}
	}
}

func TestDecodeLegacyStandardAlphabet(t *testing.T) {
	c := newTestCodec()

	serialized := Serialize([]ProductLine{{Code: "SP01", Quantity: 5, Price: 10000}})
	encoded := c.EncodeFullNote(serialized)

	// Giả lập blob legacy: alphabet chuẩn + padding
	inner := encoded[2 : len(encoded)-2]
	legacy := strings.ReplaceAll(inner, "-", "+")
	legacy = strings.ReplaceAll(legacy, "_", "/")
	for len(legacy)%4 != 0 {
		legacy += "="
	}

	decoded, ok := c.DecodeFullNote(legacy)
	if !ok {
		t.Fatal("không giải mã được blob legacy alphabet chuẩn")
	}
	if decoded != serialized {
		t.Errorf("legacy decode sai: muốn %q, nhận %q", serialized, decoded)
	}
}

func TestExtractNoteComponents(t *testing.T) {
	c := newTestCodec()

	plainText := "Giao giờ hành chính\nGọi trước khi giao"
	encoded := c.EncodeFullNote(Serialize([]ProductLine{{Code: "SP01", Quantity: 1, Price: 5000}}))

	comps := ExtractNoteComponents(plainText + "\n" + encoded)
	if comps.PlainText != plainText {
		t.Errorf("plainText sai: muốn %q, nhận %q", plainText, comps.PlainText)
	}
	if comps.EncodedContent != encoded {
		t.Errorf("encodedContent sai: muốn %q, nhận %q", encoded, comps.EncodedContent)
	}
}

func TestExtractNoteComponentsPlainOnly(t *testing.T) {
	comps := ExtractNoteComponents("chỉ có văn bản thường")
	if comps.PlainText != "chỉ có văn bản thường" {
		t.Errorf("plainText sai: %q", comps.PlainText)
	}
	if comps.EncodedContent != "" {
		t.Errorf("encodedContent phải rỗng, nhận %q", comps.EncodedContent)
	}
}

func TestParseLine(t *testing.T) {
	line, ok := ParseLine("AO-THUN-01 - 2 - 150000")
	if !ok {
		t.Fatal("không parse được dòng hợp lệ")
	}
	if line.Code != "AO-THUN-01" || line.Quantity != 2 || line.Price != 150000 {
		t.Errorf("parse sai: %+v", line)
	}

	// Mã sản phẩm chứa " - " vẫn phải parse đúng nhờ match greedy
	line, ok = ParseLine("VAY - HOA - 3 - 99.5")
	if !ok {
		t.Fatal("không parse được dòng có mã chứa ' - '")
	}
	if line.Code != "VAY - HOA" || line.Quantity != 3 || line.Price != 99.5 {
		t.Errorf("parse sai với mã chứa ' - ': %+v", line)
	}

	if _, ok := ParseLine("dòng tự do của người dùng"); ok {
		t.Error("dòng tự do không được parse thành dòng sổ cái")
	}
}

func TestSerializePriceFormat(t *testing.T) {
	got := Serialize([]ProductLine{{Code: "SP", Quantity: 1, Price: 100}})
	if got != "SP - 1 - 100" {
		t.Errorf("giá nguyên không được có phần thập phân: %q", got)
	}

	got = Serialize([]ProductLine{{Code: "SP", Quantity: 1, Price: 100.25}})
	if got != "SP - 1 - 100.25" {
		t.Errorf("giá thập phân format sai: %q", got)
	}
}
