// Package notecodec mã hóa/giải mã sổ cái sản phẩm nhúng trong trường ghi chú tự do
// của đơn hàng TPOS. Nội dung được XOR với khóa dùng chung, encode base64 URL-safe
// và bọc trong sentinel ["..."] để phân biệt với văn bản do người dùng nhập.
package notecodec

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// sentinelRegex nhận diện blob đã mã hóa bên trong ghi chú: ["<base64url>"]
var sentinelRegex = regexp.MustCompile(`\["([A-Za-z0-9\-_]+)"\]`)

// lineRegex parse một dòng sổ cái dạng "<mã> - <số lượng> - <giá>".
// Mã sản phẩm có thể chứa " - " nên phần mã match greedy, số lượng và giá lấy từ cuối dòng.
var lineRegex = regexp.MustCompile(`^(.+) - (\d+) - ([\d.]+)$`)

// ProductLine là một dòng trong sổ cái: mã sản phẩm, số lượng và đơn giá.
type ProductLine struct {
	Code     string  // Mã sản phẩm (DefaultCode trên TPOS)
	Quantity int     // Số lượng
	Price    float64 // Đơn giá tại thời điểm upload
}

// NoteComponents là kết quả tách ghi chú thành phần văn bản thường và blob mã hóa.
type NoteComponents struct {
	PlainText      string // Văn bản do người dùng nhập, đã trim
	EncodedContent string // Blob sentinel nguyên vẹn (bao gồm ["..."]), rỗng nếu không có
}

// Codec giữ khóa XOR dùng chung. Khóa được cấu hình qua NOTE_SECRET_KEY.
type Codec struct {
	key []byte
}

// NewCodec tạo codec với khóa cho trước. Khóa rỗng sẽ dùng khóa mặc định
// để decode được dữ liệu cũ.
func NewCodec(key string) *Codec {
	if key == "" {
		key = "n2store"
	}
	return &Codec{key: []byte(key)}
}

// Serialize chuyển danh sách dòng sản phẩm thành văn bản sổ cái,
// mỗi dòng dạng "<mã> - <số lượng> - <giá>", nối bằng newline.
func Serialize(lines []ProductLine) string {
	if len(lines) == 0 {
		return ""
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s - %d - %s", line.Code, line.Quantity, formatPrice(line.Price)))
	}
	return strings.Join(parts, "\n")
}

// ParseLine parse một dòng sổ cái. Trả về false nếu dòng không đúng định dạng -
// dòng không parse được sẽ được giữ nguyên khi merge, không bị xóa.
func ParseLine(s string) (ProductLine, bool) {
	matches := lineRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return ProductLine{}, false
	}
	quantity, err := strconv.Atoi(matches[2])
	if err != nil {
		return ProductLine{}, false
	}
	price, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return ProductLine{}, false
	}
	return ProductLine{Code: matches[1], Quantity: quantity, Price: price}, true
}

// formatPrice format giá không thừa số 0 thập phân (100 thay vì 100.000000)
func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// EncodeFullNote mã hóa nội dung sổ cái thành blob sentinel ["<base64url>"].
// Nội dung rỗng trả về chuỗi rỗng (no-op).
func (c *Codec) EncodeFullNote(content string) string {
	if content == "" {
		return ""
	}
	encrypted := xorBytes([]byte(content), c.key)
	encoded := base64.RawURLEncoding.EncodeToString(encrypted)
	return `["` + encoded + `"]`
}

// DecodeFullNote giải mã một blob (có hoặc không có sentinel) về nội dung sổ cái.
// Trả về ("", false) với mọi input không giải mã được - không bao giờ trả lỗi,
// dữ liệu hỏng được coi như không tồn tại để không chặn pipeline upload.
func (c *Codec) DecodeFullNote(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	// Bóc sentinel nếu có
	if matches := sentinelRegex.FindStringSubmatch(s); matches != nil {
		s = matches[1]
	}

	// Chuẩn hóa về alphabet URL-safe không padding, chấp nhận blob legacy
	// encode bằng alphabet chuẩn có padding
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.TrimRight(s, "=")

	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}

	decrypted := xorBytes(decoded, c.key)
	if !utf8.Valid(decrypted) {
		return "", false
	}

	return string(decrypted), true
}

// ExtractNoteComponents tách ghi chú thô thành văn bản thường và blob mã hóa.
// Ghi chú chỉ chứa tối đa một blob sentinel; phần còn lại là văn bản của người dùng.
func ExtractNoteComponents(raw string) NoteComponents {
	if raw == "" {
		return NoteComponents{}
	}

	match := sentinelRegex.FindString(raw)
	if match == "" {
		return NoteComponents{PlainText: strings.TrimSpace(raw)}
	}

	plain := strings.Replace(raw, match, "", 1)
	return NoteComponents{
		PlainText:      strings.TrimSpace(plain),
		EncodedContent: match,
	}
}

// xorBytes XOR từng byte của data với khóa lặp vòng (key[i % len(key)])
func xorBytes(data []byte, key []byte) []byte {
	result := make([]byte, len(data))
	for i, b := range data {
		result[i] = b ^ key[i%len(key)]
	}
	return result
}
