package notecodec

import "strings"

// NoteRemoval mô tả một yêu cầu gỡ sản phẩm khỏi sổ cái.
// RemoveAll = true nghĩa là xóa cả dòng bất kể số lượng;
// ngược lại giảm Quantity đơn vị, xóa dòng khi về 0.
type NoteRemoval struct {
	Code      string
	Quantity  int
	RemoveAll bool
}

// ProcessNoteForUpload merge danh sách sản phẩm mới vào ghi chú hiện tại của đơn hàng.
//
// Thứ tự xử lý:
//  1. Tách blob sentinel (nếu có) và giải mã. Nếu không có sentinel nhưng toàn bộ
//     ghi chú tự giải mã được thì coi là dữ liệu legacy (mã hóa không có sentinel,
//     không có văn bản thường bao quanh). Ngược lại toàn bộ là văn bản thường.
//  2. Nối các dòng sản phẩm mới vào sau nội dung đã giải mã.
//  3. Mã hóa lại và ghép: văn_bản_thường + "\n" + blob (bỏ nửa rỗng).
func (c *Codec) ProcessNoteForUpload(currentNote string, products []ProductLine) string {
	existing, plainText := c.decodeLedgerText(currentNote)

	combined := joinNonEmpty(existing, Serialize(products))
	encoded := c.EncodeFullNote(combined)

	return joinNonEmpty(plainText, encoded)
}

// ProcessNoteForRemoval gỡ các sản phẩm khỏi sổ cái trong ghi chú.
// Dòng match mã sản phẩm được giảm số lượng hoặc xóa hẳn; dòng không match
// và dòng không parse được giữ nguyên vị trí.
func (c *Codec) ProcessNoteForRemoval(currentNote string, removals []NoteRemoval) string {
	existing, plainText := c.decodeLedgerText(currentNote)

	if existing == "" {
		// Không có sổ cái để sửa - giữ nguyên ghi chú
		return currentNote
	}

	lines := strings.Split(existing, "\n")
	kept := make([]string, 0, len(lines))

	// Số lượng còn phải gỡ cho từng mã (một mã có thể xuất hiện nhiều yêu cầu)
	pendingQty := map[string]int{}
	removeAll := map[string]bool{}
	for _, removal := range removals {
		if removal.RemoveAll {
			removeAll[removal.Code] = true
			continue
		}
		qty := removal.Quantity
		if qty <= 0 {
			qty = 1
		}
		pendingQty[removal.Code] += qty
	}

	for _, line := range lines {
		parsed, ok := ParseLine(line)
		if !ok {
			// Dòng lạ/hỏng giữ nguyên
			kept = append(kept, line)
			continue
		}

		if removeAll[parsed.Code] {
			continue
		}

		if qty, exists := pendingQty[parsed.Code]; exists && qty > 0 {
			take := qty
			if take > parsed.Quantity {
				take = parsed.Quantity
			}
			pendingQty[parsed.Code] -= take
			parsed.Quantity -= take
			if parsed.Quantity <= 0 {
				continue
			}
			kept = append(kept, Serialize([]ProductLine{parsed}))
			continue
		}

		kept = append(kept, line)
	}

	encoded := c.EncodeFullNote(strings.Join(kept, "\n"))

	return joinNonEmpty(plainText, encoded)
}

// ExtractLedger giải mã sổ cái trong ghi chú và parse thành danh sách dòng sản phẩm.
// Dòng không parse được bị bỏ qua. Ghi chú không có sổ cái trả về nil.
func (c *Codec) ExtractLedger(rawNote string) []ProductLine {
	existing, _ := c.decodeLedgerText(rawNote)
	if existing == "" {
		return nil
	}

	var lines []ProductLine
	for _, line := range strings.Split(existing, "\n") {
		if parsed, ok := ParseLine(line); ok {
			lines = append(lines, parsed)
		}
	}
	return lines
}

// decodeLedgerText tách và giải mã phần sổ cái trong ghi chú thô.
// Ưu tiên blob sentinel; không có sentinel thì thử giải mã toàn bộ ghi chú
// (đường backward-compat cho blob trần). Trả về (nội_dung_sổ_cái, văn_bản_thường).
func (c *Codec) decodeLedgerText(currentNote string) (string, string) {
	comps := ExtractNoteComponents(currentNote)

	existing := ""
	plainText := comps.PlainText

	if comps.EncodedContent != "" {
		// Dữ liệu hỏng coi như không có - existing giữ rỗng
		existing, _ = c.DecodeFullNote(comps.EncodedContent)
	} else if trimmed := strings.TrimSpace(currentNote); trimmed != "" {
		if decoded, ok := c.DecodeFullNote(trimmed); ok {
			existing = decoded
			plainText = ""
		}
	}

	return existing, plainText
}

// joinNonEmpty nối hai nửa bằng newline, bỏ qua nửa rỗng
func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}
