package ntfsvc

import (
	"strings"
	"testing"

	histmodels "tpos_commerce/internal/api/history/models"
	rcsvc "tpos_commerce/internal/api/reconcile/service"

	"github.com/stretchr/testify/assert"
)

func TestFormatBatchSummary(t *testing.T) {
	result := &rcsvc.BatchResult{
		BatchID:      "66cf0a1b2c3d4e5f60718293",
		Status:       histmodels.StatusPartial,
		SucceededStt: []string{"5"},
		Tickets: []histmodels.TicketOutcome{
			{
				Stt:     "5",
				Success: true,
				Products: []histmodels.ProductOutcome{
					{ProductCode: "SP100", Quantity: 2},
				},
			},
			{Stt: "12", ErrorMessage: "TPOS không phản hồi"},
		},
	}

	summary := formatBatchSummary(histmodels.KindUpload, result)
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")

	assert.Len(t, lines, 4, "Báo cáo phải có 1 dòng tổng quan, 1 dòng batch và 2 dòng vé")
	assert.Equal(t, "⚠️ upload sản phẩm: 1/2 vé thành công", lines[0], "Dòng tổng quan sai")
	assert.Contains(t, lines[1], result.BatchID, "Báo cáo phải chứa batch ID để tra lịch sử")
	assert.Equal(t, "✅ STT 5: 1 sản phẩm", lines[2], "Vé thành công phải liệt kê số sản phẩm")
	assert.Equal(t, "❌ STT 12: TPOS không phản hồi", lines[3], "Vé thất bại phải kèm thông báo lỗi")
}

func TestFormatBatchSummaryRemovalFailed(t *testing.T) {
	result := &rcsvc.BatchResult{
		BatchID: "66cf0a1b2c3d4e5f60718294",
		Status:  histmodels.StatusFailed,
		Tickets: []histmodels.TicketOutcome{
			{Stt: "7", ErrorMessage: "Không tìm thấy đơn hàng"},
		},
	}

	summary := formatBatchSummary(histmodels.KindRemoval, result)
	assert.True(t, strings.HasPrefix(summary, "❌ gỡ sản phẩm: 0/1 vé thành công"),
		"Batch gỡ thất bại toàn bộ phải mở đầu bằng ❌: %q", summary)
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "thành công", statusLabel(histmodels.StatusCompleted))
	assert.Equal(t, "thành công một phần", statusLabel(histmodels.StatusPartial))
	assert.Equal(t, "thất bại", statusLabel(histmodels.StatusFailed))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""), "Chuỗi rỗng phải trả về nil, không phải slice rỗng")
	assert.Equal(t, []string{"a@x.vn", "b@x.vn"}, splitList(" a@x.vn , b@x.vn ,"),
		"Phải cắt khoảng trắng và bỏ phần tử rỗng")
}
