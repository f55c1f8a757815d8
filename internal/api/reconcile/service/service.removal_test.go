package rcsvc

import (
	"context"
	"testing"

	"tpos_commerce/core/common"
	histmodels "tpos_commerce/internal/api/history/models"
	rmvmodels "tpos_commerce/internal/api/removal/models"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"
)

func newRemovalFixture() (*fakeTposClient, *fakeHistory, *RemovalService, *notecodec.Codec) {
	codec := notecodec.NewCodec("test-key")

	lineA := int64(701)
	lineB := int64(702)
	client := &fakeTposClient{
		orders: map[int64]*tpos.Order{
			9905: {
				Id:           9905,
				SessionIndex: "5",
				Name:         "Anh Tuấn",
				Note: codec.EncodeFullNote(notecodec.Serialize([]notecodec.ProductLine{
					{Code: "SP100", Quantity: 3, Price: 50000},
					{Code: "SP200", Quantity: 1, Price: 80000},
				})),
				TotalQuantity: 4,
				TotalAmount:   230000,
				Details: []tpos.OrderLine{
					{Id: &lineA, ProductId: 100, ProductCode: "SP100", Quantity: 3, Price: 50000},
					{Id: &lineB, ProductId: 200, ProductCode: "SP200", Quantity: 1, Price: 80000},
				},
			},
		},
		failOrders: map[int64]error{},
	}
	history := &fakeHistory{}
	return client, history, NewRemovalService(client, codec, history), codec
}

func removalBatch(stt string, orderID int64, items ...rmvmodels.RemovalItem) rmvmodels.RemovalBatch {
	return rmvmodels.RemovalBatch{
		Stt:       stt,
		OrderInfo: tpos.OrderSummary{Stt: stt, OrderID: orderID},
		Items:     items,
	}
}

func removable() rmvmodels.CurrentProductDetails {
	return rmvmodels.CurrentProductDetails{CanRemove: true}
}

func TestRemovalDecrementsLineAndLedger(t *testing.T) {
	client, _, remover, codec := newRemovalFixture()

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP100", Quantity: 1, Details: removable()}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}
	if result.Status != histmodels.StatusCompleted {
		t.Errorf("batch phải completed: %s", result.Status)
	}

	// Hành động giảm số lượng được ghi lại kèm from/to
	product := result.Tickets[0].Products[0]
	if product.Action != histmodels.ActionDecreased {
		t.Errorf("giảm số lượng phải mang action decreased: %q", product.Action)
	}
	if product.FromQuantity != 3 || product.ToQuantity != 2 {
		t.Errorf("from/to phải ghi 3→2: from=%d to=%d", product.FromQuantity, product.ToQuantity)
	}

	order := client.updated[0]
	if len(order.Details) != 2 {
		t.Fatalf("cả 2 line phải còn lại: %+v", order.Details)
	}
	if order.Details[0].Quantity != 2 {
		t.Errorf("line SP100 phải giảm còn 2: %d", order.Details[0].Quantity)
	}
	if order.TotalQuantity != 3 {
		t.Errorf("TotalQuantity phải tính lại: %d", order.TotalQuantity)
	}
	if order.TotalAmount != 0 {
		t.Errorf("TotalAmount phải reset về 0 sau khi gỡ: %v", order.TotalAmount)
	}

	decoded, _ := codec.DecodeFullNote(order.Note)
	want := "SP100 - 2 - 50000\nSP200 - 1 - 80000"
	if decoded != want {
		t.Errorf("sổ cái sau gỡ sai: muốn %q, nhận %q", want, decoded)
	}
}

func TestRemovalDeletesLineAtZero(t *testing.T) {
	client, _, remover, codec := newRemovalFixture()

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP200", Quantity: 1, Details: removable()}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	product := result.Tickets[0].Products[0]
	if product.Action != histmodels.ActionRemoved || product.FromQuantity != 1 || product.ToQuantity != 0 {
		t.Errorf("gỡ hết số lượng phải mang action removed 1→0: %+v", product)
	}

	order := client.updated[0]
	if len(order.Details) != 1 || order.Details[0].ProductCode != "SP100" {
		t.Errorf("line về 0 phải bị xóa khỏi Details: %+v", order.Details)
	}

	decoded, _ := codec.DecodeFullNote(order.Note)
	if decoded != "SP100 - 3 - 50000" {
		t.Errorf("dòng sổ cái về 0 phải bị xóa: %q", decoded)
	}
}

func TestRemovalRemoveAllIgnoresQuantity(t *testing.T) {
	client, _, remover, _ := newRemovalFixture()

	_, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP100", Quantity: 1, RemoveAll: true, Details: removable()}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	order := client.updated[0]
	if len(order.Details) != 1 || order.Details[0].ProductCode != "SP200" {
		t.Errorf("removeAll phải xóa hẳn line bất kể số lượng: %+v", order.Details)
	}
}

func TestRemovalMatchesLineByProductID(t *testing.T) {
	client, _, remover, _ := newRemovalFixture()

	// Mã trên line-item lệch với mã trong sổ cái: định vị theo id sản phẩm
	client.orders[9905].Details[0].ProductCode = "SP100-CU"

	_, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{
			Stt: "5", ProductID: 100, ProductCode: "SP100", Quantity: 1, Details: removable(),
		}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	if len(client.updated) != 1 {
		t.Fatal("vé định vị được line theo id sản phẩm phải PUT")
	}
	order := client.updated[0]
	if order.Details[0].Quantity != 2 {
		t.Errorf("line phải định vị theo id sản phẩm dù mã lệch, giảm còn 2: %+v", order.Details[0])
	}
}

func TestRemovalSkipsItemsWithReason(t *testing.T) {
	client, _, remover, _ := newRemovalFixture()

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905,
			rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP100", Quantity: 1, Details: removable()},
			rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP300", Quantity: 1,
				Details: rmvmodels.CurrentProductDetails{CanRemove: false, Reason: "Sản phẩm không có trong sổ cái"}},
			rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP999", Quantity: 1, Details: removable()}, // Không còn trên đơn
		),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	// Vé vẫn thành công: sản phẩm không gỡ được bị bỏ qua kèm lý do,
	// không làm hỏng các sản phẩm còn lại
	outcome := result.Tickets[0]
	if !outcome.Success {
		t.Fatalf("vé còn sản phẩm gỡ được phải thành công: %+v", outcome)
	}
	if len(outcome.Products) != 3 {
		t.Fatalf("mỗi yêu cầu gỡ phải có một bản ghi kết quả: %+v", outcome.Products)
	}
	if outcome.Products[1].Action != histmodels.ActionSkipped || outcome.Products[1].SkipReason != "Sản phẩm không có trong sổ cái" {
		t.Errorf("sản phẩm không gỡ được phải skipped kèm lý do: %+v", outcome.Products[1])
	}
	if outcome.Products[2].Action != histmodels.ActionSkipped || outcome.Products[2].SkipReason == "" {
		t.Errorf("sản phẩm không còn trên đơn phải skipped kèm lý do: %+v", outcome.Products[2])
	}
	if len(client.updated) != 1 {
		t.Errorf("chỉ PUT đúng 1 lần cho vé: %d", len(client.updated))
	}
}

func TestRemovalNothingToRemoveFailsWithoutPut(t *testing.T) {
	client, _, remover, _ := newRemovalFixture()

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905,
			rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP300", Quantity: 1,
				Details: rmvmodels.CurrentProductDetails{CanRemove: false, Reason: "Sản phẩm không có trong sổ cái"}},
			rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP999", Quantity: 1, Details: removable()},
		),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	// Toàn bộ yêu cầu đều bị bỏ qua: vé thất bại, không đụng vào đơn
	if result.Status != histmodels.StatusFailed {
		t.Errorf("vé không gỡ được gì phải thất bại: %s", result.Status)
	}
	if result.Tickets[0].ErrorMessage == "" {
		t.Error("vé không gỡ được gì phải có thông báo lỗi")
	}
	if len(client.updated) != 0 {
		t.Error("vé không gỡ được gì không được PUT")
	}
}

func TestRemovalOutcomeCarriesExistingProducts(t *testing.T) {
	_, _, remover, _ := newRemovalFixture()

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP100", Quantity: 1, Details: removable()}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	// Snapshot line-items TRƯỚC khi gỡ, số lượng chưa bị trừ
	got := result.Tickets[0].ExistingProducts
	if len(got) != 2 {
		t.Fatalf("existingProducts phải đủ line-items trước khi gỡ: %+v", got)
	}
	if got[0].ProductId != 100 || got[0].Quantity != 3 {
		t.Errorf("existingProducts phải giữ số lượng trước khi gỡ: %+v", got[0])
	}
}

func TestRemovalFailedPutRecordsOutcome(t *testing.T) {
	client, history, remover, _ := newRemovalFixture()
	client.failOrders[9905] = common.ErrTposUnavailable

	result, err := remover.ProcessBatch(context.Background(), []rmvmodels.RemovalBatch{
		removalBatch("5", 9905, rmvmodels.RemovalItem{Stt: "5", ProductCode: "SP100", Quantity: 1, Details: removable()}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}
	if result.Status != histmodels.StatusFailed {
		t.Errorf("PUT lỗi phải cho batch failed: %s", result.Status)
	}
	if len(history.records) != 1 || history.records[0].Kind != histmodels.KindRemoval {
		t.Errorf("lịch sử batch gỡ phải được ghi: %+v", history.records)
	}
}
