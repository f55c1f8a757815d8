package rcsvc

import (
	"context"
	"testing"

	"tpos_commerce/core/common"
	asgmodels "tpos_commerce/internal/api/assignment/models"
	histmodels "tpos_commerce/internal/api/history/models"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"
)

type fakeTposClient struct {
	orders     map[int64]*tpos.Order
	products   map[int64]*tpos.Product
	updated    []*tpos.Order
	failOrders map[int64]error // Lỗi giả lập khi PUT các đơn này
}

func (f *fakeTposClient) GetOrderByID(ctx context.Context, orderID int64) (*tpos.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, common.ErrTposOrderNotFound
	}
	copied := *o
	copied.Details = make([]tpos.OrderLine, len(o.Details))
	copy(copied.Details, o.Details)
	return &copied, nil
}

func (f *fakeTposClient) GetOrderBySTT(ctx context.Context, stt string) (*tpos.Order, error) {
	for _, o := range f.orders {
		if o.SessionIndex == stt {
			return f.GetOrderByID(ctx, o.Id)
		}
	}
	return nil, common.ErrTposOrderNotFound
}

func (f *fakeTposClient) GetProductByID(ctx context.Context, productID int64) (*tpos.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, common.ErrTposProductNotFound
	}
	return p, nil
}

func (f *fakeTposClient) UpdateOrder(ctx context.Context, order *tpos.Order) error {
	if err, fail := f.failOrders[order.Id]; fail {
		return err
	}
	f.updated = append(f.updated, order)
	return nil
}

type fakeHistory struct {
	records []histmodels.HistoryRecord
}

func (f *fakeHistory) Append(ctx context.Context, record histmodels.HistoryRecord) (histmodels.HistoryRecord, error) {
	f.records = append(f.records, record)
	return record, nil
}

func price(v float64) *float64 { return &v }

func newUploadFixture() (*fakeTposClient, *fakeHistory, *UploadService, *notecodec.Codec) {
	codec := notecodec.NewCodec("test-key")
	client := &fakeTposClient{
		orders: map[int64]*tpos.Order{
			9905: {Id: 9905, SessionIndex: "5", Name: "Anh Tuấn"},
			9912: {Id: 9912, SessionIndex: "12", Name: "Chị Lan"},
			9920: {Id: 9920, SessionIndex: "20", Name: "Cô Hoa"},
		},
		products: map[int64]*tpos.Product{
			100: {Id: 100, Name: "Áo thun", DefaultCode: "SP100", PriceVariant: price(50000), StandardPrice: price(20000)},
			200: {Id: 200, Name: "Váy hoa", DefaultCode: "SP200", ListPrice: price(80000)},
			300: {Id: 300, Name: "Khăn lụa", DefaultCode: "SP300", StandardPrice: price(15000)}, // Không có giá bán
		},
		failOrders: map[int64]error{},
	}
	history := &fakeHistory{}
	return client, history, NewUploadService(client, client, codec, history, "live"), codec
}

func session(stt string, orderID int64, products ...asgmodels.SessionProduct) asgmodels.UploadSession {
	return asgmodels.UploadSession{
		Stt:       stt,
		OrderInfo: tpos.OrderSummary{Stt: stt, OrderID: orderID},
		Products:  products,
	}
}

func TestProcessBatchNewProduct(t *testing.T) {
	client, _, uploader, codec := newUploadFixture()

	result, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductName: "Áo thun", ProductCode: "SP100", Quantity: 2}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}
	if result.Status != histmodels.StatusCompleted {
		t.Errorf("batch 1 vé thành công phải completed: %s", result.Status)
	}

	if len(client.updated) != 1 {
		t.Fatalf("phải có đúng 1 lần PUT, nhận %d", len(client.updated))
	}
	order := client.updated[0]

	if len(order.Details) != 1 {
		t.Fatalf("đơn phải có 1 line mới: %+v", order.Details)
	}
	line := order.Details[0]
	if line.ProductId != 100 || line.Quantity != 2 || line.Price != 50000 {
		t.Errorf("line mới sai: %+v", line)
	}
	if line.Id != nil {
		t.Error("line mới chưa có Id phía server, phải để nil")
	}
	if line.OrderId != 9905 {
		t.Errorf("line phải trỏ về OrderId của đơn: %d", line.OrderId)
	}

	if order.TotalQuantity != 2 || order.TotalAmount != 100000 {
		t.Errorf("tổng sai: quantity=%d amount=%v", order.TotalQuantity, order.TotalAmount)
	}

	decoded, ok := codec.DecodeFullNote(order.Note)
	if !ok || decoded != "SP100 - 2 - 50000" {
		t.Errorf("sổ cái trong ghi chú sai: %q (ok=%v)", decoded, ok)
	}
}

func TestProcessBatchAccumulatesExistingLine(t *testing.T) {
	client, _, uploader, codec := newUploadFixture()

	existingID := int64(701)
	client.orders[9905].Note = codec.EncodeFullNote("SP100 - 1 - 50000")
	client.orders[9905].Details = []tpos.OrderLine{
		{Id: &existingID, ProductId: 100, ProductCode: "SP100", Quantity: 1, Price: 50000},
	}

	_, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 2}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	order := client.updated[0]
	if len(order.Details) != 1 {
		t.Fatalf("sản phẩm đã có phải cộng dồn, không thêm line mới: %+v", order.Details)
	}
	if order.Details[0].Quantity != 3 {
		t.Errorf("số lượng phải cộng dồn 1+2=3: %d", order.Details[0].Quantity)
	}
	if order.Details[0].Id == nil || *order.Details[0].Id != existingID {
		t.Error("line đã có phải giữ nguyên Id phía server")
	}

	// Sổ cái ghi thêm dòng mới, không sửa dòng cũ
	decoded, _ := codec.DecodeFullNote(order.Note)
	want := "SP100 - 1 - 50000\nSP100 - 2 - 50000"
	if decoded != want {
		t.Errorf("sổ cái sau cộng dồn sai: muốn %q, nhận %q", want, decoded)
	}
}

func TestProcessBatchOverwritesExistingLineNote(t *testing.T) {
	client, _, uploader, codec := newUploadFixture()

	existingID := int64(701)
	client.orders[9905].Note = codec.EncodeFullNote("SP100 - 3 - 50000")
	client.orders[9905].Details = []tpos.OrderLine{
		{Id: &existingID, ProductId: 100, ProductCode: "SP100", Quantity: 3, Price: 50000, Note: "old-note"},
	}

	_, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 2}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	line := client.updated[0].Details[0]
	if line.Quantity != 5 {
		t.Errorf("số lượng phải cộng dồn 3+2=5: %d", line.Quantity)
	}
	if line.Note != "live" {
		t.Errorf("ghi chú line đã có phải bị ghi đè thành ghi chú mặc định %q, nhận %q", "live", line.Note)
	}
}

func TestProcessBatchAppliesStagedNotes(t *testing.T) {
	client, _, uploader, _ := newUploadFixture()

	lineA := int64(701)
	lineB := int64(702)
	client.orders[9905].Details = []tpos.OrderLine{
		{Id: &lineA, ProductId: 100, ProductCode: "SP100", Quantity: 1, Price: 50000, Note: "cũ"},
		{Id: &lineB, ProductId: 200, ProductCode: "SP200", Quantity: 1, Price: 80000, Note: "cũ"},
	}

	sess := session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1})
	sess.StagedNotes = map[int64]string{
		100: "giao trước 5h",
		200: "gói quà",
	}

	_, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{sess}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	order := client.updated[0]
	if order.Details[0].Note != "giao trước 5h" {
		t.Errorf("line merge phải mang ghi chú đã staged: %q", order.Details[0].Note)
	}
	// Line không nằm trong batch nhưng có ghi chú staged vẫn bị ghi đè
	if order.Details[1].Note != "gói quà" {
		t.Errorf("line ngoài batch có ghi chú staged phải bị ghi đè: %q", order.Details[1].Note)
	}
}

func TestProcessBatchRecordsExistingProducts(t *testing.T) {
	client, _, uploader, _ := newUploadFixture()

	existingID := int64(701)
	client.orders[9905].Details = []tpos.OrderLine{
		{Id: &existingID, ProductId: 200, ProductCode: "SP200", Quantity: 1, Price: 80000},
	}

	result, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1}),
		session("99", 0, asgmodels.SessionProduct{ProductID: 100, Quantity: 1}), // Không resolve được đơn
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	// Vé thành công mang snapshot line-items TRƯỚC merge
	got := result.Tickets[0].ExistingProducts
	if len(got) != 1 || got[0].ProductId != 200 || got[0].Quantity != 1 {
		t.Errorf("existingProducts phải là line-items trước merge: %+v", got)
	}
	// Vé thất bại mang danh sách rỗng, không phải nil
	failed := result.Tickets[1].ExistingProducts
	if failed == nil || len(failed) != 0 {
		t.Errorf("vé thất bại phải mang existingProducts rỗng: %+v", failed)
	}
}

func TestPreviewBatchFlagsProductsAlreadyInOrder(t *testing.T) {
	client, _, uploader, _ := newUploadFixture()

	existingID := int64(701)
	client.orders[9905].Details = []tpos.OrderLine{
		{Id: &existingID, ProductId: 100, ProductCode: "SP100", Quantity: 1, Price: 50000},
	}

	previews := uploader.PreviewBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905,
			asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 2},
			asgmodels.SessionProduct{ProductID: 200, ProductCode: "SP200", Quantity: 1},
		),
	})

	if len(previews) != 1 {
		t.Fatalf("phải có 1 bản xem trước, nhận %d", len(previews))
	}
	preview := previews[0]
	if len(preview.ExistingProducts) != 1 || preview.ExistingProducts[0].ProductId != 100 {
		t.Errorf("xem trước phải hiện line-items hiện có trên đơn: %+v", preview.ExistingProducts)
	}
	if len(preview.AlreadyInOrder) != 1 || preview.AlreadyInOrder[0] != 100 {
		t.Errorf("sản phẩm đã có trên đơn phải được cảnh báo: %v", preview.AlreadyInOrder)
	}
	// Xem trước chỉ đọc
	if len(client.updated) != 0 {
		t.Error("xem trước không được PUT đơn hàng")
	}
}

func TestProcessBatchStoresSnapshotInHistory(t *testing.T) {
	_, history, uploader, _ := newUploadFixture()

	snapshot := []asgmodels.Assignment{
		{ProductID: 100, ProductCode: "SP100"},
	}
	_, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1}),
	}, snapshot)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	if len(history.records) != 1 {
		t.Fatal("batch phải ghi đúng 1 bản ghi lịch sử")
	}
	saved, ok := history.records[0].Snapshot.([]asgmodels.Assignment)
	if !ok || len(saved) != 1 || saved[0].ProductID != 100 {
		t.Errorf("bản ghi lịch sử phải mang nguyên snapshot phiên gán trước khi dọn: %+v", history.records[0].Snapshot)
	}
}

func TestProcessBatchMissingPriceAbortsBeforeWrite(t *testing.T) {
	client, _, uploader, _ := newUploadFixture()

	result, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905,
			asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1},
			asgmodels.SessionProduct{ProductID: 300, ProductCode: "SP300", Quantity: 1}, // Chỉ có giá vốn
		),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	if result.Status != histmodels.StatusFailed {
		t.Errorf("vé thiếu giá bán phải thất bại: %s", result.Status)
	}
	// Lỗi cứng: không có bất kỳ thao tác ghi nào trước khi hủy vé
	if len(client.updated) != 0 {
		t.Error("thiếu giá bán phải hủy vé TRƯỚC khi PUT")
	}
	if result.Tickets[0].ErrorMessage == "" {
		t.Error("vé thất bại phải có thông báo lỗi")
	}
}

func TestProcessBatchPartialFailure(t *testing.T) {
	client, history, uploader, _ := newUploadFixture()
	client.failOrders[9912] = common.ErrTposUnavailable

	result, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("5", 9905, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1}),
		session("12", 9912, asgmodels.SessionProduct{ProductID: 100, ProductCode: "SP100", Quantity: 1}),
		session("20", 9920, asgmodels.SessionProduct{ProductID: 200, ProductCode: "SP200", Quantity: 1}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}

	if result.Status != histmodels.StatusPartial {
		t.Errorf("2/3 vé thành công phải là partial: %s", result.Status)
	}
	// Mỗi vé có đúng một bản ghi kết quả, kể cả vé thất bại
	if len(result.Tickets) != 3 {
		t.Fatalf("phải có đủ 3 bản ghi kết quả, nhận %d", len(result.Tickets))
	}
	if !result.Tickets[0].Success || result.Tickets[1].Success || !result.Tickets[2].Success {
		t.Errorf("kết quả từng vé sai: %+v", result.Tickets)
	}
	// Vé lỗi không chặn vé sau nó
	if len(client.updated) != 2 {
		t.Errorf("2 vé còn lại vẫn phải được PUT, nhận %d", len(client.updated))
	}
	if len(result.SucceededStt) != 2 || result.SucceededStt[0] != "5" || result.SucceededStt[1] != "20" {
		t.Errorf("danh sách vé thành công sai: %v", result.SucceededStt)
	}

	// Lịch sử ghi đúng số liệu batch
	if len(history.records) != 1 {
		t.Fatal("batch phải ghi đúng 1 bản ghi lịch sử")
	}
	record := history.records[0]
	if record.Kind != histmodels.KindUpload || record.SuccessCount != 2 || record.FailureCount != 1 {
		t.Errorf("bản ghi lịch sử sai: %+v", record)
	}
}

func TestProcessBatchOrderNotFound(t *testing.T) {
	_, _, uploader, _ := newUploadFixture()

	result, err := uploader.ProcessBatch(context.Background(), []asgmodels.UploadSession{
		session("99", 0, asgmodels.SessionProduct{ProductID: 100, Quantity: 1}),
	}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch lỗi: %v", err)
	}
	if result.Status != histmodels.StatusFailed {
		t.Errorf("vé không resolve được đơn phải thất bại: %s", result.Status)
	}
}

func TestResolveSalePriceNeverUsesStandardPrice(t *testing.T) {
	// Chỉ có giá vốn: phải lỗi thay vì dùng StandardPrice
	if _, err := resolveSalePrice(&tpos.Product{DefaultCode: "SP300", StandardPrice: price(15000)}); err == nil {
		t.Error("chỉ có StandardPrice phải trả về lỗi")
	}

	// PriceVariant ưu tiên hơn ListPrice
	got, err := resolveSalePrice(&tpos.Product{PriceVariant: price(10000), ListPrice: price(99999)})
	if err != nil || got != 10000 {
		t.Errorf("PriceVariant phải được ưu tiên: %v (err=%v)", got, err)
	}

	// Giá âm không hợp lệ
	if _, err := resolveSalePrice(&tpos.Product{PriceVariant: price(-1)}); err == nil {
		t.Error("giá âm phải trả về lỗi")
	}

	// Giá 0 là hợp lệ (hàng tặng kèm)
	got, err = resolveSalePrice(&tpos.Product{ListPrice: price(0)})
	if err != nil || got != 0 {
		t.Errorf("giá 0 phải hợp lệ: %v (err=%v)", got, err)
	}
}
