package tpos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
)

// Client gọi TPOS OData API với bearer token lấy từ worker ngoài.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokenProvider
}

// NewClient tạo client TPOS mới.
// timeoutSeconds áp cho từng request; 0 dùng mặc định 30 giây.
func NewClient(baseURL, tokenURL string, timeoutSeconds int) *Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	httpClient := &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     newTokenProvider(tokenURL, httpClient),
	}
}

// GetOrderByID lấy đơn hàng đầy đủ kèm line-items từ TPOS
func (c *Client) GetOrderByID(ctx context.Context, orderID int64) (*Order, error) {
	endpoint := fmt.Sprintf("%s/odata/SaleOnline_Order(%d)?$expand=Details", c.baseURL, orderID)

	var order Order
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderBySTT tra đơn hàng theo số thứ tự trong phiên live.
// Dùng làm fallback khi STT không có trong cache cục bộ.
func (c *Client) GetOrderBySTT(ctx context.Context, stt string) (*Order, error) {
	filter := url.QueryEscape(fmt.Sprintf("SessionIndex eq '%s'", stt))
	endpoint := fmt.Sprintf("%s/odata/SaleOnline_Order?$filter=%s&$expand=Details&$top=1", c.baseURL, filter)

	var list odataList[Order]
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Value) == 0 {
		return nil, common.ErrTposOrderNotFound
	}
	return &list.Value[0], nil
}

// GetProductByID lấy chi tiết sản phẩm (bao gồm giá bán) từ TPOS
func (c *Client) GetProductByID(ctx context.Context, productID int64) (*Product, error) {
	endpoint := fmt.Sprintf("%s/odata/Product(%d)", c.baseURL, productID)

	var product Product
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &product); err != nil {
		if errors.Is(err, common.ErrTposOrderNotFound) {
			return nil, common.ErrTposProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetProductVariants lấy danh sách biến thể đang active của một sản phẩm cha
func (c *Client) GetProductVariants(ctx context.Context, templateID int64) ([]Product, error) {
	filter := url.QueryEscape(fmt.Sprintf("ProductTmplId eq %d and Active eq true", templateID))
	endpoint := fmt.Sprintf("%s/odata/Product?$filter=%s", c.baseURL, filter)

	var list odataList[Product]
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// UpdateOrder ghi đè toàn bộ đơn hàng lên TPOS (full-resource replace).
// Caller chịu trách nhiệm gửi đủ Details đã merge - TPOS thay thế nguyên document.
func (c *Client) UpdateOrder(ctx context.Context, order *Order) error {
	endpoint := fmt.Sprintf("%s/odata/SaleOnline_Order(%d)", c.baseURL, order.Id)

	log := logger.WithModule("tpos").WithFields(map[string]interface{}{
		"orderId":   order.Id,
		"lineCount": len(order.Details),
	})
	log.Info("📤 [TPOS] Gửi cập nhật đơn hàng (full replace)")

	if err := c.doRequest(ctx, http.MethodPut, endpoint, order, nil); err != nil {
		log.WithError(err).Error("📤 [TPOS] Cập nhật đơn hàng thất bại")
		return err
	}

	log.Info("📤 [TPOS] Cập nhật đơn hàng thành công")
	return nil
}

// FetchOrderSummaries lấy danh sách đơn hàng gần nhất để làm cache tra cứu theo STT
func (c *Client) FetchOrderSummaries(ctx context.Context, top int) ([]OrderSummary, error) {
	if top <= 0 {
		top = 500
	}
	endpoint := fmt.Sprintf("%s/odata/SaleOnline_Order?$orderby=DateCreated desc&$top=%d", c.baseURL, top)

	var list odataList[Order]
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, 0, len(list.Value))
	for _, order := range list.Value {
		summaries = append(summaries, OrderSummary{
			Stt:          order.SessionIndex,
			OrderID:      order.Id,
			CustomerName: order.Name,
			Phone:        order.Telephone,
			Address:      order.Address,
			TotalAmount:  order.TotalAmount,
			Note:         order.Note,
			Quantity:     order.TotalQuantity,
		})
	}
	return summaries, nil
}

// doRequest thực hiện một request tới TPOS với bearer token, decode JSON response vào out.
// out = nil nghĩa là bỏ qua response body (các thao tác ghi).
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTposUnavailable, err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTposUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return common.ErrTposOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return common.NewError(
			common.ErrCodeTpos,
			fmt.Sprintf("TPOS trả về status %d", resp.StatusCode),
			common.StatusBadGateway,
			string(bodyBytes),
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode TPOS response: %w", err)
		}
	}

	return nil
}
