package ntfsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tpos_commerce/core/logger"
	histmodels "tpos_commerce/internal/api/history/models"
	rcsvc "tpos_commerce/internal/api/reconcile/service"
	"tpos_commerce/internal/delivery/channels"
)

// NotifyService gửi báo cáo kết quả batch qua Telegram và email.
// Thông báo là best-effort: lỗi gửi chỉ được log, không ảnh hưởng kết quả batch.
type NotifyService struct {
	telegramBotToken string
	telegramChatIDs  []string
	smtp             channels.SMTPSender
	emailRecipients  []string
}

// NewNotifyService tạo notify service. Kênh nào thiếu cấu hình thì bỏ qua kênh đó.
func NewNotifyService(botToken, chatIDs string, smtp channels.SMTPSender, emails string) *NotifyService {
	return &NotifyService{
		telegramBotToken: botToken,
		telegramChatIDs:  splitList(chatIDs),
		smtp:             smtp,
		emailRecipients:  splitList(emails),
	}
}

// NotifyBatchResult gửi báo cáo kết quả batch tới các kênh đã cấu hình.
// Chạy bất đồng bộ để không chặn response của API.
func (s *NotifyService) NotifyBatchResult(kind string, result *rcsvc.BatchResult) {
	if result == nil {
		return
	}

	summary := formatBatchSummary(kind, result)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log := logger.WithModule("notify").WithField("batchId", result.BatchID)

		if s.telegramBotToken != "" {
			for _, chatID := range s.telegramChatIDs {
				if err := channels.SendTelegram(ctx, s.telegramBotToken, chatID, summary); err != nil {
					log.WithError(err).WithField("chatID", chatID).
						Warn("Gửi báo cáo batch qua Telegram thất bại")
				}
			}
		}

		if s.smtp.Host != "" && len(s.emailRecipients) > 0 {
			subject := fmt.Sprintf("Báo cáo %s - %s", kindLabel(kind), statusLabel(result.Status))
			html := "<pre>" + summary + "</pre>"
			if err := channels.SendEmail(s.smtp, s.emailRecipients, subject, html); err != nil {
				log.WithError(err).Warn("Gửi báo cáo batch qua email thất bại")
			}
		}
	}()
}

// formatBatchSummary dựng nội dung báo cáo batch bằng tiếng Việt
func formatBatchSummary(kind string, result *rcsvc.BatchResult) string {
	var b strings.Builder

	success := len(result.SucceededStt)
	total := len(result.Tickets)
	fmt.Fprintf(&b, "%s %s: %d/%d vé thành công\n", statusEmoji(result.Status), kindLabel(kind), success, total)
	fmt.Fprintf(&b, "Batch: %s\n", result.BatchID)

	for _, ticket := range result.Tickets {
		if ticket.Success {
			fmt.Fprintf(&b, "✅ STT %s: %d sản phẩm\n", ticket.Stt, len(ticket.Products))
			continue
		}
		fmt.Fprintf(&b, "❌ STT %s: %s\n", ticket.Stt, ticket.ErrorMessage)
	}

	return b.String()
}

func kindLabel(kind string) string {
	if kind == histmodels.KindRemoval {
		return "gỡ sản phẩm"
	}
	return "upload sản phẩm"
}

func statusLabel(status string) string {
	switch status {
	case histmodels.StatusCompleted:
		return "thành công"
	case histmodels.StatusPartial:
		return "thành công một phần"
	default:
		return "thất bại"
	}
}

func statusEmoji(status string) string {
	switch status {
	case histmodels.StatusCompleted:
		return "✅"
	case histmodels.StatusPartial:
		return "⚠️"
	default:
		return "❌"
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
