package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
)

// Canned replies. The assistant speaks Vietnamese by default; free-form
// replies come straight from the model in whatever language the user used.
const (
	replyModelFailure  = "Có lỗi xảy ra khi gọi API."
	replyNotUnderstood = "Xin lỗi, tôi chưa hiểu yêu cầu hoặc thao tác này, bạn hãy thử lại nhé!"
	replyUnsupported   = "Lệnh không hợp lệ hoặc chưa hỗ trợ."
	replyNoWallet      = "Bạn chưa có ví nào, hãy tạo ví trước nhé!"
	replyStoreFailure  = "Có lỗi xảy ra khi lưu dữ liệu, bạn thử lại sau nhé."
)

// renderError maps a handler failure onto a user-facing reply. Unknown errors
// degrade to the generic apology; the session has already logged the cause.
func renderError(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("Dữ liệu chưa hợp lệ (%s: %s), bạn kiểm tra lại nhé.", ve.Field, ve.Reason)
	}
	var wnf *domain.WalletNotFoundError
	if errors.As(err, &wnf) {
		return fmt.Sprintf("Không tìm thấy ví tên %q.", wnf.Name)
	}
	switch {
	case errors.Is(err, domain.ErrNoWallet):
		return replyNoWallet
	case errors.Is(err, domain.ErrStoreUnavailable):
		return replyStoreFailure
	}
	return replyNotUnderstood
}

// renderOutcome builds the deterministic confirmation template for a
// successful command.
func renderOutcome(o *ledger.Outcome) string {
	switch o.Kind {
	case ledger.OutcomeWalletCreated:
		return fmt.Sprintf("Đã tạo ví mới: %s", o.WalletName)

	case ledger.OutcomeTransactionAdded:
		verb := "chi tiêu"
		if o.Type == domain.TypeIncome {
			verb = "thu nhập"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Đã ghi nhận %s %s cho %s vào ví %s.", verb, formatAmount(o.Amount), o.Category, o.WalletName)
		fmt.Fprintf(&b, " Số dư hiện tại: %s %s.", formatAmount(o.NewBalance), o.Currency)
		if o.ThresholdExceeded {
			b.WriteString(" Lưu ý: khoản chi này vượt ngưỡng chi tiêu của ví!")
		}
		return b.String()

	case ledger.OutcomeStatistic:
		return renderStatistic(o)
	}
	return replyUnsupported
}

func renderStatistic(o *ledger.Outcome) string {
	label := statLabel(o.StatType)
	period := periodLabel(o.Period)

	if len(o.Items) == 0 {
		return fmt.Sprintf("Không có giao dịch %s nào %s.", label, period)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thống kê %s %s:\n", label, period)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- [%s] %s: %s", item.Wallet, item.Category, formatAmount(item.Amount))
		if item.Note != "" {
			fmt.Fprintf(&b, " (%s)", item.Note)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Tổng: %s", formatAmount(o.Total))
	return b.String()
}

func statLabel(t domain.StatisticType) string {
	switch t {
	case domain.StatIncome:
		return "thu nhập"
	case domain.StatExpense:
		return "chi tiêu"
	}
	return "thu chi"
}

func periodLabel(p domain.Period) string {
	switch p {
	case domain.PeriodToday:
		return "hôm nay"
	case domain.PeriodWeek:
		return "tuần này"
	}
	return "tháng này"
}

// formatAmount renders an amount with Vietnamese digit grouping, e.g.
// 1234567.5 -> "1.234.567,5".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if fracPart != "" {
		out += "," + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
