package usecase

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

const (
	voucherAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	voucherBlockLen = 4

	// MaxVouchersPerIssue ограничивает один вызов Issue, чтобы сообщение с кодами оставалось разумного размера.
	MaxVouchersPerIssue = 10000

	DefaultVoucherHeader = "===== DIGITAL DELIVERY ====="
	DefaultVoucherFooter = "===== KEEP THESE CODES PRIVATE ====="
)

// VoucherGenerator выпускает коды вида V-XXXX-XXXX. Глобальная уникальность не проверяется.
type VoucherGenerator struct {
	rnd    io.Reader
	header string
	footer string
}

func NewVoucherGenerator(header, footer string) *VoucherGenerator {
	if header == "" {
		header = DefaultVoucherHeader
	}
	if footer == "" {
		footer = DefaultVoucherFooter
	}

	return &VoucherGenerator{rnd: rand.Reader, header: header, footer: footer}
}

// Issue выпускает count независимых кодов.
func (v *VoucherGenerator) Issue(count int64) ([]string, error) {
	if count < 0 {
		return nil, e.ErrInvalidQuantity
	}
	if count > MaxVouchersPerIssue {
		return nil, e.ErrQuantityTooLarge
	}

	codes := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		first, err := v.block()
		if err != nil {
			return nil, err
		}

		second, err := v.block()
		if err != nil {
			return nil, err
		}

		codes = append(codes, fmt.Sprintf("V-%s-%s", first, second))
	}

	return codes, nil
}

// Compose собирает сообщение для покупателя: заголовок, шаблон продукта, количество и коды.
func (v *VoucherGenerator) Compose(product *domain.Product, quantity int64, codes []string) (string, string) {
	title := fmt.Sprintf("Your order: %s", product.Name)

	var b strings.Builder
	b.WriteString(v.header)
	b.WriteString("\n")
	if product.AutoMessage != nil && product.AutoMessage.Text != "" {
		b.WriteString(product.AutoMessage.Text)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Quantity: %d\n", quantity)
	for i, code := range codes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, code)
	}
	b.WriteString(v.footer)

	return title, b.String()
}

func (v *VoucherGenerator) block() (string, error) {
	limit := big.NewInt(int64(len(voucherAlphabet)))
	buf := make([]byte, voucherBlockLen)
	for i := range buf {
		n, err := rand.Int(v.rnd, limit)
		if err != nil {
			return "", err
		}
		buf[i] = voucherAlphabet[n.Int64()]
	}

	return string(buf), nil
}
