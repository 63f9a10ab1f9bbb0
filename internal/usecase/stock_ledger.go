package usecase

import (
	"context"
	"math"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// StockLedger — единственный компонент, который меняет счётчики stock/totalSold.
type StockLedger struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	logger      logger.Logger
}

func NewStockLedger(productRepo ProductRepository, cacheRepo CacheRepository, logger logger.Logger) *StockLedger {
	return &StockLedger{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// ApplyDeduction вычисляет новые счётчики: остаток не уходит ниже нуля, проданное ограничено только разрядностью.
// При перепродаже разница между заказанным и остатком теряется.
func ApplyDeduction(stock, totalSold, quantity int64) (int64, int64, error) {
	if quantity <= 0 {
		return stock, totalSold, e.ErrInvalidQuantity
	}
	if totalSold > math.MaxInt64-quantity {
		return stock, totalSold, e.ErrQuantityTooLarge
	}

	return max(0, stock-quantity), totalSold + quantity, nil
}

// Deduct списывает quantity единиц продукта. Должен вызываться внутри транзакции TxManager:
// строка продукта блокируется до фиксации, поэтому параллельные списания не теряются.
func (s *StockLedger) Deduct(ctx context.Context, productID string, quantity int64) (*domain.Product, error) {
	const op = "StockLedger.Deduct"

	if quantity <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stock, sold, err := ApplyDeduction(product.Stock, product.TotalSold, quantity)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if stock == 0 && product.Stock < quantity {
		s.logger.Warnf("oversell on product %s: stock %d, ordered %d", productID, product.Stock, quantity)
	}

	if err := s.productRepo.UpdateCounters(ctx, productID, stock, sold); err != nil {
		return nil, e.Wrap(op, err)
	}

	product.Stock = stock
	product.TotalSold = sold
	return product, nil
}

// Restock выставляет остаток продукта администратором, totalSold не меняется.
// Как и Deduct, вызывается внутри транзакции TxManager.
func (s *StockLedger) Restock(ctx context.Context, productID string, stock int64) (*domain.Product, error) {
	const op = "StockLedger.Restock"

	if stock < 0 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := s.productRepo.UpdateCounters(ctx, productID, stock, product.TotalSold); err != nil {
		return nil, e.Wrap(op, err)
	}

	s.logger.Infof("product %s restocked: %d -> %d", productID, product.Stock, stock)
	product.Stock = stock
	return product, nil
}

// InvalidateCache удаляет продукт из кэша после фиксации транзакции со списанием.
func (s *StockLedger) InvalidateCache(ctx context.Context, productID string) {
	if err := s.cacheRepo.DeleteProducts(ctx, []string{productID}); err != nil {
		s.logger.Warnf("Failed to invalidate cached product %s: %v", productID, e.Wrap("StockLedger.InvalidateCache", err))
	}
}
