package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// ProductUseCase реализует администрирование каталога и чтение товаров через кэш.
type ProductUseCase struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	ledger      *StockLedger
	txManager   TxManager
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	cacheRepo CacheRepository,
	ledger *StockLedger,
	txManager TxManager,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		ledger:      ledger,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetProduct возвращает продукт из кэша, при промахе читает хранилище и прогревает кэш в фоне.
func (p *ProductUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err != nil {
		p.logger.Warnf("Cache lookup failed, falling back to store: %v", e.Wrap(op, err))
	}
	if cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление продукта в кэш
	toCache := *product
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, []domain.Product{toCache}); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return product, nil
}

// ListProducts возвращает каталог, отсортированный по имени.
func (p *ProductUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sortProducts(products)

	return products, nil
}

// SaveProduct создаёт или обновляет продукт. DiscountPercent всегда пересчитывается.
// Stock и TotalSold из product учитываются только при создании: у существующего продукта
// счётчики меняют StockLedger и RestockProduct.
func (p *ProductUseCase) SaveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	const op = "ProductUseCase.SaveProduct"

	product.Name = strings.TrimSpace(product.Name)
	if err := product.Validate(); err != nil {
		return nil, e.Wrap(op, err)
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.DiscountPercent = domain.DiscountPercent(product.OriginalPrice, product.DiscountedPrice)

	saved, err := p.productRepo.Upsert(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, saved.ID)
	return saved, nil
}

// RestockProduct выставляет остаток под блокировкой строки, поэтому не теряет параллельное списание.
func (p *ProductUseCase) RestockProduct(ctx context.Context, id string, stock int64) (*domain.Product, error) {
	const op = "ProductUseCase.RestockProduct"

	var restocked *domain.Product
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		product, err := p.ledger.Restock(ctx, id, stock)
		if err != nil {
			return err
		}

		restocked = product
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.ledger.InvalidateCache(ctx, id)
	return restocked, nil
}

// DeleteProduct удаляет продукт. Уже созданные заказы хранят снимок и не затрагиваются.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	if err := p.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, id)
	return nil
}

// SubscribeProducts подписывает fn на полный каталог.
func (p *ProductUseCase) SubscribeProducts(ctx context.Context, fn func([]domain.Product)) (func(), error) {
	const op = "ProductUseCase.SubscribeProducts"

	unsubscribe, err := p.productRepo.Subscribe(ctx, func(products []domain.Product) {
		sortProducts(products)
		fn(products)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return unsubscribe, nil
}

func (p *ProductUseCase) invalidate(ctx context.Context, id string) {
	if err := p.cacheRepo.DeleteProducts(ctx, []string{id}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap("ProductUseCase.invalidate", err))
	}
}

func sortProducts(products []domain.Product) {
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
}
