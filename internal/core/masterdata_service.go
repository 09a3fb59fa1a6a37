package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type masterDataService struct {
	tx  *TxRunner
	log zerolog.Logger
	now func() time.Time
}

// NewMasterDataService constructs a MasterDataService.
func NewMasterDataService(tx *TxRunner) MasterDataService {
	return &masterDataService{tx: tx, log: logger.WithComponent("masterdata"), now: time.Now}
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *masterDataService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return nil, invalid("unit", "is required")
	}

	var p Product
	err := s.tx.Run(ctx, "product.create", func(ctx context.Context, tx store.Tx) error {
		number, err := ClaimSequence(ctx, tx, SeqProduct)
		if err != nil {
			return err
		}
		code, err := ClaimSequence(ctx, tx, SeqProductCode)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		p = Product{
			ID:            uuid.NewString(),
			ProductNumber: number.Format(now),
			Code:          code.Format(now),
			Name:          name,
			Unit:          strings.TrimSpace(input.Unit),
			Category:      strings.TrimSpace(input.Category),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Set(ctx, CollProducts, p.ID, p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
		if err := number.Write(ctx, tx); err != nil {
			return err
		}
		return code.Write(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", p.ID).Str("code", p.Code).Msg("product created")
	return &p, nil
}

func (s *masterDataService) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := getDoc(ctx, s.tx.Store(), CollProducts, "product", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *masterDataService) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := s.tx.Store().Query(ctx, CollProducts, store.Query{}, &out); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductNumber < out[j].ProductNumber })
	return out, nil
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (s *masterDataService) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, invalid("code", "is required")
	}
	if name == "" {
		return nil, invalid("name", "is required")
	}

	var sup Supplier
	err := s.tx.Run(ctx, "supplier.create", func(ctx context.Context, tx store.Tx) error {
		// The claim is keyed by code, so racing registrations write the same
		// document and all but one fail with a conflict, retry, and see it.
		var claim supplierCodeClaim
		err := tx.Get(ctx, CollSupplierCodes, code, &claim)
		switch {
		case err == nil:
			return invalid("code", "supplier code %s is already used by %s", code, claim.Name)
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("failed to check supplier code: %w", err)
		}
		var existing []Supplier
		if err := tx.Query(ctx, CollSuppliers, store.Where("code", code).WithLimit(1), &existing); err != nil {
			return fmt.Errorf("failed to check supplier code: %w", err)
		}
		if len(existing) > 0 {
			return invalid("code", "supplier code %s is already used by %s", code, existing[0].Name)
		}

		now := s.now().UTC()
		sup = Supplier{
			ID:        uuid.NewString(),
			Code:      code,
			Name:      name,
			Address:   input.Address,
			Phone:     input.Phone,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Set(ctx, CollSupplierCodes, code, supplierCodeClaim{SupplierID: sup.ID, Name: sup.Name}); err != nil {
			return fmt.Errorf("failed to claim supplier code %s: %w", code, err)
		}
		return tx.Set(ctx, CollSuppliers, sup.ID, sup)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("supplier_id", sup.ID).Str("code", sup.Code).Msg("supplier created")
	return &sup, nil
}

func (s *masterDataService) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	var sup Supplier
	if err := getDoc(ctx, s.tx.Store(), CollSuppliers, "supplier", id, &sup); err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *masterDataService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var out []Supplier
	if err := s.tx.Store().Query(ctx, CollSuppliers, store.Query{}, &out); err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ── Supplier products ─────────────────────────────────────────────────────────

func (s *masterDataService) CreateSupplierProduct(ctx context.Context, input SupplierProductInput) (*SupplierProduct, error) {
	if input.SupplierID == "" {
		return nil, invalid("supplierId", "is required")
	}
	if input.ProductID == "" {
		return nil, invalid("productId", "is required")
	}
	if input.BuyPrice.IsNegative() || input.SellPrice.IsNegative() {
		return nil, invalid("price", "prices must not be negative")
	}
	if input.InitialStock < 0 {
		return nil, invalid("initialStock", "must not be negative")
	}

	var sp SupplierProduct
	err := s.tx.Run(ctx, "supplierProduct.create", func(ctx context.Context, tx store.Tx) error {
		if err := getDoc(ctx, tx, CollSuppliers, "supplier", input.SupplierID, &Supplier{}); err != nil {
			return err
		}
		if err := getDoc(ctx, tx, CollProducts, "product", input.ProductID, &Product{}); err != nil {
			return err
		}
		var existing []SupplierProduct
		q := store.Where("supplierId", input.SupplierID).And("productId", input.ProductID).WithLimit(1)
		if err := tx.Query(ctx, CollSupplierProducts, q, &existing); err != nil {
			return fmt.Errorf("failed to check supplier product: %w", err)
		}
		if len(existing) > 0 {
			return invalid("productId", "product is already listed for this supplier as %s", existing[0].ID)
		}

		now := s.now().UTC()
		sp = SupplierProduct{
			ID:         uuid.NewString(),
			SupplierID: input.SupplierID,
			ProductID:  input.ProductID,
			BuyPrice:   input.BuyPrice,
			SellPrice:  input.SellPrice,
			Stock:      input.InitialStock,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Set(ctx, CollSupplierProducts, sp.ID, sp)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("supplier_product_id", sp.ID).Int64("stock", sp.Stock).Msg("supplier product created")
	return &sp, nil
}

func (s *masterDataService) GetSupplierProduct(ctx context.Context, id string) (*SupplierProduct, error) {
	var sp SupplierProduct
	if err := getDoc(ctx, s.tx.Store(), CollSupplierProducts, "supplier product", id, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *masterDataService) ListSupplierProducts(ctx context.Context, filter SupplierProductFilter) ([]SupplierProduct, error) {
	q := store.Query{}
	if filter.SupplierID != "" {
		q = q.And("supplierId", filter.SupplierID)
	}
	if filter.ProductID != "" {
		q = q.And("productId", filter.ProductID)
	}
	var out []SupplierProduct
	if err := s.tx.Store().Query(ctx, CollSupplierProducts, q, &out); err != nil {
		return nil, fmt.Errorf("failed to list supplier products: %w", err)
	}
	return out, nil
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (s *masterDataService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	var c Customer
	err := s.tx.Run(ctx, "customer.create", func(ctx context.Context, tx store.Tx) error {
		number, err := ClaimSequence(ctx, tx, SeqCustomer)
		if err != nil {
			return err
		}
		code, err := ClaimSequence(ctx, tx, SeqCustomerCode)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		c = Customer{
			ID:             uuid.NewString(),
			CustomerNumber: number.Format(now),
			Code:           code.Format(now),
			Name:           name,
			StoreName:      input.StoreName,
			NIB:            input.NIB,
			Address:        input.Address,
			Phone:          input.Phone,
			Email:          input.Email,
			Status:         CustomerActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Set(ctx, CollCustomers, c.ID, c); err != nil {
			return fmt.Errorf("failed to write customer: %w", err)
		}
		if err := number.Write(ctx, tx); err != nil {
			return err
		}
		return code.Write(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("customer_id", c.ID).Str("number", c.CustomerNumber).Msg("customer created")
	return &c, nil
}

func (s *masterDataService) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	if err := getDoc(ctx, s.tx.Store(), CollCustomers, "customer", id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *masterDataService) ListCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := s.tx.Store().Query(ctx, CollCustomers, store.Query{}, &out); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CustomerNumber < out[j].CustomerNumber })
	return out, nil
}

func (s *masterDataService) SetCustomerStatus(ctx context.Context, id string, status CustomerStatus) (*Customer, error) {
	if status != CustomerActive && status != CustomerInactive {
		return nil, invalid("status", "must be %s or %s", CustomerActive, CustomerInactive)
	}
	var c Customer
	err := s.tx.Run(ctx, "customer.status", func(ctx context.Context, tx store.Tx) error {
		if err := getDoc(ctx, tx, CollCustomers, "customer", id, &c); err != nil {
			return err
		}
		c.Status = status
		c.UpdatedAt = s.now().UTC()
		return tx.Set(ctx, CollCustomers, c.ID, c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// getDoc reads one document, turning a miss into a NotFoundError for entity.
func getDoc(ctx context.Context, r store.Reader, coll, entity, id string, dst any) error {
	if err := r.Get(ctx, coll, id, dst); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(entity, id)
		}
		return fmt.Errorf("failed to read %s %s: %w", entity, id, err)
	}
	return nil
}
