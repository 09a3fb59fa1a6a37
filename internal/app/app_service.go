package app

import (
	"context"
	"fmt"
	"io"

	"trade-ledger/internal/core"
	"trade-ledger/internal/report"

	"github.com/shopspring/decimal"
)

type appService struct {
	master      core.MasterDataService
	stock       core.StockLedger
	sales       core.SaleService
	purchases   core.PurchaseService
	receivables core.ReceivablesService
	reports     core.ReportingService
	settings    core.SettingsResolver
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	master core.MasterDataService,
	stock core.StockLedger,
	sales core.SaleService,
	purchases core.PurchaseService,
	receivables core.ReceivablesService,
	reports core.ReportingService,
	settings core.SettingsResolver,
) ApplicationService {
	return &appService{
		master:      master,
		stock:       stock,
		sales:       sales,
		purchases:   purchases,
		receivables: receivables,
		reports:     reports,
		settings:    settings,
	}
}

// Wire builds every core service on one TxRunner and returns the facade.
func Wire(tx *core.TxRunner, defaults core.SettingsDefaults) ApplicationService {
	settings := core.NewSettingsResolver(tx, defaults)
	stock := core.NewStockLedger(tx)
	sales := core.NewSaleService(tx, stock, settings)
	purchases := core.NewPurchaseService(tx, stock)
	return NewAppService(
		core.NewMasterDataService(tx),
		stock,
		sales,
		purchases,
		core.NewReceivablesService(tx, sales),
		core.NewReportingService(tx, sales, purchases, settings),
		settings,
	)
}

// ── Master data ─────────────────────────────────────────────────────────────

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.master.CreateProduct(ctx, core.ProductInput{Name: req.Name, Unit: req.Unit, Category: req.Category})
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.master.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	return s.master.GetProduct(ctx, id)
}

func (s *appService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.master.CreateSupplier(ctx, core.SupplierInput{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
}

func (s *appService) ListSuppliers(ctx context.Context) (*SupplierListResult, error) {
	suppliers, err := s.master.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) CreateSupplierProduct(ctx context.Context, req CreateSupplierProductRequest) (*core.SupplierProduct, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.master.CreateSupplierProduct(ctx, core.SupplierProductInput{
		SupplierID:   req.SupplierID,
		ProductID:    req.ProductID,
		BuyPrice:     req.BuyPrice,
		SellPrice:    req.SellPrice,
		InitialStock: req.InitialStock,
	})
}

func (s *appService) ListSupplierProducts(ctx context.Context, supplierID, productID string) (*SupplierProductListResult, error) {
	sps, err := s.master.ListSupplierProducts(ctx, core.SupplierProductFilter{SupplierID: supplierID, ProductID: productID})
	if err != nil {
		return nil, err
	}
	return &SupplierProductListResult{SupplierProducts: sps}, nil
}

func (s *appService) GetSupplierProduct(ctx context.Context, id string) (*core.SupplierProduct, error) {
	return s.master.GetSupplierProduct(ctx, id)
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.master.CreateCustomer(ctx, core.CustomerInput{
		Name:      req.Name,
		StoreName: req.StoreName,
		NIB:       req.NIB,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
	})
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	customers, err := s.master.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	return s.master.GetCustomer(ctx, id)
}

func (s *appService) SetCustomerStatus(ctx context.Context, id string, req SetCustomerStatusRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.master.SetCustomerStatus(ctx, id, core.CustomerStatus(req.Status))
}

// ── Stock ───────────────────────────────────────────────────────────────────

func (s *appService) GetStockLevels(ctx context.Context) (*StockResult, error) {
	levels, err := s.stock.Levels(ctx)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels}, nil
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.SupplierProduct, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.stock.Adjust(ctx, req.SupplierProductID, req.Delta, req.Reason)
}

// ── Sales ───────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*core.SaleDetail, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	terms, err := paymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}
	return s.sales.CreateSale(ctx, core.SaleInput{
		CustomerID:      req.CustomerID,
		Date:            date,
		Notes:           req.Notes,
		Items:           saleLines(req.Items),
		DiscountPercent: req.DiscountPercent,
		TaxEnabled:      req.TaxEnabled,
		PaymentTerms:    terms,
	})
}

func (s *appService) GetSale(ctx context.Context, id string) (*core.SaleDetail, error) {
	return s.sales.GetSale(ctx, id)
}

func (s *appService) ListSales(ctx context.Context, req SaleListRequest) (*SaleListResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rng, err := parseRange(req.ReportRequest)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.ListSales(ctx, core.SaleFilter{
		CustomerID: req.CustomerID,
		Status:     core.SaleStatus(req.Status),
		From:       rng.From,
		To:         rng.To,
	})
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales, Count: len(sales)}, nil
}

func (s *appService) UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*core.SaleDetail, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	patch := core.SalePatch{
		Notes:           req.Notes,
		DiscountPercent: req.DiscountPercent,
		TaxEnabled:      req.TaxEnabled,
	}
	if req.Items != nil {
		items := saleLines(*req.Items)
		patch.Items = &items
	}
	if req.Status != nil {
		st := core.SaleStatus(*req.Status)
		patch.Status = &st
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		patch.Date = &date
	}
	if req.PaymentTerms != nil {
		terms, err := paymentTerms(req.PaymentTerms)
		if err != nil {
			return nil, err
		}
		patch.PaymentTerms = &terms
	}
	return s.sales.UpdateSale(ctx, id, patch)
}

func (s *appService) CancelSale(ctx context.Context, id string) (*core.SaleDetail, error) {
	return s.sales.CancelSale(ctx, id)
}

func (s *appService) DeleteSale(ctx context.Context, id string) error {
	return s.sales.DeleteSale(ctx, id)
}

// ── Receivables ─────────────────────────────────────────────────────────────

func (s *appService) AddPayment(ctx context.Context, saleID string, req AddPaymentRequest) (*core.SaleDetail, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	return s.receivables.AddPayment(ctx, saleID, core.PaymentInput{
		Amount:    req.Amount,
		Date:      date,
		Method:    req.Method,
		PayerName: req.PayerName,
	})
}

func (s *appService) ListReceivables(ctx context.Context) (*ReceivablesResult, error) {
	recs, err := s.receivables.ListReceivables(ctx)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.Remaining)
	}
	return &ReceivablesResult{Receivables: recs, TotalRemaining: total}, nil
}

// ── Purchases ───────────────────────────────────────────────────────────────

func (s *appService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*core.PurchaseDetail, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	return s.purchases.CreatePurchase(ctx, core.PurchaseInput{
		SupplierID:    req.SupplierID,
		Date:          date,
		DeliveryNote:  req.DeliveryNote,
		ReceiptNote:   req.ReceiptNote,
		InvoiceNumber: req.InvoiceNumber,
		Status:        core.PurchaseStatus(req.Status),
		Items:         purchaseLines(req.Items),
	})
}

func (s *appService) ReceivePurchase(ctx context.Context, id string, req ReceivePurchaseRequest) (*core.PurchaseDetail, error) {
	return s.purchases.CompleteReceipt(ctx, id, core.ReceiptFields{
		DeliveryNote:  req.DeliveryNote,
		ReceiptNote:   req.ReceiptNote,
		InvoiceNumber: req.InvoiceNumber,
	})
}

func (s *appService) GetPurchase(ctx context.Context, id string) (*core.PurchaseDetail, error) {
	return s.purchases.GetPurchase(ctx, id)
}

func (s *appService) ListPurchases(ctx context.Context, req PurchaseListRequest) (*PurchaseListResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rng, err := parseRange(req.ReportRequest)
	if err != nil {
		return nil, err
	}
	purchases, err := s.purchases.ListPurchases(ctx, core.PurchaseFilter{
		SupplierID: req.SupplierID,
		Status:     core.PurchaseStatus(req.Status),
		From:       rng.From,
		To:         rng.To,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases, Count: len(purchases)}, nil
}

// ── Reporting ───────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context) (*core.Dashboard, error) {
	return s.reports.Dashboard(ctx)
}

func (s *appService) GetLowStock(ctx context.Context) ([]core.LowStockItem, error) {
	return s.reports.LowStock(ctx)
}

func (s *appService) GetSalesReport(ctx context.Context, req ReportRequest) (*core.SalesReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rng, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	return s.reports.SalesReport(ctx, rng)
}

func (s *appService) GetPurchaseReport(ctx context.Context, req ReportRequest) (*core.PurchaseReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rng, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	return s.reports.PurchaseReport(ctx, rng)
}

func (s *appService) ExportSalesReport(ctx context.Context, req ReportRequest, w io.Writer) error {
	rep, err := s.GetSalesReport(ctx, req)
	if err != nil {
		return err
	}
	if err := report.WriteSales(w, rep); err != nil {
		return fmt.Errorf("failed to export sales report: %w", err)
	}
	return nil
}

func (s *appService) ExportPurchaseReport(ctx context.Context, req ReportRequest, w io.Writer) error {
	rep, err := s.GetPurchaseReport(ctx, req)
	if err != nil {
		return err
	}
	if err := report.WritePurchases(w, rep); err != nil {
		return fmt.Errorf("failed to export purchase report: %w", err)
	}
	return nil
}

// ── Settings ────────────────────────────────────────────────────────────────

func (s *appService) SetSetting(ctx context.Context, req SetSettingRequest) (*core.Setting, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.settings.Set(ctx, req.Key, req.Value, req.Priority)
}

func (s *appService) ListSettings(ctx context.Context) (*SettingsResult, error) {
	settings, err := s.settings.List(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsResult{Settings: settings}, nil
}
