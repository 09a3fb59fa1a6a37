package web

import (
	"net/http"
	"reflect"
	"sort"
	"strings"

	"trade-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// requestBodies lists the request types published under /api/schemas/{name}.
var requestBodies = map[string]any{
	"product":          app.CreateProductRequest{},
	"supplier":         app.CreateSupplierRequest{},
	"supplier-product": app.CreateSupplierProductRequest{},
	"customer":         app.CreateCustomerRequest{},
	"customer-status":  app.SetCustomerStatusRequest{},
	"sale":             app.CreateSaleRequest{},
	"sale-update":      app.UpdateSaleRequest{},
	"payment":          app.AddPaymentRequest{},
	"purchase":         app.CreatePurchaseRequest{},
	"purchase-receipt": app.ReceivePurchaseRequest{},
	"stock-adjustment": app.AdjustStockRequest{},
	"setting":          app.SetSettingRequest{},
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// schemaFor reflects the JSON Schema of a request body. Money fields are
// decimal strings on the wire, though plain JSON numbers are accepted too.
func schemaFor(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{
						{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`},
						{Type: "number"},
					},
				}
			}
			return nil
		},
	}
	return reflector.Reflect(v)
}

// schema handles GET /api/schemas/{name}.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := requestBodies[name]
	if !ok {
		names := make([]string, 0, len(requestBodies))
		for n := range requestBodies {
			names = append(names, n)
		}
		sort.Strings(names)
		writeError(w, r, "unknown schema "+name+"; available: "+strings.Join(names, ", "), "NOT_FOUND", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	writeJSONStatus(w, http.StatusOK, schemaFor(v))
}
