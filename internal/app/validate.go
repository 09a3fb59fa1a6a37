package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"trade-ledger/internal/core"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and returns the first failure as a
// *core.ValidationError.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &core.ValidationError{Field: fieldPath(fe), Message: errorMessage(fe)}
}

// fieldPath turns "CreateSaleRequest.items[0].qty" into "items[0].qty".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "ne":
		return fmt.Sprintf("must not be %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

// parseDate reads a YYYY-MM-DD string as midnight UTC. Empty yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func parseRange(req ReportRequest) (core.ReportRange, error) {
	from, err := parseDate("from", req.From)
	if err != nil {
		return core.ReportRange{}, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return core.ReportRange{}, err
	}
	return core.ReportRange{From: from, To: to}, nil
}

func paymentTerms(req *PaymentTermsRequest) (core.PaymentTerms, error) {
	if req == nil {
		return core.PaymentTerms{}, nil
	}
	terms := core.PaymentTerms{
		PaymentMethod: req.PaymentMethod,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
	}
	if req.DueDate != "" {
		due, err := parseDate("paymentTerms.dueDate", req.DueDate)
		if err != nil {
			return core.PaymentTerms{}, err
		}
		terms.DueDate = &due
	}
	return terms, nil
}

func saleLines(items []SaleLineRequest) []core.SaleLineInput {
	out := make([]core.SaleLineInput, len(items))
	for i, it := range items {
		out[i] = core.SaleLineInput{SupplierProductID: it.SupplierProductID, Qty: it.Qty, UnitPrice: it.UnitPrice}
	}
	return out
}

func purchaseLines(items []PurchaseLineRequest) []core.PurchaseLineInput {
	out := make([]core.PurchaseLineInput, len(items))
	for i, it := range items {
		out[i] = core.PurchaseLineInput{SupplierProductID: it.SupplierProductID, Qty: it.Qty, UnitPrice: it.UnitPrice}
	}
	return out
}
