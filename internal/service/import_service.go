package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/pricing"
)

// Workbook sheet names, processed in this order so products can refer to
// the catalog rows defined before them.
const (
	SheetCategories = "Categories"
	SheetSuppliers  = "Suppliers"
	SheetAttributes = "Attributes"
	SheetCustomers  = "Customers"
	SheetProducts   = "Products"
)

type ImportService interface {
	Import(ctx context.Context, r io.Reader, actor Actor) (*ImportResult, error)
}

type ImportResult struct {
	Categories      int `json:"categories"`
	Suppliers       int `json:"suppliers"`
	Attributes      int `json:"attributes"`
	Customers       int `json:"customers"`
	ProductsCreated int `json:"products_created"`
	ProductsUpdated int `json:"products_updated"`
}

type importService struct {
	core     *Core
	products *inventoryService
}

func NewImportService(core *Core) ImportService {
	return &importService{core: core, products: &inventoryService{core: core}}
}

// sheetRow is one data row keyed by header name
type sheetRow struct {
	sheet  string
	number int
	values map[string]string
}

func importError(sheet string, row int, format string, args ...any) *apperr.Error {
	msg := fmt.Sprintf(format, args...)
	if row > 0 {
		msg = fmt.Sprintf("sheet '%s', row %d: %s", sheet, row, msg)
	} else {
		msg = fmt.Sprintf("sheet '%s': %s", sheet, msg)
	}
	return apperr.ErrImport.Msgf("%s", msg).With("sheet", sheet).With("row", row)
}

func (r sheetRow) optional(column string) string {
	return strings.TrimSpace(r.values[column])
}

func (r sheetRow) required(column string) (string, error) {
	v := r.optional(column)
	if v == "" {
		return "", importError(r.sheet, r.number, "missing required value in column '%s'", column)
	}
	return v, nil
}

func (r sheetRow) decimal(column string, required bool) (decimal.Decimal, error) {
	v := strings.ReplaceAll(r.optional(column), ",", "")
	if v == "" {
		if required {
			return decimal.Zero, importError(r.sheet, r.number, "missing required value in column '%s'", column)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero, importError(r.sheet, r.number, "invalid number '%s' in column '%s'", v, column)
	}
	return d, nil
}

func (r sheetRow) integer(column string) (int, error) {
	v := strings.ReplaceAll(r.optional(column), ",", "")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, importError(r.sheet, r.number, "invalid whole number '%s' in column '%s'", v, column)
	}
	return n, nil
}

// readSheet returns the data rows of sheet. Header cells name the columns;
// required lists headers that must be present.
func readSheet(f *excelize.File, sheet string, required ...string) ([]sheetRow, error) {
	found := false
	for _, name := range f.GetSheetList() {
		if name == sheet {
			found = true
			break
		}
	}
	if !found {
		return nil, importError(sheet, 0, "sheet not found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, importError(sheet, 0, "unreadable sheet").Wrap(err)
	}
	if len(rows) == 0 {
		return nil, importError(sheet, 0, "missing header row")
	}

	headers := make([]string, len(rows[0]))
	present := map[string]bool{}
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		present[headers[i]] = true
	}
	for _, column := range required {
		if !present[column] {
			return nil, importError(sheet, 0, "column '%s' not found", column)
		}
	}

	out := make([]sheetRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := sheetRow{sheet: sheet, number: i + 2, values: map[string]string{}}
		blank := true
		for j, cell := range cells {
			if j < len(headers) && headers[j] != "" {
				row.values[headers[j]] = cell
				if strings.TrimSpace(cell) != "" {
					blank = false
				}
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}

// Import loads a workbook in a single transaction. Catalog rows are matched
// by name (customers by name and phone) and created when missing; products
// are matched by SKU. Any error rolls back the whole import.
func (s *importService) Import(ctx context.Context, r io.Reader, actor Actor) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.ErrImport.Msgf("could not open workbook").Wrap(err)
	}
	defer f.Close()

	// 1. Parse every sheet before touching the database
	categories, err := readSheet(f, SheetCategories, "Name")
	if err != nil {
		return nil, err
	}
	suppliers, err := readSheet(f, SheetSuppliers, "Name")
	if err != nil {
		return nil, err
	}
	attributes, err := readSheet(f, SheetAttributes, "Name")
	if err != nil {
		return nil, err
	}
	customers, err := readSheet(f, SheetCustomers, "Name")
	if err != nil {
		return nil, err
	}
	products, err := readSheet(f, SheetProducts, "SKU", "Name", "Unit", "Cost Price", "Retail Price")
	if err != nil {
		return nil, err
	}

	// 2. Apply in order inside one transaction
	result := &ImportResult{}
	err = s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.importCategories(tx, categories, actor, result); err != nil {
			return err
		}
		if err := s.importSuppliers(tx, suppliers, actor, result); err != nil {
			return err
		}
		if err := s.importAttributes(tx, attributes, actor, result); err != nil {
			return err
		}
		if err := s.importCustomers(tx, customers, actor, result); err != nil {
			return err
		}
		return s.importProducts(tx, products, actor, result)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("workbook imported",
		zap.Int("categories", result.Categories),
		zap.Int("suppliers", result.Suppliers),
		zap.Int("attributes", result.Attributes),
		zap.Int("customers", result.Customers),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("products_updated", result.ProductsUpdated),
		zap.String("user", actor.By()),
	)
	s.core.Notifier.Publish("stock_update", map[string]interface{}{
		"action":  "import",
		"result":  result,
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s imported %d new product(s)", actor.Name, result.ProductsCreated),
	})
	return result, nil
}

func isMissing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *importService) importCategories(tx *gorm.DB, rows []sheetRow, actor Actor, result *ImportResult) error {
	repo := s.core.Repos.Categories.WithTx(tx)
	for _, row := range rows {
		name, err := row.required("Name")
		if err != nil {
			return err
		}
		if _, err := repo.FindOne(map[string]interface{}{"name": name}); err == nil {
			continue
		} else if !isMissing(err) {
			return err
		}
		c := &model.Category{Name: name}
		c.CreatedBy, c.UpdatedBy = actor.By(), actor.By()
		if err := repo.Create(c); err != nil {
			return err
		}
		result.Categories++
	}
	return nil
}

func (s *importService) importSuppliers(tx *gorm.DB, rows []sheetRow, actor Actor, result *ImportResult) error {
	repo := s.core.Repos.Suppliers.WithTx(tx)
	for _, row := range rows {
		name, err := row.required("Name")
		if err != nil {
			return err
		}
		if _, err := repo.FindOne(map[string]interface{}{"name": name}); err == nil {
			continue
		} else if !isMissing(err) {
			return err
		}
		sup := &model.Supplier{
			Name:    name,
			Phone:   row.optional("Phone"),
			Email:   row.optional("Email"),
			Address: row.optional("Address"),
		}
		sup.CreatedBy, sup.UpdatedBy = actor.By(), actor.By()
		if err := repo.Create(sup); err != nil {
			return err
		}
		result.Suppliers++
	}
	return nil
}

func (s *importService) importAttributes(tx *gorm.DB, rows []sheetRow, actor Actor, result *ImportResult) error {
	repo := s.core.Repos.Attributes.WithTx(tx)
	for _, row := range rows {
		name, err := row.required("Name")
		if err != nil {
			return err
		}
		if _, err := repo.FindOne(map[string]interface{}{"name": name}); err == nil {
			continue
		} else if !isMissing(err) {
			return err
		}
		a := &model.ProductAttribute{Name: name}
		a.CreatedBy, a.UpdatedBy = actor.By(), actor.By()
		if err := repo.Create(a); err != nil {
			return err
		}
		result.Attributes++
	}
	return nil
}

func (s *importService) importCustomers(tx *gorm.DB, rows []sheetRow, actor Actor, result *ImportResult) error {
	repo := s.core.Repos.Customers.WithTx(tx)
	for _, row := range rows {
		name, err := row.required("Name")
		if err != nil {
			return err
		}
		phone := row.optional("Phone")
		if _, err := repo.FindOne(map[string]interface{}{"name": name, "phone": phone}); err == nil {
			continue
		} else if !isMissing(err) {
			return err
		}
		c := &model.Customer{Name: name, Phone: phone, Address: row.optional("Address")}
		c.CreatedBy, c.UpdatedBy = actor.By(), actor.By()
		if err := repo.Create(c); err != nil {
			return err
		}
		result.Customers++
	}
	return nil
}

func (s *importService) importProducts(tx *gorm.DB, rows []sheetRow, actor Actor, result *ImportResult) error {
	for _, row := range rows {
		req, err := s.productRequest(tx, row)
		if err != nil {
			return err
		}
		if err := req.normalize(); err != nil {
			return importError(row.sheet, row.number, "%s", apperr.As(err).Message)
		}

		existing, err := s.core.Repos.Products.WithTx(tx).FindBySKU(req.SKU)
		if err != nil && !isMissing(err) {
			return err
		}
		if existing != nil {
			if err := s.products.updateProduct(tx, existing, req, actor); err != nil {
				return importError(row.sheet, row.number, "%s", apperr.As(err).Message)
			}
			result.ProductsUpdated++
			continue
		}
		if _, err := s.products.createProduct(tx, req, actor); err != nil {
			return importError(row.sheet, row.number, "%s", apperr.As(err).Message)
		}
		result.ProductsCreated++
	}
	return nil
}

func (s *importService) productRequest(tx *gorm.DB, row sheetRow) (*ProductRequest, error) {
	req := &ProductRequest{Barcode: row.optional("Barcode")}
	var err error
	if req.SKU, err = row.required("SKU"); err != nil {
		return nil, err
	}
	if req.Name, err = row.required("Name"); err != nil {
		return nil, err
	}
	if req.Unit, err = row.required("Unit"); err != nil {
		return nil, err
	}
	if req.CostPrice, err = row.decimal("Cost Price", true); err != nil {
		return nil, err
	}
	if req.RetailPrice, err = row.decimal("Retail Price", true); err != nil {
		return nil, err
	}
	if req.WholesalePrice, err = row.decimal("Wholesale Price", false); err != nil {
		return nil, err
	}
	if req.InitialStock, err = row.integer("Initial Stock"); err != nil {
		return nil, err
	}
	if req.MinimumStockLevel, err = row.integer("Minimum Stock"); err != nil {
		return nil, err
	}

	if name := row.optional("Category"); name != "" {
		c, err := s.core.Repos.Categories.WithTx(tx).FindOne(map[string]interface{}{"name": name})
		if err != nil {
			if isMissing(err) {
				return nil, importError(row.sheet, row.number, "category '%s' is not defined", name)
			}
			return nil, err
		}
		req.CategoryID = &c.ID
	}
	if name := row.optional("Supplier"); name != "" {
		sup, err := s.core.Repos.Suppliers.WithTx(tx).FindOne(map[string]interface{}{"name": name})
		if err != nil {
			if isMissing(err) {
				return nil, importError(row.sheet, row.number, "supplier '%s' is not defined", name)
			}
			return nil, err
		}
		req.SupplierID = &sup.ID
	}

	// Units: "Box:24;Pack:6"
	for _, pair := range splitPairs(row.optional("Units")) {
		factor, err := strconv.Atoi(pair[1])
		if err != nil || factor <= 0 || factor > pricing.MaxConversionFactor {
			return nil, importError(row.sheet, row.number, "invalid conversion factor '%s' for unit '%s'", pair[1], pair[0])
		}
		req.Units = append(req.Units, UnitRequest{Name: pair[0], ConversionFactor: factor})
	}
	if raw := row.optional("Units"); raw != "" && len(req.Units) == 0 {
		return nil, importError(row.sheet, row.number, "invalid units '%s'", raw)
	}

	// Attributes: "Color:Red;Volume:330ml"
	for _, pair := range splitPairs(row.optional("Attributes")) {
		a, err := s.core.Repos.Attributes.WithTx(tx).FindOne(map[string]interface{}{"name": pair[0]})
		if err != nil {
			if isMissing(err) {
				return nil, importError(row.sheet, row.number, "attribute '%s' is not defined", pair[0])
			}
			return nil, err
		}
		req.Attributes = append(req.Attributes, AttributeValueRequest{AttributeID: a.ID, Value: pair[1]})
	}
	return req, nil
}

// splitPairs parses "a:1;b:2". Malformed pairs are skipped.
func splitPairs(raw string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(raw, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			continue
		}
		out = append(out, [2]string{k, v})
	}
	return out
}
