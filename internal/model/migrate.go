package model

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Category{}, &Supplier{}, &Customer{}, &ProductAttribute{},
		&Product{}, &ProductUnit{}, &ProductAttributeValue{},
		&StockTransaction{},
		&Promotion{}, &Invoice{}, &InvoiceDetail{},
		&GoodsReceipt{}, &GoodsReceiptDetail{},
		&ReturnSlip{}, &ReturnSlipDetail{},
		&SupplierReturnSlip{}, &SupplierReturnSlipDetail{},
		&ExchangeRate{}, &FundTransaction{}, &DebtPayment{},
	}
}
