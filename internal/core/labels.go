package core

// AidType values are the display labels stored as aid record titles.
type AidType string

const (
	AidFoodBasket AidType = "Cesta Básica"
	AidClothes    AidType = "Roupas"
	AidMedicine   AidType = "Medicamentos"
	AidFinancial  AidType = "Financeiro"
	AidSpiritual  AidType = "Apoio Espiritual"
	AidGas        AidType = "Gás"
	AidOther      AidType = "Outros"
)

const (
	ColorIncome  = "#22c55e"
	ColorExpense = "#ef4444"
)

var aidColors = map[AidType]string{
	AidFoodBasket: "#f97316",
	AidClothes:    "#EAB308",
	AidMedicine:   "#14b8a6",
	AidGas:        "#ef4444",
	AidFinancial:  "#22c55e",
	AidSpiritual:  "#a855f7",
	AidOther:      "#64748b",
}

// AidTypes lists every aid type in form order.
func AidTypes() []AidType {
	return []AidType{AidFoodBasket, AidClothes, AidMedicine, AidFinancial, AidSpiritual, AidGas, AidOther}
}

func (a AidType) Label() string { return string(a) }

func (a AidType) IsValid() bool {
	_, ok := aidColors[a]
	return ok
}

// Color returns the statistics color, falling back to the Other color.
func (a AidType) Color() string {
	if c, ok := aidColors[a]; ok {
		return c
	}
	return aidColors[AidOther]
}

// Suggested ledger categories. They are offered to the operator but never
// enforced.
var (
	IncomeCategories  = []string{"Dízimos", "Ofertas", "Doação", "Venda de Eventos", "Outros"}
	ExpenseCategories = []string{"Ajuda Social", "Contas (Luz/Água)", "Manutenção", "Material de Limpeza", "Combustível", "Outros"}
)

// CategoriesFor returns the suggested categories for a transaction type.
func CategoriesFor(t TransactionType) []string {
	if t == Expense {
		return append([]string(nil), ExpenseCategories...)
	}
	return append([]string(nil), IncomeCategories...)
}
