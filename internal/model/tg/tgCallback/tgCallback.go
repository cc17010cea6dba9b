package tgCallback

// Callbacks buttons uniques
const (
	Refresh   string = "refresh"
	Record    string = "record"
	Rebalance string = "rebalance" // запросить сумму и показать план ребалансировки
	Report    string = "report"
	History   string = "history"
	// data: номер страницы
	HoldingsPage string = "holdings_page"
)
