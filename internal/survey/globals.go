package survey

// Global constant items. Formulas address them with the @ prefix.
var (
	TodayItem     = &ItemDef{Variable: "TODAY", Type: TypeDate}
	ThisYearItem  = &ItemDef{Variable: "THISYEAR", Type: TypeNumerical}
	SampleItem    = &ItemDef{Variable: "SAMPLE", Type: TypeText}
	AckItem       = &ItemDef{Variable: "ACK", Type: TypeYesNo}
	UndefinedItem = &ItemDef{Variable: "UNDEF", Type: TypeNone}
)

// GlobalItems lists the global constant items.
func GlobalItems() []*ItemDef {
	return []*ItemDef{TodayItem, ThisYearItem, SampleItem, AckItem, UndefinedItem}
}

// GlobalItem returns the global constant item named variable.
func GlobalItem(variable string) (*ItemDef, bool) {
	for _, def := range GlobalItems() {
		if def.Variable == variable {
			return def, true
		}
	}
	return nil, false
}

// IsGlobal reports whether def is a global constant item.
func IsGlobal(def *ItemDef) bool {
	for _, g := range GlobalItems() {
		if g == def {
			return true
		}
	}
	return false
}
