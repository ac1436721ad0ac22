package core

// Category is a labeled value presented by clients and stored by value.
type Category struct {
	Label string
	Value string
}

// Categories lists the known movement categories. The value is what
// gets persisted; the label is presentation-only.
func Categories() []Category {
	return []Category{
		{Label: "🛒 Alimentación / Super", Value: "Alimentación"},
		{Label: "💡 Servicios (Luz, Gas, etc)", Value: "Servicios"},
		{Label: "⛽ Transporte / Nafta", Value: "Transporte"},
		{Label: "💊 Salud / Farmacia", Value: "Salud"},
		{Label: "🎓 Educación", Value: "Educación"},
		{Label: "🎬 Entretenimiento", Value: "Entretenimiento"},
		{Label: "🏠 Hogar", Value: "Hogar"},
		{Label: "👕 Vestimenta", Value: "Vestimenta"},
		{Label: "💰 Sueldo", Value: "Sueldo"},
		{Label: "📄 Honorarios", Value: "Honorarios"},
		{Label: "🤝 Venta", Value: "Venta"},
		{Label: "🏦 Préstamo", Value: "Préstamo"},
		{Label: "📈 Inversión", Value: "Inversión"},
		{Label: "🎁 Regalo", Value: "Regalo"},
		{Label: "✨ Otros", Value: "Otros"},
	}
}

// PaymentMethods lists the accepted payment methods.
func PaymentMethods() []string {
	return []string{
		"Efectivo",
		"Tarjeta Débito",
		"Tarjeta Crédito",
		"Mercado Pago",
		"Transferencia Bancaria",
	}
}

// InstallmentOptions lists the installment counts the UI offers.
func InstallmentOptions() []int {
	return []int{1, 2, 3, 6, 9, 12, 18, 24}
}
