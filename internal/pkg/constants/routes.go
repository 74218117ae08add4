package constants

// Route constants shared by the router and the links written into calendar events
const (
	APIPrefix = "/api"
	// ConfirmRoute is the public confirmation endpoint below APIPrefix
	ConfirmRoute = "/installments/confirm"
	// ConfirmPageRoute serves the confirmation form
	ConfirmPageRoute = "/installments/confirm"
	HomeRoute        = "/"
)
