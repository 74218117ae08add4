package installments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/constants"
)

// ConfirmLinkPlaceholder is substituted by the calendar client with the event link.
const ConfirmLinkPlaceholder = "{CALENDAR_LINK}"

var printer = message.NewPrinter(language.English)

// FormatAmount renders amount in the given ISO 4217 currency.
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strings.TrimSpace(code + " " + amount.StringFixed(2))
	}
	return printer.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}

func eventTitle(sub *models.Subscription) string {
	return "Payment: " + sub.Name
}

func eventDescription(sub *models.Subscription, currencyCode, apiURL string) string {
	confirmURL := strings.TrimRight(apiURL, "/") + constants.APIPrefix + constants.ConfirmRoute + "?link=" + ConfirmLinkPlaceholder
	return fmt.Sprintf("Subscription payment for %s\nAmount: %s\nType: %s\n\nConfirm payment: %s",
		sub.Name, FormatAmount(sub.Price, currencyCode), sub.Type, confirmURL)
}
