package notify

import (
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"storefront/internal/models"
)

var (
	printer   = message.NewPrinter(language.English)
	storeZone = time.FixedZone("EAT", 3*60*60)
)

// Ksh renders an amount with thousands separators, e.g. "Ksh 17,010".
func Ksh(amount int64) string {
	return printer.Sprintf("Ksh %d", amount)
}

var orderTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"esc": html.EscapeString,
	"ksh": Ksh,
	"date": func(t time.Time) string {
		return t.In(storeZone).Format("02/01/2006, 15:04:05")
	},
}).Parse(`🛍️ <b>NEW ORDER RECEIVED!</b>

📋 <b>Order Details:</b>
Order #: {{esc .OrderNumber}}
Date: {{date .CreatedAt}}

👤 <b>Customer Info:</b>
Name: {{esc .Customer.Name}}
Email: {{esc .Customer.Email}}
Phone: {{esc .Customer.Phone}}

📦 <b>Items Ordered:</b>
{{range .Items}}• {{esc .Name}} ({{esc .LaceSize}}, {{esc .InchSize}}) - Qty: {{.Quantity}} - {{ksh .Total}}
{{end}}
🚚 <b>Delivery:</b>
Method: {{esc .Delivery.Label}}

💰 <b>Payment Summary:</b>
Subtotal: {{ksh .Subtotal}}
Delivery Fee: {{ksh .DeliveryFee}}
<b>Total: {{ksh .Total}}</b>

💳 <b>M-Pesa Transaction ID:</b>
{{esc .PaymentReference}}

⏰ <b>Expected Delivery:</b> 5-14 business days

---
🎯 Please process this order promptly!`))

// RenderOrderMessage is the HTML text posted to the messaging relay.
func RenderOrderMessage(order models.Order) (string, error) {
	var b strings.Builder
	if err := orderTemplate.Execute(&b, order); err != nil {
		return "", err
	}
	return b.String(), nil
}

// AdminNotice is the inbox row written for one admin.
func AdminNotice(order models.Order, recipient, senderEmail string, now time.Time) models.Message {
	body := fmt.Sprintf(
		"New order received from %s (%s)\nTotal: %s\nM-Pesa ID: %s\n\nPlease check the admin dashboard for full details.",
		order.Customer.Name,
		order.Customer.Email,
		Ksh(order.Total),
		order.PaymentReference,
	)
	return models.Message{
		CustomerName:   models.SystemSenderName,
		CustomerEmail:  senderEmail,
		RecipientEmail: recipient,
		Subject:        "🛍️ NEW ORDER: " + order.OrderNumber,
		Body:           body,
		Status:         models.MessageUnread,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
