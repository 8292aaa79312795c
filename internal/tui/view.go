package tui

import (
	"fmt"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/shop"
)

func (m Model) View() string {
	b := &strings.Builder{}

	m.renderHeader(b)
	fmt.Fprintln(b)

	switch {
	case m.confirm != nil:
		renderConfirm(b, m.confirm.prompt)
	case m.choosingMethod:
		m.renderCheckout(b)
	default:
		switch m.tab {
		case tabProducts:
			m.renderProducts(b, false)
		case tabCart:
			m.renderCart(b)
		case tabPayments:
			m.renderPayments(b)
		case tabInvoices:
			m.renderInvoices(b)
		case tabUsers:
			m.renderUsers(b)
		case tabAdmin:
			m.renderProducts(b, true)
		}
	}

	m.renderToasts(b)
	fmt.Fprintf(b, "\n%s\n", m.help())
	return b.String()
}

func (m Model) renderHeader(b *strings.Builder) {
	for i, name := range tabNames {
		if tab(i) == m.tab {
			fmt.Fprintf(b, "[%d %s] ", i+1, name)
		} else {
			fmt.Fprintf(b, " %d %s  ", i+1, name)
		}
	}
	fmt.Fprintln(b)

	user := "none"
	if u, ok := m.shop.CurrentUser(); ok {
		user = u.Name
	}
	fmt.Fprintf(b, "User: %s | Cart: %d item(s)\n", user, m.shop.Cart().Summary.Items)
}

func (m Model) marker(i int) string {
	if i == m.cursor {
		return ">"
	}
	return " "
}

func (m Model) renderProducts(b *strings.Builder, admin bool) {
	products := m.shop.Products(shop.ProductFilter{})
	if len(products) == 0 {
		fmt.Fprintln(b, "No products available.")
		return
	}
	for i, p := range products {
		fmt.Fprintf(b, "%s %s %-28s %-12s $%10s  %s\n",
			m.marker(i), p.Icon, p.Name, p.Category, p.Price.StringFixed(2), stockLabel(p))
		if admin {
			continue
		}
		if p.Description != "" && i == m.cursor {
			fmt.Fprintf(b, "     %s\n", p.Description)
		}
	}
}

func stockLabel(p domain.Product) string {
	switch p.StockLevel() {
	case domain.StockLevelOut:
		return "out of stock"
	case domain.StockLevelLow:
		return fmt.Sprintf("only %d left", p.Stock)
	default:
		return fmt.Sprintf("%d in stock", p.Stock)
	}
}

func (m Model) renderCart(b *strings.Builder) {
	view := m.shop.Cart()
	if len(view.Lines) == 0 {
		fmt.Fprintln(b, "Your cart is empty.")
		return
	}
	for i, line := range view.Lines {
		fmt.Fprintf(b, "%s %s %-28s %3d x $%s = $%s\n",
			m.marker(i), line.Icon, line.Name, line.Quantity,
			line.Price.StringFixed(2), line.Total().StringFixed(2))
	}
	renderSummary(b, view.Summary)
}

func renderSummary(b *strings.Builder, s domain.Summary) {
	fmt.Fprintf(b, "\nSubtotal: $%s\n", s.Subtotal.StringFixed(2))
	fmt.Fprintf(b, "Tax (12%%): $%s\n", s.Tax.StringFixed(2))
	fmt.Fprintf(b, "Total:    $%s\n", s.Total.StringFixed(2))
}

func (m Model) renderCheckout(b *strings.Builder) {
	fmt.Fprintf(b, "Order %s for %s\n", m.draft.OrderID, m.draft.User.Name)
	fmt.Fprintf(b, "Total: $%s\n\n", m.draft.Total.StringFixed(2))
	fmt.Fprintln(b, "Payment method:")
	for i, method := range domain.PaymentMethods {
		marker := " "
		if i == m.methodCursor {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s\n", marker, method.Label())
	}
	if m.paying() {
		fmt.Fprintln(b, "\nProcessing payment...")
	}
}

func (m Model) renderPayments(b *strings.Builder) {
	if m.loading {
		fmt.Fprintln(b, "Loading payments...")
		return
	}
	if len(m.payments) == 0 {
		fmt.Fprintln(b, "No payments recorded.")
		return
	}
	for i, p := range m.payments {
		fmt.Fprintf(b, "%s #%-6s %-20s user %-4d $%10s  %-14s %-10s %s\n",
			m.marker(i), p.ID, p.OrderID, p.UserID, p.TotalAmount.StringFixed(2),
			p.Method.Label(), p.Status, formatTime(p.CreatedAt))
	}
}

func (m Model) renderInvoices(b *strings.Builder) {
	if m.loading {
		fmt.Fprintln(b, "Loading invoices...")
		return
	}
	if len(m.invoices) == 0 {
		fmt.Fprintln(b, "No invoices issued.")
		return
	}
	for i, inv := range m.invoices {
		fmt.Fprintf(b, "%s %-20s %-20s user %-4d subtotal $%s tax $%s total $%s  %s\n",
			m.marker(i), inv.InvoiceNumber, inv.OrderID, inv.UserID,
			inv.Subtotal.StringFixed(2), inv.Tax.StringFixed(2), inv.TotalAmount.StringFixed(2),
			formatTime(inv.IssuedAt))
	}
}

func formatTime(t domain.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func (m Model) renderUsers(b *strings.Builder) {
	current, hasCurrent := m.shop.CurrentUser()
	for i, u := range m.shop.Users() {
		active := ""
		if hasCurrent && u.ID == current.ID {
			active = " (current)"
		}
		fmt.Fprintf(b, "%s %s <%s>%s\n", m.marker(i), u.Name, u.Email, active)
	}
}

func renderConfirm(b *strings.Builder, p shop.Prompt) {
	fmt.Fprintf(b, "%s\n\n%s\n\n[y] confirm  [n] cancel\n", p.Title, p.Message)
}

func (m Model) renderToasts(b *strings.Builder) {
	active := m.shop.Notifications()
	if len(active) == 0 {
		return
	}
	fmt.Fprintln(b)
	for _, n := range active {
		fmt.Fprintf(b, "%s %s\n", toastIcon(n.Kind), n.Message)
	}
}

func toastIcon(k notify.Kind) string {
	switch k {
	case notify.Success:
		return "[ok]"
	case notify.Error:
		return "[error]"
	case notify.Warning:
		return "[warn]"
	default:
		return "[info]"
	}
}

func (m Model) help() string {
	switch {
	case m.confirm != nil:
		return "y confirm, n cancel"
	case m.choosingMethod:
		return "up/down choose method, enter pay, esc back"
	}
	switch m.tab {
	case tabProducts:
		return "tab switch, up/down move, enter add to cart, q quit"
	case tabCart:
		return "+/- quantity, d remove, c clear, p checkout, q quit"
	case tabPayments, tabInvoices:
		return "r reload, tab switch, q quit"
	case tabUsers:
		return "enter select user, tab switch, q quit"
	case tabAdmin:
		return "x delete product, tab switch, q quit"
	}
	return "q quit"
}
