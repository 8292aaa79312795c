// Package tui is the terminal front end of the shop.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/shop"
)

type tab int

const (
	tabProducts tab = iota
	tabCart
	tabPayments
	tabInvoices
	tabUsers
	tabAdmin
)

var tabNames = []string{"Products", "Cart", "Payments", "Invoices", "Users", "Admin"}

const refreshInterval = 500 * time.Millisecond

type confirmDialog struct {
	prompt shop.Prompt
	action func(m *Model) tea.Cmd
}

type Model struct {
	ctx  context.Context
	shop *shop.Shop

	tab    tab
	cursor int

	confirm        *confirmDialog
	choosingMethod bool
	methodCursor   int
	draft          shop.Draft
	busy           bool

	payments []domain.Payment
	invoices []domain.Invoice
	loading  bool
}

func New(ctx context.Context, s *shop.Shop) Model {
	return Model{ctx: ctx, shop: s}
}

type tickMsg time.Time

type checkoutDoneMsg struct {
	receipt domain.Receipt
	err     error
}

type paymentsMsg struct {
	payments []domain.Payment
	err      error
}

type invoicesMsg struct {
	invoices []domain.Invoice
	err      error
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case checkoutDoneMsg:
		m.busy = false
		m.choosingMethod = false
		if msg.err == nil {
			m.cursor = 0
		}
		return m, nil
	case paymentsMsg:
		m.loading = false
		if msg.err == nil {
			m.payments = msg.payments
		}
		return m, nil
	case invoicesMsg:
		m.loading = false
		if msg.err == nil {
			m.invoices = msg.invoices
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != nil {
		switch key {
		case "y", "enter":
			action := m.confirm.action
			m.confirm = nil
			cmd := action(&m)
			return m, cmd
		case "n", "esc":
			m.confirm = nil
		}
		return m, nil
	}

	if m.choosingMethod {
		return m.handleMethodKey(key)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "tab", "right":
		return m.switchTab((m.tab + 1) % tab(len(tabNames)))
	case "shift+tab", "left":
		return m.switchTab((m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames)))
	case "1", "2", "3", "4", "5", "6":
		return m.switchTab(tab(key[0] - '1'))
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
		return m, nil
	}

	switch m.tab {
	case tabProducts:
		return m.handleProductsKey(key)
	case tabCart:
		return m.handleCartKey(key)
	case tabPayments, tabInvoices:
		if key == "r" {
			return m.switchTab(m.tab)
		}
	case tabUsers:
		if key == "enter" {
			if u, ok := m.selectedUser(); ok {
				_, _ = m.shop.SelectUser(m.ctx, u.ID)
			}
		}
	case tabAdmin:
		if key == "x" || key == "delete" {
			if p, ok := m.selectedProduct(); ok {
				id := p.ID
				m.confirm = &confirmDialog{
					prompt: shop.DeleteProductPrompt,
					action: func(m *Model) tea.Cmd {
						_, _ = m.shop.DeleteProduct(m.ctx, id, shop.AlwaysConfirm)
						m.clampCursor()
						return nil
					},
				}
			}
		}
	}
	return m, nil
}

func (m Model) switchTab(t tab) (tea.Model, tea.Cmd) {
	m.tab = t
	m.cursor = 0
	switch t {
	case tabPayments:
		m.loading = true
		return m, m.loadPayments()
	case tabInvoices:
		m.loading = true
		return m, m.loadInvoices()
	}
	return m, nil
}

func (m Model) handleProductsKey(key string) (tea.Model, tea.Cmd) {
	if key != "enter" && key != "a" {
		return m, nil
	}
	if p, ok := m.selectedProduct(); ok {
		_, _ = m.shop.AddToCart(m.ctx, p.ID)
	}
	return m, nil
}

func (m Model) handleCartKey(key string) (tea.Model, tea.Cmd) {
	lines := m.shop.Cart().Lines
	var line domain.CartLineItem
	hasLine := m.cursor < len(lines)
	if hasLine {
		line = lines[m.cursor]
	}

	switch key {
	case "+", "=":
		if hasLine {
			_, _ = m.shop.ChangeQuantity(m.ctx, line.ProductID, 1)
		}
	case "-":
		if hasLine {
			_, _ = m.shop.ChangeQuantity(m.ctx, line.ProductID, -1)
			m.clampCursor()
		}
	case "d":
		if hasLine {
			_ = m.shop.RemoveFromCart(m.ctx, line.ProductID)
			m.clampCursor()
		}
	case "c":
		if len(lines) > 0 {
			m.confirm = &confirmDialog{
				prompt: shop.ClearCartPrompt,
				action: func(m *Model) tea.Cmd {
					_, _ = m.shop.ClearCart(m.ctx, shop.AlwaysConfirm)
					m.clampCursor()
					return nil
				},
			}
		}
	case "p", "enter":
		draft, err := m.shop.PrepareCheckout(m.ctx)
		if err != nil {
			if _, ok := m.shop.CurrentUser(); !ok && errors.Is(err, shop.ErrMissingSelection) {
				return m.switchTab(tabUsers)
			}
			return m, nil
		}
		m.draft = draft
		m.choosingMethod = true
		m.methodCursor = 0
	}
	return m, nil
}

func (m Model) handleMethodKey(key string) (tea.Model, tea.Cmd) {
	if m.paying() {
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.methodCursor > 0 {
			m.methodCursor--
		}
	case "down", "j":
		if m.methodCursor < len(domain.PaymentMethods)-1 {
			m.methodCursor++
		}
	case "esc":
		m.choosingMethod = false
	case "enter":
		m.busy = true
		return m, m.checkout(domain.PaymentMethods[m.methodCursor])
	}
	return m, nil
}

// paying reports whether a payment started here or elsewhere on the same shop
// is still being submitted.
func (m Model) paying() bool {
	return m.busy || m.shop.CheckoutInProgress()
}

func (m Model) checkout(method domain.PaymentMethod) tea.Cmd {
	return func() tea.Msg {
		receipt, err := m.shop.Checkout(m.ctx, method)
		return checkoutDoneMsg{receipt: receipt, err: err}
	}
}

func (m Model) loadPayments() tea.Cmd {
	return func() tea.Msg {
		list, err := m.shop.Payments(m.ctx)
		return paymentsMsg{payments: list, err: err}
	}
}

func (m Model) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		list, err := m.shop.Invoices(m.ctx)
		return invoicesMsg{invoices: list, err: err}
	}
}

func (m Model) rows() int {
	switch m.tab {
	case tabProducts, tabAdmin:
		return len(m.shop.Products(shop.ProductFilter{}))
	case tabCart:
		return len(m.shop.Cart().Lines)
	case tabPayments:
		return len(m.payments)
	case tabInvoices:
		return len(m.invoices)
	case tabUsers:
		return len(m.shop.Users())
	}
	return 0
}

func (m *Model) clampCursor() {
	if n := m.rows(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) selectedProduct() (domain.Product, bool) {
	products := m.shop.Products(shop.ProductFilter{})
	if m.cursor < len(products) {
		return products[m.cursor], true
	}
	return domain.Product{}, false
}

func (m Model) selectedUser() (domain.User, bool) {
	list := m.shop.Users()
	if m.cursor < len(list) {
		return list[m.cursor], true
	}
	return domain.User{}, false
}
