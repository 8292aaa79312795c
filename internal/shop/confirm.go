package shop

// Prompt is shown to the user before a destructive action.
type Prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var (
	ClearCartPrompt = Prompt{
		Title:   "Empty cart",
		Message: "Are you sure you want to empty the cart?",
	}
	DeleteProductPrompt = Prompt{
		Title:   "Delete product",
		Message: "Are you sure you want to delete this product?",
	}
)

// Confirmer decides whether a destructive action goes ahead. Confirm is
// called with the shop locked and must not call back into the Shop.
type Confirmer interface {
	Confirm(Prompt) bool
}

type ConfirmFunc func(Prompt) bool

func (f ConfirmFunc) Confirm(p Prompt) bool {
	return f(p)
}

// AlwaysConfirm is for front ends that already asked the user.
var AlwaysConfirm = ConfirmFunc(func(Prompt) bool { return true })
