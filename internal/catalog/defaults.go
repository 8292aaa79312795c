package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryHome        = "Home"
	CategorySports      = "Sports"
	CategoryBooks       = "Books"
)

// DefaultCategories are the categories of the seed catalog, in display order.
var DefaultCategories = []string{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategorySports,
	CategoryBooks,
}

type seedProduct struct {
	name        string
	category    string
	price       string
	stock       int
	description string
	icon        string
}

var seedProducts = []seedProduct{
	{"Laptop Dell XPS 13", CategoryElectronics, "1299.99", 5, "Ultra-thin laptop with an Intel i7 processor", "💻"},
	{"iPhone 14 Pro", CategoryElectronics, "999.99", 8, "Latest generation smartphone", "📱"},
	{"Sony WH-1000XM5 Headphones", CategoryElectronics, "399.99", 12, "Premium noise cancelling", "🎧"},
	{"Nike Dri-FIT T-Shirt", CategoryClothing, "34.99", 25, "Breathable sports t-shirt", "👕"},
	{"Adidas Ultraboost Sneakers", CategoryClothing, "179.99", 15, "Running sneakers", "👟"},
	{"Levi's 501 Jeans", CategoryClothing, "89.99", 20, "Classic straight fit jeans", "👖"},
	{"Nespresso Coffee Maker", CategoryHome, "149.99", 10, "Automatic capsule coffee maker", "☕"},
	{"Roomba Robot Vacuum", CategoryHome, "299.99", 7, "Smart automatic cleaning", "🤖"},
	{"Philips Hue LED Lamp", CategoryHome, "59.99", 18, "Smart RGB lighting", "💡"},
	{"Nike Football", CategorySports, "29.99", 30, "Official match ball", "⚽"},
	{"Trek Mountain Bike", CategorySports, "899.99", 4, "Full suspension MTB", "🚴"},
	{"Adjustable Dumbbells 20kg", CategorySports, "149.99", 12, "Training weight set", "🏋️"},
	{"Don Quixote - Cervantes", CategoryBooks, "19.99", 50, "Classic of Spanish literature", "📖"},
	{"Sapiens - Yuval Harari", CategoryBooks, "24.99", 35, "A brief history of humankind", "📚"},
	{"Harry Potter Collection", CategoryBooks, "79.99", 15, "Complete set of 7 books", "🧙"},
}

// DefaultProducts returns the seed catalog with sequential ids starting at 1.
func DefaultProducts() []domain.Product {
	products := make([]domain.Product, 0, len(seedProducts))
	for i, p := range seedProducts {
		products = append(products, domain.Product{
			ID:          i + 1,
			Name:        p.name,
			Category:    p.category,
			Price:       decimal.RequireFromString(p.price),
			Stock:       p.stock,
			Description: p.description,
			Icon:        p.icon,
		})
	}
	return products
}
