// Package catalog holds the records the shop backend exchanges: goods,
// categories, and orders. Field names follow the backend's JSON.
package catalog

// Image is a picture attached to a good. URL is relative to the backend host.
type Image struct {
	URL string `json:"url" yaml:"url"`
}

// Good is a catalog item.
type Good struct {
	ID          string  `json:"_id" yaml:"_id"`
	Name        string  `json:"name,omitempty" yaml:"name"`
	Price       float64 `json:"price,omitempty" yaml:"price"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Images      []Image `json:"images,omitempty" yaml:"images"`
}

// Category groups goods. SubCategories only carry ids and names.
type Category struct {
	ID            string     `json:"_id" yaml:"_id"`
	Name          string     `json:"name,omitempty" yaml:"name"`
	Goods         []Good     `json:"goods,omitempty" yaml:"-"`
	SubCategories []Category `json:"subCategories,omitempty" yaml:"-"`
}

// Order is a placed order as returned by the order history query.
type Order struct {
	ID         string      `json:"_id"`
	CreatedAt  string      `json:"createdAt,omitempty"`
	Total      float64     `json:"total"`
	OrderGoods []OrderGood `json:"orderGoods,omitempty"`
}

// OrderGood is one line of a placed order, priced at order time.
type OrderGood struct {
	ID    string  `json:"_id,omitempty"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
	Good  Good    `json:"good"`
}

// OrderLine is one line of a new order: a count and a good reference.
type OrderLine struct {
	Count int     `json:"count"`
	Good  GoodRef `json:"good"`
}

// GoodRef references a good by id.
type GoodRef struct {
	ID string `json:"_id"`
}

// User is a registered account.
type User struct {
	ID    string `json:"_id"`
	Login string `json:"login,omitempty"`
}
