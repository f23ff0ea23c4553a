package category

// Category is the fixed classification taxonomy for merchants, invoices and
// products. Values are stored as-is, so renaming one is a data migration.
type Category string

const (
	Pharmacy      Category = "pharmacy"
	Groceries     Category = "groceries"
	Supermarket   Category = "supermarket"
	Restaurant    Category = "restaurant"
	Fuel          Category = "fuel"
	Retail        Category = "retail"
	Services      Category = "services"
	Home          Category = "home"
	Electronics   Category = "electronics"
	Clothing      Category = "clothing"
	Entertainment Category = "entertainment"
	Transport     Category = "transport"
	Health        Category = "health"
	Education     Category = "education"
	Pets          Category = "pets"
	Other         Category = "other"
)

// All returns every known category, fallback included.
func All() []Category {
	return []Category{
		Pharmacy, Groceries, Supermarket, Restaurant, Fuel, Retail, Services,
		Home, Electronics, Clothing, Entertainment, Transport, Health,
		Education, Pets, Other,
	}
}

// Valid reports whether c is a member of the taxonomy.
func (c Category) Valid() bool {
	for _, known := range All() {
		if c == known {
			return true
		}
	}

	return false
}
