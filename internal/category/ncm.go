package category

// ncmPrefixes maps the leading two digits of an NCM code (the Mercosul
// chapter) to a category. Only chapters that show up on consumer fiscal
// documents are listed; anything else falls through to the keyword result.
var ncmPrefixes = map[string]Category{
	"02": Groceries, // meat
	"03": Groceries, // fish
	"04": Groceries, // dairy, eggs
	"07": Groceries, // vegetables
	"08": Groceries, // fruit
	"09": Groceries, // coffee, tea, spices
	"10": Groceries, // cereals
	"11": Groceries, // milling products
	"15": Groceries, // fats and oils
	"16": Groceries, // meat preparations
	"17": Groceries, // sugars
	"18": Groceries, // cocoa
	"19": Groceries, // cereal preparations, bakery
	"20": Groceries, // vegetable/fruit preparations
	"21": Groceries, // miscellaneous edible
	"22": Groceries, // beverages
	"23": Pets,      // prepared animal feed
	"27": Fuel,      // mineral fuels
	"30": Pharmacy,  // pharmaceutical products
	"33": Health,    // cosmetics, hygiene
	"34": Home,      // soaps, cleaning
	"39": Home,      // plastics (household articles)
	"48": Home,      // paper articles
	"49": Education, // books, printed matter
	"61": Clothing,  // knitted apparel
	"62": Clothing,  // woven apparel
	"64": Clothing,  // footwear
	"85": Electronics,
	"87": Transport, // vehicles and parts
	"95": Entertainment,
}

// byNCM resolves a full NCM code to a category through its two-digit
// chapter prefix. Returns Other and false when the chapter is unmapped or
// the code is too short.
func byNCM(ncm string) (Category, bool) {
	if len(ncm) < 2 {
		return Other, false
	}

	c, ok := ncmPrefixes[ncm[:2]]
	if !ok {
		return Other, false
	}

	return c, true
}
