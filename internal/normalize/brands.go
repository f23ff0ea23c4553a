package normalize

import "strings"

// brandLexicon is the curated list of consumer-goods brands seen on Brazilian
// fiscal coupons. Matching is whole-word and case-insensitive; the first
// brand found in a description is extracted and removed from the working
// string. Multi-word brands are listed space-separated and matched against a
// sliding window of tokens, longest window first.
var brandLexicon = []string{
	// dairy
	"italac", "tirol", "piracanjuba", "parmalat", "elegê", "elege", "batavo",
	"nestlé", "nestle", "danone", "vigor", "itambé", "itambe", "molico",
	"ninho", "polenghi", "catupiry", "scala", "quatá", "quata",
	// beverages
	"coca cola", "coca", "pepsi", "guaraná antarctica", "guarana antarctica",
	"fanta", "sprite", "sukita", "dolly", "tubaína", "tubaina", "crystal",
	"bonafont", "minalba", "são lourenço", "sao lourenco", "del valle",
	"tang", "nescau", "toddy", "ovomaltine", "leão", "leao", "matte",
	"skol", "brahma", "antarctica", "heineken", "budweiser", "stella",
	"itaipava", "petra", "amstel", "eisenbahn", "original", "bohemia",
	"salton", "aurora", "miolo", "concha y toro", "pérgola", "pergola",
	"smirnoff", "ypioca", "ypióca", "velho barreiro", "51", "jack daniels",
	"red bull", "monster", "gatorade", "powerade",
	// staples
	"tio joão", "tio joao", "camil", "prato fino", "kicaldo", "caldo bom",
	"broto legal", "união", "uniao", "caravelas", "guarani", "dona benta",
	"renata", "adria", "barilla", "petybon", "galo", "vitarella",
	"fortaleza", "piraquê", "piraque", "bauducco", "marilan", "nesfit",
	"trakinas", "oreo", "club social", "passatempo", "negresco",
	"qualitá", "qualita", "taeq", "carrefour", "great value",
	// meats and frozen
	"sadia", "perdigão", "perdigao", "seara", "aurora", "friboi", "swift",
	"maturatta", "montana", "pif paf", "copacol", "lar", "anglo",
	// pantry
	"hellmanns", "heinz", "quero", "fugini", "elefante", "pomarola",
	"knorr", "maggi", "arisco", "sazón", "sazon", "kitano", "ajinomoto",
	"soya", "liza", "cocamar", "gallo", "andorinha", "maria",
	"colombo", "3 corações", "3 coracoes", "pilão", "pilao", "melitta",
	"caboclo", "santa clara",
	// sweets
	"lacta", "garoto", "hersheys", "arcor", "fini", "haribo", "dori",
	"kinder", "ferrero", "sonho de valsa", "diamante negro",
	// hygiene and cleaning
	"omo", "ariel", "tixan", "brilhante", "ace", "ypê", "ype", "limpol",
	"minuano", "veja", "pinho sol", "cif", "sbp", "raid", "baygon",
	"downy", "comfort", "mon bijou", "qboa", "candura", "clorox",
	"colgate", "sorriso", "oral b", "sensodyne", "close up", "listerine",
	"dove", "lux", "protex", "rexona", "nivea", "natura", "palmolive",
	"phebo", "granado", "johnson", "huggies", "pampers", "mili",
	"pantene", "seda", "elseve", "tresemme", "clear", "head shoulders",
	// pharma
	"medley", "eurofarma", "ems", "neo química", "neo quimica", "germed",
	"dorflex", "neosaldina", "novalgina", "tylenol", "advil", "aspirina",
	"buscopan", "benegrip", "vick", "engov", "epocler", "eno", "sonridor",
	// pet
	"pedigree", "whiskas", "golden", "premier", "royal canin", "friskies",
	// electro and misc
	"philips", "samsung", "lg", "electrolux", "brastemp", "consul",
	"tramontina", "mor", "scotch brite", "bombril", "assolan",
	"duracell", "rayovac", "panasonic", "bic", "gillette", "prestobarba",
}

// brandIndex maps lower-cased brand tokens (joined by single spaces) to the
// display form recorded on the normalized product. Built once at init.
var brandIndex = buildBrandIndex()

// maxBrandTokens is the longest brand in the lexicon, in tokens.
var maxBrandTokens = func() int {
	maxLen := 1
	for _, b := range brandLexicon {
		if n := len(strings.Fields(b)); n > maxLen {
			maxLen = n
		}
	}

	return maxLen
}()

func buildBrandIndex() map[string]string {
	idx := make(map[string]string, len(brandLexicon))

	for _, b := range brandLexicon {
		key := strings.ToLower(strings.Join(strings.Fields(b), " "))
		if _, ok := idx[key]; !ok {
			idx[key] = titleCase(b)
		}
	}

	return idx
}

// extractBrand scans the tokenized description for the first lexicon brand,
// longest token window first, and returns the display brand plus the tokens
// with the brand removed. Returns ok=false when no lexicon brand occurs.
//
// There is deliberately no "first capitalized words" heuristic fallback:
// coupon descriptions are usually all-caps, which makes that heuristic pure
// noise on this input.
func extractBrand(tokens []string) (brand string, rest []string, ok bool) {
	for window := maxBrandTokens; window >= 1; window-- {
		for i := 0; i+window <= len(tokens); i++ {
			key := strings.Join(tokens[i:i+window], " ")

			display, found := brandIndex[key]
			if !found {
				continue
			}

			rest = append(rest, tokens[:i]...)
			rest = append(rest, tokens[i+window:]...)

			return display, rest, true
		}
	}

	return "", tokens, false
}
