package normalize

// Static lexicons used by the normalizer. All entries are lower case; the
// pipeline lower-cases its working string before consulting any of them.
// These tables are read-only after init; never mutate them at runtime.

// abbreviations expands domain short forms found on fiscal coupons. Matching
// is whole-word, so "integral" is never mangled by the "int" entry.
var abbreviations = map[string]string{
	"refri":  "refrigerante",
	"refrig": "refrigerante",
	"cerv":   "cerveja",
	"choc":   "chocolate",
	"bisc":   "biscoito",
	"bolacha": "biscoito",
	"marg":   "margarina",
	"mant":   "manteiga",
	"req":    "requeijao",
	"pres":   "presunto",
	"mort":   "mortadela",
	"ling":   "linguica",
	"frg":    "frango",
	"cong":   "congelado",
	"resf":   "resfriado",
	"int":    "integral",
	"intg":   "integral",
	"desn":   "desnatado",
	"semidesn": "semidesnatado",
	"achoc":  "achocolatado",
	"sab":    "sabonete",
	"shamp":  "shampoo",
	"xamp":   "shampoo",
	"cond":   "condicionador",
	"desod":  "desodorante",
	"amac":   "amaciante",
	"deterg": "detergente",
	"esc":    "escova",
	"dent":   "dental",
	"higien": "higienico",
	"fral":   "fralda",
	"cen":    "cenoura",
	"bat":    "batata",
	"ceb":    "cebola",
	"tom":    "tomate",
	"lar":    "laranja",
	"ban":    "banana",
	"mca":    "maca",
	"alc":    "alcool",
	"feij":   "feijao",
	"arr":    "arroz",
	"acu":    "acucar",
	"farin":  "farinha",
	"maion":  "maionese",
	"azeit":  "azeite",
	"vin":    "vinho",
	"min":    "mineral",
	"nat":    "natural",
	"trad":   "tradicional",
	"tp":     "tipo",
}

// noiseWords are stripped word-by-word after abbreviation expansion and brand
// extraction: units of measure, packaging, promotional fillers and
// stop-words that carry no product identity.
var noiseWords = map[string]struct{}{
	// units of measure
	"kg": {}, "g": {}, "gr": {}, "mg": {}, "l": {}, "lt": {}, "ltr": {},
	"ml": {}, "cm": {}, "mm": {}, "m": {}, "un": {}, "und": {}, "unid": {},
	"unidade": {}, "unidades": {}, "pc": {}, "pct": {}, "pcte": {},
	"dz": {}, "duzia": {},
	// packaging
	"cx": {}, "caixa": {}, "lata": {}, "latao": {}, "garrafa": {}, "garr": {},
	"pet": {}, "vidro": {}, "frasco": {}, "sache": {}, "saches": {},
	"embalagem": {}, "emb": {}, "pacote": {}, "fardo": {}, "bandeja": {},
	"band": {}, "pote": {}, "tetra": {}, "pack": {}, "spray": {},
	"refil": {}, "kit": {}, "bisnaga": {}, "tablete": {}, "barra": {},
	// promotional fillers
	"promo": {}, "promocao": {}, "oferta": {}, "leve": {}, "pague": {},
	"gratis": {}, "desconto": {}, "especial": {}, "super": {}, "mega": {},
	// stop-words and coupon filler
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "em": {}, "com": {},
	"sem": {}, "para": {}, "c": {}, "s": {}, "p": {}, "e": {}, "o": {},
	"a": {}, "ou": {}, "no": {}, "na": {}, "tipo": {}, "sabor": {},
	"sabores": {}, "cada": {}, "aprox": {}, "granel": {},
}

// promotionKeywords flag a description as a promotion when any of them occurs
// as a case-insensitive substring. Kept separate from noiseWords because
// promotion detection runs on the raw description, before any cleanup.
var promotionKeywords = []string{
	"promo",
	"oferta",
	"leve ",
	"pague ",
	"gratis",
	"grátis",
	"desconto",
	"liquida",
	"queima de estoque",
	"black friday",
	"% off",
	"2 por 1",
	"3 por 2",
}

// pharmacyUnits are the unit-dose tokens that mark a pharmacy-style quantity
// ("DIPIRONA 500MG C/ 30 COMP"). The captured count survives numeral
// stripping and is re-appended as "<N> Comprimidos".
const pharmacyUnits = `comprimidos|comprimido|comprim|comprs|compr|comps|comp|cpr|cprs|capsulas|capsula|cápsulas|cápsula|caps|drageas|drágeas|dragea|drgs|drg`
