package category

// keywordRule binds a category to the merchant-name substrings that select it.
// Rules are evaluated in slice order and the first hit wins, so more specific
// categories (farmácia, posto) must come before broad ones (retail keywords
// like "loja" match half the merchants in the country).
type keywordRule struct {
	Category Category
	Keywords []string
}

// merchantRules is the declared priority table for merchant-name
// classification. Keywords are matched case-insensitively as substrings of
// legal name + trade name. Accented and unaccented spellings both appear
// because portal data is inconsistent about encoding.
var merchantRules = []keywordRule{
	{Pharmacy, []string{
		"farmacia", "farmácia", "drogaria", "drogasil", "droga raia",
		"pague menos", "panvel", "farma", "manipulacao", "manipulação",
	}},
	{Fuel, []string{
		"posto", "combustivel", "combustível", "auto posto", "petroleo",
		"petróleo", "ipiranga", "shell", "petrobras", "br mania",
	}},
	{Supermarket, []string{
		"supermercado", "hipermercado", "atacadao", "atacadão", "atacado",
		"carrefour", "assai", "assaí", "big bompreco", "pao de acucar",
		"pão de açúcar", "zaffari", "comper", "extra hiper",
	}},
	{Groceries, []string{
		"mercado", "mercearia", "emporio", "empório", "hortifruti",
		"sacolao", "sacolão", "quitanda", "acougue", "açougue", "padaria",
		"panificadora", "laticinio", "laticínio", "feira",
	}},
	{Restaurant, []string{
		"restaurante", "lanchonete", "pizzaria", "churrascaria", "bar e",
		"hamburgueria", "sorveteria", "cafeteria", "pastelaria", "sushi",
		"food", "burger", "mc donalds", "mcdonald", "bobs", "subway",
	}},
	{Pets, []string{
		"pet shop", "petshop", "pet center", "veterinaria", "veterinária",
		"agropecuaria", "agropecuária", "racao", "ração",
	}},
	{Health, []string{
		"clinica", "clínica", "hospital", "laboratorio", "laboratório",
		"odonto", "otica", "ótica", "fisioterapia",
	}},
	{Electronics, []string{
		"eletronico", "eletrônico", "informatica", "informática",
		"celular", "telefonia", "games",
	}},
	{Clothing, []string{
		"vestuario", "vestuário", "confeccoes", "confecções", "moda",
		"calcados", "calçados", "boutique", "renner", "riachuelo",
	}},
	{Home, []string{
		"material de construcao", "material de construção", "construcao",
		"construção", "ferragem", "madeireira", "moveis", "móveis",
		"eletrodomestico", "eletrodoméstico", "utilidades",
	}},
	{Education, []string{
		"livraria", "papelaria", "escola", "curso", "editora",
	}},
	{Entertainment, []string{
		"cinema", "teatro", "brinquedo", "diversoes", "diversões",
	}},
	{Transport, []string{
		"estacionamento", "pedagio", "pedágio", "transporte", "taxi",
		"locadora de veiculos", "locadora de veículos",
	}},
	{Services, []string{
		"servicos", "serviços", "cartorio", "cartório", "lavanderia",
		"cabeleireiro", "barbearia", "oficina", "mecanica", "mecânica",
	}},
	{Retail, []string{
		"comercio", "comércio", "loja", "magazine", "varejo", "bazar",
		"distribuidora", "presentes", "importados",
	}},
}
