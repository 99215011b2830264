package voice

import "strconv"

// unitWords are dropped before numerals are read so "10 litros 500" keeps
// 10 and 500 adjacent to nothing but each other.
var unitWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"unidad", "unidades",
		"litro", "litros", "lt", "lts",
		"mililitro", "mililitros", "ml",
		"kg", "kgs", "kilo", "kilos", "kilogramo", "kilogramos",
		"gramo", "gramos", "gr", "grs",
		"caja", "cajas",
		"docena", "docenas",
		"paquete", "paquetes",
		"botella", "botellas",
		"lata", "latas",
		"bolsa", "bolsas",
		"metro", "metros",
		"hora", "horas",
		"día", "días", "dia", "dias",
		"semana", "semanas",
		"mes", "meses",
	} {
		unitWords[w] = struct{}{}
	}
}

// numeralRule replaces a run of words with a digit string.
type numeralRule struct {
	words  []string
	digits string
}

// compoundRules must run before standaloneNumerals and stay ordered from the
// largest value down: "diez mil" is consumed before "diez" can be read alone.
var compoundRules = func() []numeralRule {
	multipliers := []struct {
		word  string
		value int
	}{
		{"diez", 10}, {"nueve", 9}, {"ocho", 8}, {"siete", 7}, {"seis", 6},
		{"cinco", 5}, {"cuatro", 4}, {"tres", 3}, {"dos", 2},
	}
	rules := make([]numeralRule, 0, len(multipliers))
	for _, m := range multipliers {
		rules = append(rules, numeralRule{
			words:  []string{m.word, "mil"},
			digits: strconv.Itoa(m.value * 1000),
		})
	}
	return rules
}()

// standaloneNumerals maps single number words to digits. Matching is done on
// whole tokens, so "once" never fires inside "doce" and "un" never inside "uno".
var standaloneNumerals = map[string]string{
	"cero": "0",
	"un": "1", "uno": "1", "una": "1",
	"dos": "2", "tres": "3", "cuatro": "4", "cinco": "5",
	"seis": "6", "siete": "7", "ocho": "8", "nueve": "9",
	"diez": "10", "once": "11", "doce": "12", "trece": "13",
	"catorce": "14", "quince": "15",
	"dieciséis": "16", "dieciseis": "16",
	"diecisiete": "17", "dieciocho": "18", "diecinueve": "19",
	"veinte": "20",
	"veintiún": "21", "veintiun": "21", "veintiuno": "21", "veintiuna": "21",
	"veintidós": "22", "veintidos": "22",
	"veintitrés": "23", "veintitres": "23",
	"veinticuatro": "24", "veinticinco": "25",
	"veintiséis": "26", "veintiseis": "26",
	"veintisiete": "27", "veintiocho": "28", "veintinueve": "29",
	"treinta": "30", "cuarenta": "40", "cincuenta": "50",
	"sesenta": "60", "setenta": "70", "ochenta": "80", "noventa": "90",
	"cien": "100", "ciento": "100",
	"doscientos": "200", "doscientas": "200",
	"trescientos": "300", "trescientas": "300",
	"cuatrocientos": "400", "cuatrocientas": "400",
	"quinientos": "500", "quinientas": "500",
	"seiscientos": "600", "seiscientas": "600",
	"setecientos": "700", "setecientas": "700",
	"ochocientos": "800", "ochocientas": "800",
	"novecientos": "900", "novecientas": "900",
	"mil": "1000",
}

// apply rewrites every occurrence of the rule's word sequence into one token.
func (r numeralRule) apply(in []string) []string {
	out := make([]string, 0, len(in))
	for i := 0; i < len(in); {
		if r.matchesAt(in, i) {
			out = append(out, r.digits)
			i += len(r.words)
			continue
		}
		out = append(out, in[i])
		i++
	}
	return out
}

func (r numeralRule) matchesAt(in []string, i int) bool {
	if i+len(r.words) > len(in) {
		return false
	}
	for j, w := range r.words {
		if in[i+j] != w {
			return false
		}
	}
	return true
}

// translateNumerals runs the compound rules in order, then the standalone words.
func translateNumerals(tokens []string) []string {
	for _, rule := range compoundRules {
		tokens = rule.apply(tokens)
	}
	for i, t := range tokens {
		if digits, ok := standaloneNumerals[t]; ok {
			tokens[i] = digits
		}
	}
	return tokens
}

// stripUnits returns a new slice; the raw words stay intact.
func stripUnits(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := unitWords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
