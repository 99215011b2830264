package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ParsedCommand
	}{
		{"empty", "", ParsedCommand{}},
		{"only spaces", "   \t ", ParsedCommand{}},
		{"no numbers", "pan integral", ParsedCommand{ItemQuery: "pan integral"}},
		{"single number is the amount", "pollo 300", ParsedCommand{ItemQuery: "pollo", Quantity: "1", Amount: "300"}},
		{"two numbers", "pollo dos 300", ParsedCommand{ItemQuery: "pollo", Quantity: "2", Amount: "300"}},
		{"unit word after quantity", "nafta 10 litros 500", ParsedCommand{ItemQuery: "nafta", Quantity: "10", Amount: "500"}},
		{"number words", "pan dos kilos trescientos", ParsedCommand{ItemQuery: "pan", Quantity: "2", Amount: "300"}},
		{"uppercase and punctuation", "Pollo, DOS kilos, 300.", ParsedCommand{ItemQuery: "pollo", Quantity: "2", Amount: "300"}},
		{"decimal comma", "queso 0,5 kilos 1200", ParsedCommand{ItemQuery: "queso", Quantity: "0.5", Amount: "1200"}},
		{"decimal point", "jamón 1.5 kg 900", ParsedCommand{ItemQuery: "jamón", Quantity: "1.5", Amount: "900"}},
		{"compound thousands", "zapatillas cinco mil", ParsedCommand{ItemQuery: "zapatillas", Quantity: "1", Amount: "5000"}},
		{"ten thousand before ten", "campera diez mil", ParsedCommand{ItemQuery: "campera", Quantity: "1", Amount: "10000"}},
		{"feminine hundreds", "cerveza dos latas seiscientas", ParsedCommand{ItemQuery: "cerveza", Quantity: "2", Amount: "600"}},
		{"accented numeral", "huevos dieciséis 2400", ParsedCommand{ItemQuery: "huevos", Quantity: "16", Amount: "2400"}},
		{"middle numbers are dropped", "carne 2 kilos 300 cincuenta", ParsedCommand{ItemQuery: "carne", Quantity: "2", Amount: "50"}},
		{"multi word item", "papel higiénico 4 paquetes 3500", ParsedCommand{ItemQuery: "papel higiénico", Quantity: "4", Amount: "3500"}},
		{"leading numeral leaves no item", "un café 300", ParsedCommand{Quantity: "1", Amount: "300"}},
		{"unit word before first number", "aceite litros 2 1800", ParsedCommand{ItemQuery: "aceite", Quantity: "2", Amount: "1800"}},
		{"leading unit word", "kg pollo 300", ParsedCommand{ItemQuery: "kg", Quantity: "1", Amount: "300"}},
		{"compound numeral before amount", "zapatillas dos mil 5", ParsedCommand{ItemQuery: "zapatillas", Quantity: "2000", Amount: "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"", ".", ",,,", "mil mil mil", "kilos", "1.2.3", "...5", "5...",
		"diez", "diez mil mil", "\x00\x01", "ñandú 🐦 20", "una", "12,",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Parse(in) }, "input %q", in)
	}
}

func TestNumeralsAreWholeWords(t *testing.T) {
	// "once" and "doce" would be corrupted by substring replacement.
	got := Parse("donceles 200")
	assert.Equal(t, "donceles", got.ItemQuery)
	assert.Equal(t, "200", got.Amount)

	// "docena" is a unit word, so the item loses one raw word.
	got = Parse("docena de facturas 1500")
	assert.Equal(t, "docena de", got.ItemQuery)
}

func TestNormalizeUtterance(t *testing.T) {
	tests := map[string]string{
		"  Hola,  Mundo. ": "hola mundo",
		"1,5":              "1,5",
		"a.b":              "a b",
		"3.":               "3",
		"línea\nnueva":     "línea nueva",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeUtterance(in), "input %q", in)
	}
}

func TestParsedCommandEmpty(t *testing.T) {
	assert.True(t, ParsedCommand{}.Empty())
	assert.True(t, ParsedCommand{ItemQuery: "  "}.Empty())
	assert.False(t, ParsedCommand{Amount: "3"}.Empty())
}
