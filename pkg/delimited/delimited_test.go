package delimited

import (
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		sep  rune
		want []string
	}{
		{"empty line", "", ',', []string{""}},
		{"simple", "30,<40", ',', []string{"30", "<40"}},
		{"quoted", `"30","<40"`, ',', []string{"30", "<40"}},
		{"separator inside quotes", `"30,35",*`, ',', []string{"30,35", "*"}},
		{"escaped quote", `"say ""hi""",x`, ',', []string{`say "hi"`, "x"}},
		{"trailing separator", "a,b,", ',', []string{"a", "b", ""}},
		{"leading separator", ",a", ',', []string{"", "a"}},
		{"unterminated quote", `a,"b;c`, ',', []string{"a", "b;c"}},
		{"unterminated quote swallows separator", `"a,b`, ',', []string{"a,b"}},
		{"semicolon separator", "28001;Madrid;*", ';', []string{"28001", "Madrid", "*"}},
		{"tab separator", "a\tb", '\t', []string{"a", "b"}},
		{"quote mid-field toggles", `ab"c,d"e`, ',', []string{"abc,de"}},
		{"empty quoted field", `"",x`, ',', []string{"", "x"}},
		{"multibyte", "Cádiz,Andalucía", ',', []string{"Cádiz", "Andalucía"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line, tt.sep)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	got := FormatLine([]string{"30,35", `a"b`, "plain", ""}, ',')
	want := `"30,35","a""b",plain,`
	if got != want {
		t.Errorf("FormatLine() = %q, want %q", got, want)
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	cases := [][]string{
		{""},
		{"a"},
		{"", ""},
		{"30", "<40"},
		{"x,y", "z"},
		{`"`, `""`, `a"`},
		{"with space", " lead", "trail "},
		{"semi;colon", "comma,", `q"uote`},
		{"ñandú", "€", "*"},
	}
	seps := []rune{',', ';', '\t', '|'}

	for _, fields := range cases {
		for _, sep := range seps {
			line := FormatLine(fields, sep)
			got := ParseLine(line, sep)
			if !reflect.DeepEqual(got, fields) {
				t.Errorf("round trip with %q: ParseLine(%q) = %q, want %q", sep, line, got, fields)
			}
		}
	}
}

func BenchmarkParseLine(b *testing.B) {
	line := `"28001","Madrid centro","Madrid","Comunidad de Madrid","*"`
	for i := 0; i < b.N; i++ {
		ParseLine(line, ',')
	}
}
