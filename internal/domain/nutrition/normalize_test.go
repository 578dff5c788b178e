package nutrition

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace", "   ", []string{}},
		{"json null", "null", []string{}},
		{"json empty array", "[]", []string{}},
		{"json array", `["IBS","Celiac Disease"]`, []string{"IBS", "Celiac Disease"}},
		{"json array kept unchanged", `[" spaced ",""]`, []string{" spaced ", ""}},
		{"json string", `"lactose, gluten"`, []string{"lactose", "gluten"}},
		{"json mixed array", `["a", 2, true, null]`, []string{"a", "2", "true"}},
		{"comma separated", "a, b ,c", []string{"a", "b", "c"}},
		{"single value", "IBS", []string{"IBS"}},
		{"empty segments dropped", "a,, ,b,", []string{"a", "b"}},
		{"broken json falls back", `["a", "b"`, []string{`["a"`, `"b"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeList(tt.in)
			if got == nil {
				t.Fatal("NormalizeList must never return nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeList(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeList_RoundTripsEncodedLists(t *testing.T) {
	lists := [][]string{
		{"IBS"},
		{"peanuts", "shellfish", "a, b"},
		{},
	}
	for _, l := range lists {
		encoded := StringList(l).encode()
		if got := NormalizeList(encoded); !reflect.DeepEqual(got, l) {
			t.Errorf("NormalizeList(%s) = %#v, want %#v", encoded, got, l)
		}
	}
}

func TestNormalizeNullable(t *testing.T) {
	if got := NormalizeNullable(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %#v", got)
	}
	s := "x,y"
	if got := NormalizeNullable(&s); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("unexpected %#v", got)
	}
}

func TestStringList_JSON(t *testing.T) {
	var nilList StringList
	b, err := json.Marshal(nilList)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("nil list marshaled to %s, want []", b)
	}

	tests := []struct {
		in   string
		want StringList
	}{
		{`["stress", " late meals ", ""]`, StringList{"stress", "late meals"}},
		{`"stress, late meals,,"`, StringList{"stress", "late meals"}},
		{`null`, StringList{}},
		{`""`, StringList{}},
	}
	for _, tt := range tests {
		var got StringList
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if !sameItems(got, tt.want) {
			t.Errorf("unmarshal %s = %#v, want %#v", tt.in, got, tt.want)
		}
	}

	var bad StringList
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("expected error for numeric input")
	}
}

func sameItems(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
