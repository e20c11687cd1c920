package types

import "testing"

func TestOptionMapEqual(t *testing.T) {
	a := OptionMap{"size": "L", "color": "black"}
	b := OptionMap{"color": "black", "size": "L"}
	if !a.Equal(b) {
		t.Fatal("expected maps with same pairs to be equal")
	}
	if a.Equal(OptionMap{"size": "L"}) {
		t.Fatal("expected maps of different length to differ")
	}
	if a.Equal(OptionMap{"size": "M", "color": "black"}) {
		t.Fatal("expected maps with different values to differ")
	}
	var empty OptionMap
	if !empty.Equal(OptionMap{}) {
		t.Fatal("nil and empty maps should be equal")
	}
}
