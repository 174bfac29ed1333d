package tree

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr error
	}{
		{"a", Path{"a"}, nil},
		{"coins.BTC.rsi_period", Path{"coins", "BTC", "rsi_period"}, nil},
		{"", nil, ErrMalformedPath},
		{"a..b", nil, ErrMalformedPath},
		{".a", nil, ErrMalformedPath},
		{"a.", nil, ErrMalformedPath},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParsePath(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestPath_ChildDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "coins"
	a := base.Child("BTC")
	b := base.Child("ETH")
	if a.String() != "coins.BTC" || b.String() != "coins.ETH" {
		t.Errorf("children = %q, %q", a, b)
	}
	if a.Parent().String() != "coins" || a.Name() != "BTC" {
		t.Errorf("Parent/Name = %q/%q", a.Parent(), a.Name())
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", "a.b", "."} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
	for _, name := range []string{"BTC-USD", "api_key", "privateKey"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}
