package cmd

import (
	"testing"

	"github.com/powderlines/lifttiles/internal/types"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.BoundingBox
		wantErr bool
	}{
		{
			name:  "valid",
			input: "-121.50,46.90,-121.40,46.95",
			want:  types.BoundingBox{MinLon: -121.50, MinLat: 46.90, MaxLon: -121.40, MaxLat: 46.95},
		},
		{
			name:  "spaces around values",
			input: " -121.50, 46.90 , -121.40, 46.95 ",
			want:  types.BoundingBox{MinLon: -121.50, MinLat: 46.90, MaxLon: -121.40, MaxLat: 46.95},
		},
		{name: "too few values", input: "-121.50,46.90,-121.40", wantErr: true},
		{name: "too many values", input: "1,2,3,4,5", wantErr: true},
		{name: "not a number", input: "a,b,c,d", wantErr: true},
		{name: "inverted longitude", input: "-121.40,46.90,-121.50,46.95", wantErr: true},
		{name: "inverted latitude", input: "-121.50,46.95,-121.40,46.90", wantErr: true},
		{name: "zero-area box", input: "-121.50,46.90,-121.50,46.95", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBBox(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseBBox(%q) expected an error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBBox(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseBBox(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
