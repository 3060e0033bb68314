package format

import (
	"errors"
	"testing"
)

func TestFromExtension(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "a/b/person.json", want: JSONFormat},
		{path: "person.yaml", want: YAMLFormat},
		{path: "person.YML", want: YAMLFormat},
		{path: "person.toml", wantErr: true},
		{path: "person", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FromExtension(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrBadFormat) {
					t.Fatalf("expected ErrBadFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromContentType(t *testing.T) {
	tests := []struct {
		ct      string
		want    Format
		wantErr bool
	}{
		{ct: "application/json", want: JSONFormat},
		{ct: "application/schema+json; charset=utf-8", want: JSONFormat},
		{ct: "application/yaml", want: YAMLFormat},
		{ct: "text/x-yaml", want: YAMLFormat},
		{ct: "text/html", wantErr: true},
		{ct: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FromContentType(tt.ct)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.ct)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.ct, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.ct, got, tt.want)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, f := range AllFormats() {
		d, err := f.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var g Format
		if err := g.UnmarshalText(d); err != nil {
			t.Fatal(err)
		}
		if g != f {
			t.Errorf("got %s, want %s", g, f)
		}
		if f.Suffix() == "" {
			t.Errorf("%s has no suffix", f)
		}
	}
}
