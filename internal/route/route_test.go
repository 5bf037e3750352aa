package route

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    *Record
		wantOK  bool
	}{
		{
			name:   "three segments",
			in:     "area.player.login",
			wantOK: true,
			want:   &Record{Route: "area.player.login", ServerType: "area", Handler: "player", Method: "login"},
		},
		{
			name:   "two segments",
			in:     "area.player",
			wantOK: false,
		},
		{
			name:   "empty string",
			in:     "",
			wantOK: false,
		},
		{
			name:   "four segments",
			in:     "area.player.login.extra",
			wantOK: false,
		},
		{
			name:   "empty middle segment",
			in:     "area..login",
			wantOK: false,
		},
		{
			name:   "leading dot",
			in:     ".player.login",
			wantOK: false,
		},
		{
			name:   "trailing dot",
			in:     "area.player.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !tt.wantOK {
				if got != nil {
					t.Fatalf("Parse(%q) = %+v, want nil", tt.in, got)
				}
				return
			}
			if *got != *tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
