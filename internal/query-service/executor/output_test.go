package executor

import (
	"errors"
	"reflect"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unquoted keys", `{ marketId: '1.23', runnerId: 47972 }`, `{ "marketId": "1.23", "runnerId": 47972 }`},
		{"object id", `{ _id: ObjectId('65f1a2b3c4d5e6f708192a3b') }`, `{ "_id": "65f1a2b3c4d5e6f708192a3b" }`},
		{"iso date", `{ ts: ISODate("2024-01-01T00:00:00.000Z") }`, `{ "ts": "2024-01-01T00:00:00.000Z" }`},
		{"long", `{ total: Long('42'), n: NumberInt(3) }`, `{ "total": 42, "n": 3 }`},
		{"escaped single quote", `{ name: 'O\'Brien' }`, `{ "name": "O'Brien" }`},
		{"double quote inside single", `{ name: 'say "hi"' }`, `{ "name": "say \"hi\"" }`},
		{"undefined", `{ venue: undefined }`, `{ "venue": null }`},
		{"dollar keys", `{ $date: 'x' }`, `{ "$date": "x" }`},
		{"already json", `{"a": "b: c"}`, `{"a": "b: c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coerce(tt.in); got != tt.want {
				t.Errorf("Coerce(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    []any
		wantErr error
	}{
		{
			name: "pretty printed array with banner",
			out: "Current Mongosh Log ID:\t65f1a2\n" +
				"[\n  {\n    _id: ObjectId('65f1'),\n    marketId: '1.23',\n    status: 'OPEN'\n  }\n]\n",
			want: []any{map[string]any{"_id": "65f1", "marketId": "1.23", "status": "OPEN"}},
		},
		{
			name: "empty array",
			out:  "[]\n",
			want: []any{},
		},
		{
			name: "null",
			out:  "null\n",
			want: []any{},
		},
		{
			name: "scalar count",
			out:  "17\n",
			want: []any{float64(17)},
		},
		{
			name: "single document",
			out:  "{ eventId: '29', markets: 3 }",
			want: []any{map[string]any{"eventId": "29", "markets": float64(3)}},
		},
		{
			name: "line by line keeps raw strings",
			out:  "{ a: 1 }\nsome note\n{ b: 2 }\n",
			want: []any{
				map[string]any{"a": float64(1)},
				"some note",
				map[string]any{"b": float64(2)},
			},
		},
		{
			name: "only noise",
			out:  "Current Mongosh Log ID: x\nUsing MongoDB: 7.0\n\n",
			want: []any{},
		},
		{
			name:    "nothing parses",
			out:     "Error: something odd\nanother line",
			wantErr: ErrUnparseableOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.out)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOutput = %#v, want %#v", got, tt.want)
			}
		})
	}
}
