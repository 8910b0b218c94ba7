package executor

import "testing"

func TestDatabaseURI(t *testing.T) {
	tests := []struct {
		uri, db, want string
	}{
		{"mongodb://localhost:27017", "betting_feed", "mongodb://localhost:27017/betting_feed"},
		{"mongodb://localhost:27017/", "betting_feed", "mongodb://localhost:27017/betting_feed"},
		{"mongodb://localhost:27017/?authSource=admin", "betting_feed", "mongodb://localhost:27017/betting_feed?authSource=admin"},
		{"mongodb://localhost:27017?tls=true", "betting_feed", "mongodb://localhost:27017/betting_feed?tls=true"},
		{"mongodb://u:p@a:1,b:2/other", "betting_feed", "mongodb://u:p@a:1,b:2/other"},
		{"mongodb+srv://cluster.example.net", "betting_feed", "mongodb+srv://cluster.example.net/betting_feed"},
		{"", "betting_feed", ""},
		{"mongodb://localhost", "", "mongodb://localhost"},
	}
	for _, tt := range tests {
		if got := DatabaseURI(tt.uri, tt.db); got != tt.want {
			t.Errorf("DatabaseURI(%q, %q) = %q, want %q", tt.uri, tt.db, got, tt.want)
		}
	}
}
