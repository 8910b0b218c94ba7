package executor

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitScript(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantPrelude []string
		wantExpr    string
	}{
		{"single expression", `db.marketDefs.find({status:"OPEN"})`, nil, `db.marketDefs.find({status:"OPEN"})`},
		{"line comment", "db.marketDefs.find() // all", nil, "db.marketDefs.find()"},
		{"block comment", "/* latest */ db.marketDefs.find().sort({timestamp:-1})", nil, "db.marketDefs.find().sort({timestamp:-1})"},
		{"comment marker inside string", `db.marketDefs.find({venue:"http://x // y"})`, nil, `db.marketDefs.find({venue:"http://x // y"})`},
		{"regex literal", `db.marketDefs.find({name:/Match Odds/i})`, nil, `db.marketDefs.find({name:/Match Odds/i})`},
		{"semicolon inside string", `db.marketDefs.find({name:"a;b"})`, nil, `db.marketDefs.find({name:"a;b"})`},
		{
			"semicolon separated",
			`const ids = ["1.1","1.2"]; db.priceUpdates.find({marketId:{$in:ids}})`,
			[]string{`const ids = ["1.1","1.2"]`},
			`db.priceUpdates.find({marketId:{$in:ids}})`,
		},
		{
			"newline separated",
			"const since = new Date(0)\ndb.priceUpdates.countDocuments({timestamp:{$gte:since}})",
			[]string{"const since = new Date(0)"},
			"db.priceUpdates.countDocuments({timestamp:{$gte:since}})",
		},
		{
			"chained call across lines",
			"db.priceUpdates\n  .find({})\n  .limit(3)",
			nil,
			"db.priceUpdates\n  .find({})\n  .limit(3)",
		},
		{
			"ends in declaration",
			`const rows = db.marketDefs.find().toArray()`,
			[]string{`const rows = db.marketDefs.find().toArray()`},
			"rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prelude, expr := SplitScript(tt.script)
			if !reflect.DeepEqual(prelude, tt.wantPrelude) {
				t.Errorf("prelude = %q, want %q", prelude, tt.wantPrelude)
			}
			if expr != tt.wantExpr {
				t.Errorf("expr = %q, want %q", expr, tt.wantExpr)
			}
		})
	}
}

func TestWrapScript_ClosesParenOnOwnLine(t *testing.T) {
	got := wrapScript("db.marketDefs.findOne() // one")
	if !strings.HasPrefix(got, "const __out = (\ndb.marketDefs.findOne()\n);\nprintjson(") {
		t.Errorf("wrapScript = %q", got)
	}
}
