package sanitizer

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func singleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, `'`, `\'`) + "'"
}

func TestNormalize_QuoteLayers(t *testing.T) {
	const script = `db.marketDefs.find({status:"OPEN", name:'Match Odds'})`

	wrappers := map[string]func(string) string{
		"double": strconv.Quote,
		"single": singleQuote,
	}
	for name, wrap := range wrappers {
		s := script
		for n := 0; n <= 4; n++ {
			if got := Normalize(s); got != script {
				t.Errorf("%s quotes, %d layers: got %q", name, n, got)
			}
			s = wrap(s)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced js", "```javascript\ndb.priceUpdates.find().limit(5)\n```", "db.priceUpdates.find().limit(5)"},
		{"fenced untagged", "```\ndb.marketDefs.countDocuments({})\n```", "db.marketDefs.countDocuments({})"},
		{"escaped quotes only", `db.marketDefs.find({status:\"OPEN\"})`, `db.marketDefs.find({status:"OPEN"})`},
		{"trailing semicolon", "db.marketDefs.findOne();", "db.marketDefs.findOne()"},
		{"mixed layers", `"'db.marketStatuses.find()'"`, "db.marketStatuses.find()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_RejectsUnsafe(t *testing.T) {
	unsafe := []string{
		"db.dropDatabase()",
		"db.marketDefs.drop()",
		"db.marketDefs.DROP ()",
		"db.adminCommand({listDatabases:1})",
		"db.runCommand({shutdown:1})",
		`db.getSiblingDB("admin").system.users.find()`,
		"db.shutdownServer()",
		"db.createUser({user:'x',pwd:'y',roles:[]})",
		"db.grantRolesToUser('x', ['root'])",
		"eval('db.marketDefs.drop()')",
		"db.marketDefs.find().map(Function('return process')())",
		"setTimeout(() => db.marketDefs.find(), 1)",
		"db.marketDefs.find().__proto__",
		"db.marketDefs.find().constructor",
		"require('fs'); db.marketDefs.find()",
		"db.marketDefs.find({}).forEach(d => process.exit(1))",
		"load('/tmp/x.js'); db.x.find()",
		"db.priceUpdates.deleteMany({})",
		"db.priceUpdates.DeleteMany( { } )",
		`db.priceUpdates.deleteMany({marketId:"1.23"})`,
		"db.priceUpdates.remove()",
		"db.priceUpdates.updateMany({}, {$set:{ltp:0}})",
		`db.marketDefs.updateMany({status:"OPEN"},{$set:{status:"CLOSED"}})`,
		`db.marketDefs.insertOne({marketId:"1.99"})`,
		`db.marketDefs.replaceOne({marketId:"1.23"},{})`,
		`db.marketDefs.insert({marketId:"1.99"})`,
		"db.priceUpdates.bulkWrite([{deleteMany:{filter:{}}}])",
		"db.priceUpdates.initializeOrderedBulkOp()",
		"db.marketDefs.findOneAndDelete({})",
		`db.marketDefs.findOneAndUpdate({},{$set:{status:"OPEN"}})`,
		`db.marketDefs.findAndModify({query:{},remove:true})`,
		`db.getCollection("marketDefs")["dr"+"op"]()`,
		`db["marketDefs"].find()`,
		`const m = "drop"; db.marketDefs[m]()`,
		`Reflect.apply(db.marketDefs.find, db.marketDefs, [])`,
		"db.marketDefs.find({$where: 'this.status == \"OPEN\"'})",
		"db.priceUpdates.aggregate([{$group:{_id:1, x:{$accumulator:{}}}}])",
		"db.marketDefs.aggregate([{$out: 'copy'}])",
	}

	wraps := []func(string) string{
		func(s string) string { return s },
		strconv.Quote,
		func(s string) string { return strconv.Quote(strconv.Quote(s)) },
		func(s string) string { return "```js\n" + s + "\n```" },
		strings.ToUpper,
	}

	for _, s := range unsafe {
		for i, wrap := range wraps {
			_, err := Sanitize(wrap(s))
			if !errors.Is(err, ErrUnsafeScript) {
				t.Errorf("wrap %d of %q: err = %v, want ErrUnsafeScript", i, s, err)
			}
		}
	}
}

func TestSanitize_RejectedErrorIsFixed(t *testing.T) {
	_, err := Sanitize("db.dropDatabase()")
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %T, want *RejectedError", err)
	}
	if rej.Rule != "drop database" {
		t.Errorf("rule = %q", rej.Rule)
	}
	if err.Error() != ErrUnsafeScript.Error() {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSanitize_Accepts(t *testing.T) {
	safe := []string{
		`db.marketDefs.find({status:"OPEN"})`,
		`db.priceUpdates.find({marketId:"1.23"}).sort({timestamp:-1}).limit(10)`,
		`db.marketStatuses.aggregate([{$sort:{timestamp:-1}},{$group:{_id:"$marketId",status:{$first:"$status"}}}])`,
		`db.priceUpdates.distinct("eventName")`,
		`db.marketDefs.find({status:{$in:["OPEN","SUSPENDED"]}}, {runners:0})`,
		`db.marketStatuses.countDocuments({eventId:"29"})`,
		`db.priceUpdates.aggregate([{$match:{marketId:"1.23"}},{$sort:{timestamp:-1}},{$limit:5}]).toArray()`,
		`db.marketDefs.find({name:{$regex:"Match Odds"}}).sort({timestamp:-1}).limit(1)`,
	}
	for _, s := range safe {
		got, err := Sanitize(strconv.Quote(s))
		if err != nil {
			t.Errorf("Sanitize(%q): %v", s, err)
			continue
		}
		if got != s {
			t.Errorf("Sanitize(%q) = %q", s, got)
		}
	}
}

func TestSanitize_NotAScript(t *testing.T) {
	for _, s := range []string{"I am not sure what you mean.", `"Sorry, no data."`, ""} {
		if _, err := Sanitize(s); !errors.Is(err, ErrNotAScript) {
			t.Errorf("Sanitize(%q): err = %v, want ErrNotAScript", s, err)
		}
	}
}
