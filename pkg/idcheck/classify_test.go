package idcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l3aro/idbranch/pkg/kast"
)

func TestClassify(t *testing.T) {
	ids := DefaultIDFunctions()
	tr := NewTracker()
	tr.Set(Record{Key: VariableKey(1), Name: "tid", Origin: DirectCall, At: at(2, 3)})
	tr.Set(Record{Key: FieldKey(7, "lane"), Name: "lane", Origin: DirectCall, At: at(3, 3)})

	idCall := call(at(5, 9), "get_local_id", lit(at(5, 22), "0"))

	tests := []struct {
		name  string
		expr  kast.Expr
		class Class
		label string
		pos   kast.Pos
	}{
		{"direct call", idCall, DirectIDCall, "get_local_id", at(5, 9)},
		{"comparison", bin(ref(at(5, 1), "i", 9), "<", idCall), DirectIDCall, "get_local_id", at(5, 9)},
		{"parenthesized", &kast.Paren{At: at(5, 1), X: idCall}, DirectIDCall, "get_local_id", at(5, 9)},
		{"cast", &kast.Cast{At: at(5, 1), Type: "int", X: idCall}, DirectIDCall, "get_local_id", at(5, 9)},
		{"negated", &kast.Unary{At: at(5, 1), Op: "!", X: ref(at(5, 2), "tid", 1)}, DependentVariable, "tid", at(5, 2)},
		{"variable", ref(at(5, 1), "tid", 1), DependentVariable, "tid", at(5, 1)},
		{"unrelated variable", ref(at(5, 1), "n", 2), NotDependent, "", kast.Pos{}},
		{"unresolved name", ref(at(5, 1), "tid", 0), NotDependent, "", kast.Pos{}},
		{"member", &kast.Member{At: at(5, 1), X: ref(at(5, 1), "s", 4), Field: "lane", Struct: 7}, DependentMember, "lane", at(5, 1)},
		{"member of other struct", &kast.Member{At: at(5, 1), X: ref(at(5, 1), "s", 4), Field: "lane", Struct: 8}, NotDependent, "", kast.Pos{}},
		{"left operand wins", bin(ref(at(5, 1), "tid", 1), "<", idCall), DependentVariable, "tid", at(5, 1)},
		{"argument not inspected", call(at(5, 1), "foo", idCall), NotDependent, "", kast.Pos{}},
		{"subscript not inspected", &kast.Index{At: at(5, 1), X: ref(at(5, 1), "a", 5), Index: ref(at(5, 3), "tid", 1)}, NotDependent, "", kast.Pos{}},
		{"literal", lit(at(5, 1), "4"), NotDependent, "", kast.Pos{}},
		{"nil", nil, NotDependent, "", kast.Pos{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.expr, tr, ids)
			assert.Equal(t, tt.class, c.Class)
			assert.Equal(t, tt.label, c.Name)
			assert.Equal(t, tt.pos, c.Pos)
			assert.Equal(t, tt.class != NotDependent, c.Dependent())
		})
	}
}

func TestClassify_CustomIDFunctions(t *testing.T) {
	ids := DefaultIDFunctions().Merge(map[string]bool{"lane_id": true, "get_local_id": false})
	tr := NewTracker()

	assert.Equal(t, DirectIDCall, Classify(call(at(1, 1), "lane_id"), tr, ids).Class)
	assert.Equal(t, NotDependent, Classify(call(at(1, 1), "get_local_id"), tr, ids).Class)
}
