package idcheck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/idbranch/pkg/kast"
)

func TestAnalyze_DirectCallInCondition(t *testing.T) {
	// for (int i = 0; i < get_local_id(0); i++) {}
	f := fn(forLoop(at(2, 3), bin(ref(at(2, 19), "i", 1), "<", call(at(2, 23), "get_local_id", lit(at(2, 36), "0")))))

	events := Analyze(f, DefaultIDFunctions())
	assert.Equal(t, []string{
		"2:3: warning: backward branch (for loop) is ID-dependent due to ID function call and may cause performance degradation",
	}, messages(events))
	assert.Equal(t, CheckName, events[0].Check)
}

func TestAnalyze_VariableFromCall(t *testing.T) {
	// int t = get_local_id(0);
	// while (j < t) {}
	f := fn(
		decl(at(2, 3), "t", 1, call(at(2, 11), "get_local_id", lit(at(2, 24), "0"))),
		whileLoop(at(3, 3), bin(ref(at(3, 10), "j", 2), "<", ref(at(3, 14), "t", 1))),
	)

	assert.Equal(t, []string{
		"3:3: warning: backward branch (while loop) is ID-dependent due to variable reference to 't' and may cause performance degradation",
		"2:3: note: assignment of ID-dependent variable t",
	}, messages(Analyze(f, DefaultIDFunctions())))
}

func TestAnalyze_TransitiveChain(t *testing.T) {
	// int t = get_local_id(0);
	// int t2 = t * 2;
	// for (int i = 0; i < t2; i++) {}
	f := fn(
		decl(at(2, 3), "t", 1, call(at(2, 11), "get_local_id", lit(at(2, 24), "0"))),
		decl(at(3, 3), "t2", 2, bin(ref(at(3, 12), "t", 1), "*", lit(at(3, 16), "2"))),
		forLoop(at(4, 3), bin(ref(at(4, 19), "i", 3), "<", ref(at(4, 23), "t2", 2))),
	)

	events := Analyze(f, DefaultIDFunctions())
	assert.Equal(t, []string{
		"4:3: warning: backward branch (for loop) is ID-dependent due to variable reference to 't2' and may cause performance degradation",
		"3:12: note: inferred assignment of ID-dependent value from ID-dependent variable t",
		"2:3: note: assignment of ID-dependent variable t",
	}, messages(events))
	assert.Equal(t, []Severity{Warning, Note, Note}, []Severity{events[0].Severity, events[1].Severity, events[2].Severity})
}

func TestAnalyze_NonIDFunction(t *testing.T) {
	// int n = foo(0); for (...; i < n; ...) {}
	f := fn(
		decl(at(2, 3), "n", 1, call(at(2, 11), "foo", lit(at(2, 15), "0"))),
		forLoop(at(3, 3), bin(ref(at(3, 19), "i", 2), "<", ref(at(3, 23), "n", 1))),
	)
	assert.Empty(t, Analyze(f, DefaultIDFunctions()))
}

func TestAnalyze_ChainDepth(t *testing.T) {
	const depth = 5
	stmts := []kast.Stmt{decl(at(2, 3), "v0", 1, call(at(2, 12), "get_global_id", lit(at(2, 26), "0")))}
	for i := 1; i < depth; i++ {
		line := 2 + i
		stmts = append(stmts, decl(at(line, 3), "v", kast.DeclID(i+1), bin(ref(at(line, 12), "v", kast.DeclID(i)), "+", lit(at(line, 16), "1"))))
	}
	stmts = append(stmts, whileLoop(at(20, 3), ref(at(20, 10), "v", depth)))

	events := Analyze(fn(stmts...), DefaultIDFunctions())
	require.Len(t, events, 1+depth)
	assert.Equal(t, Warning, events[0].Severity)
	for i := 1; i < depth; i++ {
		assert.Equal(t, inferredTemplate, events[i].Template)
		assert.Equal(t, depth+2-i, events[i].Pos.Line, "notes run nearest use first")
	}
	last := events[len(events)-1]
	assert.Equal(t, assignedTemplate, last.Template)
	assert.Equal(t, at(2, 3), last.Pos)
}

func TestAnalyze_StructField(t *testing.T) {
	// struct S s; s.lane = get_local_id(0); while (i < s.lane) {}
	lane := func(pos kast.Pos) *kast.Member {
		return &kast.Member{At: pos, X: ref(pos, "s", 1), Field: "lane", Struct: 4}
	}
	f := fn(
		&kast.DeclStmt{At: at(2, 3), Vars: []*kast.VarDecl{{At: at(2, 3), Name: "s", ID: 1, Struct: 4}}},
		assign(lane(at(3, 3)), call(at(3, 12), "get_local_id", lit(at(3, 25), "0"))),
		whileLoop(at(4, 3), bin(ref(at(4, 10), "i", 2), "<", lane(at(4, 14)))),
	)

	assert.Equal(t, []string{
		"4:3: warning: backward branch (while loop) is ID-dependent due to member reference to 'lane' and may cause performance degradation",
		"3:3: note: assignment of ID-dependent field lane",
	}, messages(Analyze(f, DefaultIDFunctions())))
}

func TestAnalyze_MemberFromVariable(t *testing.T) {
	lane := func(pos kast.Pos) *kast.Member {
		return &kast.Member{At: pos, X: ref(pos, "s", 2), Field: "lane", Struct: 4}
	}
	f := fn(
		decl(at(2, 3), "tid", 1, call(at(2, 13), "get_local_id", lit(at(2, 26), "0"))),
		assign(lane(at(3, 3)), ref(at(3, 12), "tid", 1)),
		&kast.Loop{At: at(4, 3), Kind: kast.DoWhileLoop, Keyword: at(5, 5), Cond: lane(at(5, 12)), Body: &kast.Block{At: at(4, 6)}},
	)

	assert.Equal(t, []string{
		"5:5: warning: backward branch (do loop) is ID-dependent due to member reference to 'lane' and may cause performance degradation",
		"3:12: note: inferred assignment of ID-dependent member from ID-dependent variable tid",
		"2:3: note: assignment of ID-dependent variable tid",
	}, messages(Analyze(f, DefaultIDFunctions())))
}

func TestAnalyze_OrderMatters(t *testing.T) {
	// a reads b before b becomes dependent
	f := fn(
		decl(at(2, 3), "a", 1, ref(at(2, 11), "b", 2)),
		decl(at(3, 3), "b", 2, call(at(3, 11), "get_local_id", lit(at(3, 24), "0"))),
		whileLoop(at(4, 3), ref(at(4, 10), "a", 1)),
	)
	assert.Empty(t, Analyze(f, DefaultIDFunctions()))
}

func TestAnalyze_UnusedRecords(t *testing.T) {
	f := fn(
		decl(at(2, 3), "t", 1, call(at(2, 11), "get_local_id", lit(at(2, 24), "0"))),
		forLoop(at(3, 3), bin(ref(at(3, 19), "i", 2), "<", lit(at(3, 23), "16"))),
	)
	rep := Explain(f, DefaultIDFunctions())
	assert.Empty(t, rep.Events)
	assert.Len(t, rep.Records, 1)
	require.Len(t, rep.Loops, 1)
	assert.False(t, rep.Loops[0].Classification.Dependent())
}

func TestAnalyze_SelfAssignmentKeepsRoot(t *testing.T) {
	// int x = get_local_id(0); x = x * 2; while (x) {}
	f := fn(
		decl(at(2, 3), "x", 1, call(at(2, 11), "get_local_id", lit(at(2, 24), "0"))),
		assign(ref(at(3, 3), "x", 1), bin(ref(at(3, 7), "x", 1), "*", lit(at(3, 11), "2"))),
		whileLoop(at(4, 3), ref(at(4, 10), "x", 1)),
	)
	assert.Equal(t, []string{
		"4:3: warning: backward branch (while loop) is ID-dependent due to variable reference to 'x' and may cause performance degradation",
		"2:3: note: assignment of ID-dependent variable x",
	}, messages(Analyze(f, DefaultIDFunctions())))
}

func TestAnalyze_ChainedAssignmentRecordsInnerTargetOnly(t *testing.T) {
	// int a, b; a = b = get_local_id(0); while (a) {} while (b) {}
	inner := &kast.Assign{At: at(3, 7), Op: "=", LHS: ref(at(3, 7), "b", 2), RHS: call(at(3, 11), "get_local_id", lit(at(3, 24), "0"))}
	f := fn(
		decl(at(2, 3), "a", 1, nil),
		decl(at(2, 10), "b", 2, nil),
		assign(ref(at(3, 3), "a", 1), inner),
		whileLoop(at(4, 3), ref(at(4, 10), "a", 1)),
		whileLoop(at(5, 3), ref(at(5, 10), "b", 2)),
	)

	rep := Explain(f, DefaultIDFunctions())
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "b", rep.Records[0].Name)
	assert.Equal(t, []string{
		"5:3: warning: backward branch (while loop) is ID-dependent due to variable reference to 'b' and may cause performance degradation",
		"3:7: note: assignment of ID-dependent variable b",
	}, messages(rep.Events))
}

func TestAnalyze_Deterministic(t *testing.T) {
	f := fn(
		decl(at(2, 3), "t", 1, call(at(2, 11), "get_local_id", lit(at(2, 24), "0"))),
		decl(at(3, 3), "u", 2, ref(at(3, 11), "t", 1)),
		whileLoop(at(4, 3), ref(at(4, 10), "u", 2)),
		forLoop(at(5, 3), ref(at(5, 10), "t", 1)),
	)
	first := Analyze(f, DefaultIDFunctions())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Analyze(f, DefaultIDFunctions()))
	}
}

func TestAnalyze_NestedLoops(t *testing.T) {
	inner := whileLoop(at(3, 5), call(at(3, 12), "get_group_id", lit(at(3, 25), "0")))
	outer := forLoop(at(2, 3), call(at(2, 19), "get_local_id", lit(at(2, 32), "0")), inner)

	events := Analyze(fn(outer), DefaultIDFunctions())
	require.Len(t, events, 2)
	assert.Equal(t, at(2, 3), events[0].Pos)
	assert.Equal(t, at(3, 5), events[1].Pos)
}

func TestAnalyze_NilFunction(t *testing.T) {
	assert.Empty(t, Analyze(nil, DefaultIDFunctions()))
	assert.Empty(t, Analyze(&kast.Function{Name: "proto"}, DefaultIDFunctions()))
}

func TestEventJSON(t *testing.T) {
	ev := newEvent(Note, at(2, 3), assignedTemplate, "variable", "t")
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"note"`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev, back)
}
