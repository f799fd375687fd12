package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterizeSubstitutesNamedGenerics(t *testing.T) {
	list := Named{Name: "std::List", Args: []Ty{Generic{Name: "T", Super: Any{}}}}
	got := Parameterize(list, map[string]Ty{"T": Named{Name: "std::Int"}})
	assert.Equal(t, "std::List[std::Int]", got.String())
}

func TestParameterizeLeavesUnboundGenerics(t *testing.T) {
	g := Generic{Name: "U", Super: Any{}}
	got := Parameterize(g, map[string]Ty{"T": Named{Name: "std::Int"}})
	assert.Equal(t, g, got)
}

func TestParameterizeFunction(t *testing.T) {
	f := Function{Func: FuncTy{
		Receiver: Generic{Name: "Self", Super: Any{}},
		Args:     []Ty{Generic{Name: "T", Super: Any{}}},
		Ret:      Named{Name: "std::Option", Args: []Ty{Generic{Name: "T", Super: Any{}}}},
	}}
	got := Parameterize(f, map[string]Ty{"T": Named{Name: "std::Bool"}}).(Function)
	assert.Equal(t, "std::Bool", got.Func.Args[0].String())
	assert.Equal(t, "std::Option[std::Bool]", got.Func.Ret.String())
	// Self was not in the substitution and must survive.
	assert.Equal(t, "Self", got.Func.Receiver.String())
}

func TestFreeTypeVarsFirstSeenOrder(t *testing.T) {
	ty := Tuple{Elems: []Ty{
		TypeVar{Id: 3},
		Named{Name: "p::Box", Args: []Ty{TypeVar{Id: 1}, TypeVar{Id: 3}}},
	}}
	assert.Equal(t, []uint32{3, 1}, FreeTypeVars(ty))
}

func TestIsConcrete(t *testing.T) {
	assert.True(t, IsConcrete(Named{Name: "std::Int"}))
	assert.True(t, IsConcrete(Tuple{}))
	assert.False(t, IsConcrete(TypeVar{Id: 0}))
	assert.False(t, IsConcrete(Named{Name: "std::List", Args: []Ty{Generic{Name: "T"}}}))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "()", Unit().String())
	assert.Equal(t, "(std::Int, std::Bool)", Tuple{Elems: []Ty{Named{Name: "std::Int"}, Named{Name: "std::Bool"}}}.String())
	assert.Equal(t, "?7", TypeVar{Id: 7}.String())
	assert.Equal(t, "A + B", Sum{Tys: []Ty{Named{Name: "A"}, Named{Name: "B"}}}.String())
	assert.Equal(t, "Meta(En)", Meta{Of: Named{Name: "En"}}.String())
}

func TestParamsFromGenerics(t *testing.T) {
	got := ParamsFromGenerics([]string{"T", "U"}, []Ty{Named{Name: "std::Int"}})
	assert.Len(t, got, 1)
	assert.Equal(t, "std::Int", got["T"].String())
}
