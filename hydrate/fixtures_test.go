package hydrate_test

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Shared model types exercised by the hydrate tests.

type ITestClass interface {
	ID() int
}

type ChildStruct struct {
	IntB int
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumValues() []any { return []any{Red, Green, Blue} }

type Size string

type TestClass struct {
	Items                map[string]int
	IntA                 int
	Recursion            *TestClass
	RecursionAsInterface ITestClass
	ChildStruct          ChildStruct
	DecimalValue         decimal.Decimal
	DoubleValue          float64
	ByteValue            byte
	ShortValue           int16
	UIntValue            uint32
	LongValue            int64
	ULongValue           uint64
	BoolValue            bool
	FloatValue           float32
	StringValue          string
	StringArrayValue     []string
	Color                Color

	Skipped string `hydrate:"-"`
	hidden  int
}

func (c *TestClass) ID() int { return c.IntA }

// Hidden exposes the unexported field for assertions.
func (c *TestClass) Hidden() int { return c.hidden }

type OtherClass struct {
	Name string
}

func (o OtherClass) ID() int { return len(o.Name) }

type ThirdClass struct{}

func (*ThirdClass) ID() int { return 3 }

// Node refers to itself by pointer and has no interface fields, so it needs
// no registry setup.
type Node struct {
	Value int
	Next  *Node
}

// Tree refers to itself through a slice.
type Tree struct {
	Label    string
	Children []*Tree
}

type Pair struct {
	Left  float64
	Right int
	Name  string
}

type Holder struct {
	Shape ITestClass
	Count int
}

type WithPointer struct {
	Child *ChildStruct
	Count int
}

type WithFunc struct {
	Callback func()
	Count    int
}

type Account struct {
	Owner   string
	Balance int
	Origin  string `hydrate:"-"`
}

func NewAccount(owner string, balance int) *Account {
	return &Account{Owner: owner, Balance: balance, Origin: "two-args"}
}

func NewDefaultAccount() Account {
	return Account{Origin: "no-args"}
}

type Loop struct {
	Depth int
}

func NewLoop(l Loop) Loop { return Loop{Depth: l.Depth + 1} }

var errBoom = errors.New("boom")

// Faulty is an enum whose member listing panics.
type Faulty int

func (Faulty) EnumValues() []any { panic("faulty enum") }

type WithFaulty struct {
	Kind  Faulty
	Count int
}
