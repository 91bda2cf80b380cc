package reconstruct

import (
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/skdltmxn/resym-go/pdb"
	"gopkg.in/yaml.v3"
)

// policyCase is the yaml spelling of a Policy. Unset fields keep the
// zero value: portable primitives, automatic access, everything off.
type policyCase struct {
	Primitives  string `yaml:"primitives"`
	Access      string `yaml:"access"`
	Deps        bool   `yaml:"deps"`
	Hex         bool   `yaml:"hex"`
	Size        bool   `yaml:"size"`
	Offset      bool   `yaml:"offset"`
	Brackets    bool   `yaml:"brackets"`
	IgnoreStd   bool   `yaml:"ignore_std"`
	Header      bool   `yaml:"header"`
	PreferFirst bool   `yaml:"prefer_first"`
}

func (c policyCase) policy(tb testing.TB) Policy {
	tb.Helper()
	p := Policy{
		ReconstructDependencies: c.Deps,
		IntegersAsHex:           c.Hex,
		PrintSizeInfo:           c.Size,
		PrintOffsetInfo:         c.Offset,
		BracketsOnNewLine:       c.Brackets,
		IgnoreStdTypes:          c.IgnoreStd,
		PrintHeader:             c.Header,
		PreferFirstMatch:        c.PreferFirst,
	}
	var err error
	if c.Primitives != "" {
		if p.PrimitiveFlavor, err = ParsePrimitiveFlavor(c.Primitives); err != nil {
			tb.Fatal(err)
		}
	}
	if c.Access != "" {
		if p.AccessFlavor, err = ParseAccessFlavor(c.Access); err != nil {
			tb.Fatal(err)
		}
	}
	return p
}

// testCase holds either one expected text or, under wants, one text per
// primitive flavor. A case with wants must cover every flavor.
type testCase struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Policy policyCase        `yaml:"policy"`
	Want   string            `yaml:"want"`
	Wants  map[string]string `yaml:"wants"`
}

var allFlavors = []PrimitiveFlavor{Portable, Microsoft, Raw, Msvc}

type testFile struct {
	Tests []testCase `yaml:"tests"`
}

func loadCases(t *testing.T) []testCase {
	t.Helper()
	data, err := os.ReadFile("testdata/reconstruct.yaml")
	if err != nil {
		t.Fatalf("read cases: %v", err)
	}
	var tf testFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		t.Fatalf("parse cases: %v", err)
	}
	return tf.Tests
}

func TestReconstructCases(t *testing.T) {
	f := loadFixture(t)
	r := New(f)
	check := func(t *testing.T, name string, p Policy, want string) {
		t.Helper()
		got, _, err := r.Type(name, p)
		if err != nil {
			t.Fatalf("Type(%q) error = %v", name, err)
		}
		if got != want {
			t.Errorf("Type(%q) mismatch\n--- got ---\n%s--- want ---\n%s", name, got, want)
		}
	}
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Wants == nil {
				check(t, tc.Type, tc.Policy.policy(t), tc.Want)
				return
			}
			if len(tc.Wants) != len(allFlavors) {
				t.Errorf("case has %d flavors, want %d", len(tc.Wants), len(allFlavors))
			}
			for _, flavor := range allFlavors {
				t.Run(flavor.String(), func(t *testing.T) {
					want, ok := tc.Wants[flavor.String()]
					if !ok {
						t.Fatalf("no expected text for flavor %s", flavor)
					}
					p := tc.Policy.policy(t)
					p.PrimitiveFlavor = flavor
					check(t, tc.Type, p, want)
				})
			}
		})
	}
}

func TestTypeDependencyNames(t *testing.T) {
	f := loadFixture(t)
	r := New(f)

	tests := []struct {
		name string
		p    Policy
		want []string
	}{
		{"resym_test::Outer", Policy{}, []string{"resym_test::Inner", "resym_test::Node", "std::Thing"}},
		{"resym_test::Outer", Policy{IgnoreStdTypes: true}, []string{"resym_test::Inner", "resym_test::Node"}},
		{"resym_test::Node", Policy{}, []string{"resym_test::Inner"}},
		{"resym_test::StructTest", Policy{}, nil},
		{"resym_test::Callbacks", Policy{}, []string{"resym_test::Derived"}},
		{"resym_test::StructUnnamedUdtTest3", Policy{}, []string{"resym_test::EnumTest1"}},
		{"resym_test::NtdllRegression1", Policy{}, nil},
		{"resym_test::VirtualBaseTest", Policy{}, []string{"resym_test::VirtualBase"}},
		{"resym_test::BitFieldsTest4", Policy{}, []string{"resym_test::EnumTest1"}},
	}
	for _, tt := range tests {
		_, deps, err := r.Type(tt.name, tt.p)
		if err != nil {
			t.Fatalf("Type(%q) error = %v", tt.name, err)
		}
		if !slices.Equal(deps, tt.want) {
			t.Errorf("Type(%q) deps = %q, want %q", tt.name, deps, tt.want)
		}
	}
}

func TestTypeErrors(t *testing.T) {
	f := loadFixture(t)
	r := New(f)

	tests := []struct {
		name string
		p    Policy
		want error
	}{
		{"resym_test::DoesNotExist", Policy{}, ErrNotFound},
		{"resym_test::Dup", Policy{}, ErrAmbiguous},
		{"resym_test::Broken", Policy{}, ErrLayoutFailed},
		{"resym_test::Dangling", Policy{}, ErrUnresolvedReference},
		{"resym_test::StructTest", Policy{PrimitiveFlavor: 9}, ErrInvalidPolicy},
		{"resym_test::StructTest", Policy{AccessFlavor: -1}, ErrInvalidPolicy},
	}
	kinds := []error{ErrNotFound, ErrAmbiguous, ErrLayoutFailed, ErrUnresolvedReference, ErrInvalidPolicy}
	for _, tt := range tests {
		text, _, err := r.Type(tt.name, tt.p)
		if !errors.Is(err, tt.want) {
			t.Errorf("Type(%q) error = %v, want %v", tt.name, err, tt.want)
			continue
		}
		if text != "" {
			t.Errorf("Type(%q) returned text with an error", tt.name)
		}
		var rerr *Error
		if !errors.As(err, &rerr) || rerr.Name != tt.name {
			t.Errorf("Type(%q) error = %#v, want *Error naming the type", tt.name, err)
		}
		for _, k := range kinds {
			if k != tt.want && errors.Is(err, k) {
				t.Errorf("Type(%q) error %v also matches %v", tt.name, err, k)
			}
		}
	}
}

func TestBrokenLayoutIsCyclic(t *testing.T) {
	f := loadFixture(t)
	_, _, err := New(f).Type("resym_test::Broken", Policy{})
	if !errors.Is(err, pdb.ErrCyclicLayout) {
		t.Errorf("error = %v, want it to wrap %v", err, pdb.ErrCyclicLayout)
	}
}

func TestTypeAt(t *testing.T) {
	f := loadFixture(t)
	r := New(f)

	ti, err := f.Types().Lookup("resym_test::StructTest", false)
	if err != nil {
		t.Fatal(err)
	}
	byIndex, _, err := r.TypeAt(ti, Policy{})
	if err != nil {
		t.Fatalf("TypeAt(%#x) error = %v", uint32(ti), err)
	}
	byName, _, err := r.Type("resym_test::StructTest", Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if byIndex != byName {
		t.Errorf("TypeAt and Type disagree:\n%s\n%s", byIndex, byName)
	}

	if _, _, err := r.TypeAt(0x7fff, Policy{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("TypeAt(0x7fff) error = %v, want %v", err, ErrNotFound)
	}
	// A field list is not a user-defined type.
	rec, _ := f.Types().ByIndex(ti)
	if _, _, err := r.TypeAt(rec.(*pdb.Aggregate).FieldList, Policy{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("TypeAt(field list) error = %v, want %v", err, ErrNotFound)
	}
}

func TestTypeForwardResolvesToDefinition(t *testing.T) {
	f := loadFixture(t)
	r := New(f)

	// The first Node record is the forward reference.
	var fwd pdb.TypeIndex
	for ti, rec := range f.Types().All() {
		if agg, ok := rec.(*pdb.Aggregate); ok && agg.Name == "resym_test::Node" && agg.IsForward {
			fwd = ti
			break
		}
	}
	if fwd == 0 {
		t.Fatal("no forward reference to Node")
	}
	got, _, err := r.TypeAt(fwd, Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "resym_test::Inner val;") {
		t.Errorf("TypeAt(forward) = %q, want the definition", got)
	}
}

func TestTypePrintHeader(t *testing.T) {
	f := loadFixture(t)
	got, _, err := New(f).Type("resym_test::Inner", Policy{PrintHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "//\n" +
		"// PDB file: " + f.Path() + "\n" +
		"// Image architecture: " + f.Machine() + "\n" +
		"//\n" +
		"\n" +
		"struct resym_test::Inner {\n" +
		"  int32_t v;\n" +
		"};\n"
	if f.Machine() == "" {
		t.Fatal("fixture machine is unknown")
	}
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestTypeByName(t *testing.T) {
	f := loadFixture(t)
	got, deps, err := TypeByName(f, "resym_test::Outer", Portable, Automatic, false, false, true, false, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "struct resym_test::Outer { /* Size=0x18 */\n") {
		t.Errorf("TypeByName() = %q", got)
	}
	if len(deps) != 2 {
		t.Errorf("TypeByName() deps = %q, want std elided", deps)
	}
}

func TestTypeIsDeterministic(t *testing.T) {
	f := loadFixture(t)
	r := New(f)
	names := []string{
		"resym_test::Outer",
		"resym_test::Derived",
		"resym_test::NestedUnionTest",
		"resym_test::CycleA",
		"resym_test::EnumTest1",
	}
	policies := []Policy{
		{},
		DefaultPolicy(),
		{PrimitiveFlavor: Msvc, AccessFlavor: Always, IntegersAsHex: true, BracketsOnNewLine: true},
		{PrimitiveFlavor: Raw, ReconstructDependencies: true, IgnoreStdTypes: true},
	}

	want := make(map[string]string)
	key := func(name string, i int) string { return name + "#" + string(rune('0'+i)) }
	for _, name := range names {
		for i, p := range policies {
			text, _, err := r.Type(name, p)
			if err != nil {
				t.Fatalf("Type(%q) error = %v", name, err)
			}
			want[key(name, i)] = text
		}
	}

	var wg sync.WaitGroup
	errs := make(chan string, len(names)*len(policies)*4)
	for range 4 {
		for _, name := range names {
			for i, p := range policies {
				wg.Add(1)
				go func() {
					defer wg.Done()
					text, _, err := r.Type(name, p)
					if err != nil || text != want[key(name, i)] {
						errs <- key(name, i)
					}
				}()
			}
		}
	}
	wg.Wait()
	close(errs)
	for k := range errs {
		t.Errorf("concurrent reconstruction of %s differs", k)
	}
}

func TestMsvcFlavor(t *testing.T) {
	f := loadFixture(t)
	got, _, err := New(f).Type("resym_test::StructTest", Policy{PrimitiveFlavor: Msvc, AccessFlavor: Disabled})
	if err != nil {
		t.Fatal(err)
	}
	want := "struct resym_test::StructTest {\n  int a;\n  char b;\n  unsigned __int64 c;\n};\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestBracketsOnNewLineNested(t *testing.T) {
	f := loadFixture(t)
	got, _, err := New(f).Type("resym_test::UnionTest", Policy{BracketsOnNewLine: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "struct resym_test::UnionTest\n" +
		"{\n" +
		"  union\n" +
		"  {\n" +
		"    int32_t a;\n" +
		"    float b;\n" +
		"  };\n" +
		"  int32_t c;\n" +
		"};\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestModule(t *testing.T) {
	f := loadFixture(t)
	got, err := Module(f, 0, Policy{})
	if err != nil {
		t.Fatalf("Module(0) error = %v", err)
	}
	want := "// Module: main.obj\n" +
		"\n" +
		"typedef uint32_t DWORD;\n" +
		"const int32_t kAnswer = 42;\n" +
		"int32_t g_counter;\n" +
		"static char* s_name;\n" +
		"int32_t main(int32_t, char*);\n"
	if got != want {
		t.Errorf("Module(0) got\n%s\nwant\n%s", got, want)
	}

	hex, err := Module(f, 0, Policy{IntegersAsHex: true, PrimitiveFlavor: Microsoft})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hex, "const INT kAnswer = 0x2a;\n") {
		t.Errorf("Module(0) hex output missing constant:\n%s", hex)
	}

	if _, err := Module(f, 3, Policy{}); !errors.Is(err, pdb.ErrModuleNotFound) {
		t.Errorf("Module(3) error = %v, want %v", err, pdb.ErrModuleNotFound)
	}
}

func TestXrefs(t *testing.T) {
	f := loadFixture(t)
	r := New(f)

	tests := []struct {
		name string
		p    Policy
		want []string
	}{
		{"resym_test::Inner", Policy{}, []string{"resym_test::Node", "resym_test::Outer"}},
		{"std::Thing", Policy{}, []string{"resym_test::Outer"}},
		{"resym_test::CycleA", Policy{}, []string{"resym_test::CycleB"}},
		{"resym_test::StructTest", Policy{}, nil},
	}
	for _, tt := range tests {
		got, err := r.Xrefs(tt.name, tt.p)
		if err != nil {
			t.Fatalf("Xrefs(%q) error = %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Xrefs(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := r.Xrefs("resym_test::Nope", Policy{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Xrefs(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestParseFlavors(t *testing.T) {
	for _, f := range []PrimitiveFlavor{Portable, Microsoft, Raw, Msvc} {
		got, err := ParsePrimitiveFlavor(strings.ToUpper(f.String()))
		if err != nil || got != f {
			t.Errorf("ParsePrimitiveFlavor(%q) = %v, %v", f, got, err)
		}
	}
	for _, a := range []AccessFlavor{Automatic, Disabled, Always} {
		got, err := ParseAccessFlavor(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAccessFlavor(%q) = %v, %v", a, got, err)
		}
	}
	if _, err := ParsePrimitiveFlavor("ansi"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("ParsePrimitiveFlavor(ansi) error = %v", err)
	}
	if _, err := ParseAccessFlavor("sometimes"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("ParseAccessFlavor(sometimes) error = %v", err)
	}
	if s := PrimitiveFlavor(7).String(); s != "PrimitiveFlavor(7)" {
		t.Errorf("String() = %q", s)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		base, d, want string
	}{
		{"int", "", "int"},
		{"int", "x", "int x"},
		{"char", "*", "char*"},
		{"char", "*p", "char* p"},
		{"char", "**p", "char** p"},
		{"int", "&r", "int& r"},
		{"int", "(*fn)(char)", "int (*fn)(char)"},
		{"int", "a[4]", "int a[4]"},
		{"char", "*const p", "char* const p"},
		{"int", "&&r", "int&& r"},
	}
	for _, tt := range tests {
		if got := join(tt.base, tt.d); got != tt.want {
			t.Errorf("join(%q, %q) = %q, want %q", tt.base, tt.d, got, tt.want)
		}
	}
}

func TestShortName(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"Foo", "Foo"},
		{"ns::Foo", "Foo"},
		{"a::b::Foo", "Foo"},
		{"ns::Foo<std::pair<int,int>>", "Foo<std::pair<int,int>>"},
		{"Outer<ns::X>::Inner", "Inner"},
	}
	for _, tt := range tests {
		if got := shortName(tt.name); got != tt.want {
			t.Errorf("shortName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	if !isStructor("ns::Foo", "Foo") || !isStructor("ns::Foo", "~Foo") || isStructor("ns::Foo", "Bar") {
		t.Error("isStructor misclassifies")
	}
}

func TestIsPointerDeclarator(t *testing.T) {
	tests := []struct {
		d    string
		want bool
	}{
		{"*p", true},
		{"&r", true},
		{"C::*m", true},
		{"f()", false},
		{"a[2]", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPointerDeclarator(tt.d); got != tt.want {
			t.Errorf("isPointerDeclarator(%q) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

// items builds placed members from (start, size) pairs in bytes.
func items(spans ...[2]uint64) []item {
	out := make([]item, len(spans))
	for i, s := range spans {
		out[i] = item{
			member: pdb.Member{Name: string(rune('a' + i))},
			field:  pdb.FieldLayout{Offset: s[0], Size: s[1], Unit: -1},
		}
	}
	return out
}

// shape renders nodes as s(...) and u(...) around member names.
func shape(nodes []node) string {
	var b strings.Builder
	for i := range nodes {
		n := &nodes[i]
		switch {
		case n.item != nil:
			b.WriteString(n.item.member.Name)
		case n.union:
			b.WriteString("u(" + shape(n.nodes) + ")")
		default:
			b.WriteString("s(" + shape(n.nodes) + ")")
		}
	}
	return b.String()
}

func TestStructNodes(t *testing.T) {
	tests := []struct {
		name  string
		spans [][2]uint64
		want  string
	}{
		{"sequential", [][2]uint64{{0, 4}, {4, 4}, {8, 8}}, "abc"},
		{"union", [][2]uint64{{0, 4}, {0, 4}, {4, 4}}, "u(ab)c"},
		{"struct in union", [][2]uint64{{0, 4}, {4, 4}, {0, 8}, {8, 4}}, "u(s(ab)c)d"},
		{"union after member", [][2]uint64{{0, 4}, {4, 4}, {4, 2}}, "au(bc)"},
		{"three alternatives", [][2]uint64{{0, 8}, {0, 4}, {0, 2}}, "u(abc)"},
		{"struct between alternatives", [][2]uint64{{0, 4}, {0, 4}, {4, 4}, {0, 8}}, "u(as(bc)d)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shape(structNodes(items(tt.spans...))); got != tt.want {
				t.Errorf("structNodes() = %s, want %s", got, tt.want)
			}
		})
	}
}
