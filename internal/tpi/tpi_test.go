package tpi_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/skdltmxn/resym-go/internal/pdbtest"
	"github.com/skdltmxn/resym-go/internal/tpi"
)

func records(t *testing.T, types *pdbtest.Types) []tpi.RawRecord {
	t.Helper()
	data := types.Stream()
	h, err := tpi.ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	recs, err := tpi.Records(h, data)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	return recs
}

func TestParseHeader(t *testing.T) {
	types := pdbtest.NewTypes()
	types.ArgList()
	types.ArgList(0x74)
	h, err := tpi.ParseHeader(types.Stream())
	if err != nil {
		t.Fatal(err)
	}
	if h.Version != tpi.VersionV80 || h.TypeIndexBegin != tpi.FirstUserTypeIndex || h.TypeCount() != 2 {
		t.Errorf("header = %+v", h)
	}

	tests := []struct {
		name    string
		version uint32
		want    error
	}{
		{"v4.1", tpi.VersionV41, tpi.ErrUnsupportedVersion},
		{"future", 20200101, tpi.ErrUnsupportedVersion},
		{"garbage", 7, tpi.ErrInvalidHeader},
	}
	for _, tt := range tests {
		types := pdbtest.NewTypes()
		types.Version = tt.version
		if _, err := tpi.ParseHeader(types.Stream()); !errors.Is(err, tt.want) {
			t.Errorf("%s: ParseHeader() error = %v, want %v", tt.name, err, tt.want)
		}
	}

	if _, err := tpi.ParseHeader(make([]byte, 10)); !errors.Is(err, tpi.ErrInvalidHeader) {
		t.Errorf("short ParseHeader() error = %v", err)
	}
}

func TestRecordsTruncated(t *testing.T) {
	types := pdbtest.NewTypes()
	types.ArgList(0x74)
	types.AppendRaw([]byte{0x40, 0x00, 0x01, 0x12, 0, 0})
	data := types.Stream()
	h, err := tpi.ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := tpi.Records(h, data)
	var fe *tpi.FrameError
	if !errors.As(err, &fe) || !errors.Is(err, tpi.ErrTruncated) {
		t.Fatalf("Records() error = %v, want a truncated *FrameError", err)
	}
	if len(recs) != 1 || fe.Index != tpi.FirstUserTypeIndex+1 {
		t.Errorf("got %d records, bad record %#x", len(recs), fe.Index)
	}
}

func TestParseClass(t *testing.T) {
	types := pdbtest.NewTypes()
	fl := types.FieldList(pdbtest.Member(tpi.MemberAccessPublic, 0x74, 0, "x"))
	types.Class(pdbtest.Class{Name: "ns::A", UniqueName: ".?AUA@ns@@", Size: 0x1234, Count: 1, FieldList: fl})
	types.Class(pdbtest.Class{Kind: tpi.LF_UNION, Name: "ns::U", Forward: true})

	recs := records(t, types)
	a, err := tpi.ParseClass(recs[1].Kind, recs[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "ns::A" || a.UniqueName != ".?AUA@ns@@" || a.Size != 0x1234 || a.FieldList != fl || a.Props.IsForwardRef() {
		t.Errorf("ParseClass() = %+v", a)
	}
	u, err := tpi.ParseClass(recs[2].Kind, recs[2].Data)
	if err != nil {
		t.Fatal(err)
	}
	if u.Kind != tpi.LF_UNION || !u.Props.IsForwardRef() || u.UniqueName != "" {
		t.Errorf("ParseClass(union) = %+v", u)
	}

	if _, err := tpi.ParseClass(recs[1].Kind, recs[1].Data[:6]); !errors.Is(err, tpi.ErrMalformed) {
		t.Errorf("ParseClass(short) error = %v", err)
	}
}

func TestParseFieldList(t *testing.T) {
	types := pdbtest.NewTypes()
	mf := types.MemberFunction(0x03, 0x1000, 0, 0)
	list := types.MethodList(
		tpi.MethodListEntry{Attrs: pdbtest.Attrs(tpi.MemberAccessPublic, tpi.MethodKindVanilla), Type: mf},
		tpi.MethodListEntry{Attrs: pdbtest.Attrs(tpi.MemberAccessPublic, tpi.MethodKindIntroVirtual), Type: mf, VFTableOffset: 8},
	)
	more := types.FieldList(pdbtest.Enumerate("Z", 3))
	types.FieldList(
		pdbtest.Base(tpi.MemberAccessPublic, 0x1000, 0),
		pdbtest.Member(tpi.MemberAccessPrivate, 0x74, 8, "a"),
		pdbtest.StaticMember(tpi.MemberAccessPublic, 0x74, "s"),
		pdbtest.OneMethod(pdbtest.Attrs(tpi.MemberAccessPublic, tpi.MethodKindIntroVirtual), mf, 16, "f"),
		pdbtest.Method(2, list, "g"),
		pdbtest.Enumerate("N", -5),
		pdbtest.Continue(more),
	)

	recs := records(t, types)
	ml, err := tpi.ParseMethodList(recs[list-tpi.FirstUserTypeIndex].Data)
	if err != nil {
		t.Fatal(err)
	}
	if len(ml) != 2 || ml[1].VFTableOffset != 8 {
		t.Errorf("ParseMethodList() = %+v", ml)
	}

	fl, err := tpi.ParseFieldList(recs[len(recs)-1].Data)
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.Bases) != 1 || fl.Bases[0].Type != 0x1000 {
		t.Errorf("Bases = %+v", fl.Bases)
	}
	if len(fl.Members) != 2 || fl.Members[0].Offset != 8 || fl.Members[0].Attrs.Access() != tpi.MemberAccessPrivate || !fl.Members[1].IsStatic {
		t.Errorf("Members = %+v", fl.Members)
	}
	if len(fl.Methods) != 1 || fl.Methods[0].VFTableOffset != 16 || fl.Methods[0].Name != "f" {
		t.Errorf("Methods = %+v", fl.Methods)
	}
	if len(fl.MethodGroups) != 1 || fl.MethodGroups[0].Position != 1 || fl.MethodGroups[0].MethodList != list {
		t.Errorf("MethodGroups = %+v", fl.MethodGroups)
	}
	if len(fl.Enumerates) != 1 || fl.Enumerates[0].Value.Decimal() != "-5" {
		t.Errorf("Enumerates = %+v", fl.Enumerates)
	}
	if fl.Continuation != more {
		t.Errorf("Continuation = %#x, want %#x", fl.Continuation, more)
	}
}

func TestParseFieldListUnknownKind(t *testing.T) {
	data := binary.LittleEndian.AppendUint16(nil, 0x1234)
	data = append(data, 0, 0, 0, 0)
	fl, err := tpi.ParseFieldList(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.Unknown) != 1 || fl.Unknown[0] != 0x1234 {
		t.Errorf("Unknown = %v", fl.Unknown)
	}
}

func TestParsePointer(t *testing.T) {
	types := pdbtest.NewTypes()
	types.PointerEx(0x1000, pdbtest.PointerAttrs(8, tpi.PointerModePointerToDataMember, true), 0x1001)
	types.Pointer(0x74)

	recs := records(t, types)
	mp, err := tpi.ParsePointer(recs[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if !mp.Attrs.IsMemberPtr() || !mp.Attrs.IsConst() || mp.ContainingClass != 0x1001 || mp.Attrs.Size() != 8 {
		t.Errorf("ParsePointer(member) = %+v", mp)
	}
	p, err := tpi.ParsePointer(recs[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	if p.Referent != 0x74 || p.Attrs.Mode() != tpi.PointerModePointer || p.ContainingClass != 0 {
		t.Errorf("ParsePointer() = %+v", p)
	}
}

func TestSimpleTypeIndex(t *testing.T) {
	ti := tpi.TypeIndex(0x0674)
	if !ti.IsSimpleType() || ti.SimpleKind() != tpi.SimpleTypeInt32 || ti.SimpleMode().PointerSize() != 8 {
		t.Errorf("0x0674 = kind %#x mode %d", ti.SimpleKind(), ti.SimpleMode())
	}
	if tpi.TypeIndex(0x1000).IsSimpleType() {
		t.Error("0x1000 reported as simple")
	}
}
