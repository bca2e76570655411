package architecture

import (
	"reflect"
	"testing"
	"time"
)

func component(conf float64, files ...string) *Component {
	return &Component{
		ID:     ComponentID(TypeDatabase, "postgres"),
		Name:   "postgres",
		Type:   TypeDatabase,
		Source: Source{Method: "test", Files: files, Confidence: conf},
		Status: StatusActive,
	}
}

func TestMergeComponent_MaxConfidenceEitherOrder(t *testing.T) {
	low := component(0.6, "a.go")
	high := component(0.9, "b.go")
	high.Source.Method = "import"

	for _, order := range [][2]*Component{{low, high}, {high, low}} {
		m := MergeComponent(order[0], order[1])
		if m.Source.Confidence != 0.9 {
			t.Errorf("confidence = %v, want 0.9", m.Source.Confidence)
		}
		if m.Source.Method != "import" {
			t.Errorf("method = %q, want the stronger record's", m.Source.Method)
		}
		if !reflect.DeepEqual(m.Source.Files, []string{"a.go", "b.go"}) {
			t.Errorf("files = %v", m.Source.Files)
		}
	}
}

func TestMergeComponent_KeepsEarliestCreatedAt(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	a := component(0.8, "a.go")
	a.CreatedAt, a.UpdatedAt = t0, t0
	b := component(0.8, "a.go")
	b.CreatedAt, b.UpdatedAt = t1, t1

	m := MergeComponent(b, a)
	if !m.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, t0)
	}
	if !m.UpdatedAt.Equal(t1) {
		t.Errorf("UpdatedAt = %v, want %v", m.UpdatedAt, t1)
	}
}

func TestMergeComponent_StatusAndCritical(t *testing.T) {
	a := component(0.8)
	b := component(0.7)
	b.Status = StatusDeprecated
	b.Role.Critical = true
	b.Role.Layer = LayerDatabase

	m := MergeComponent(a, b)
	if m.Status != StatusDeprecated {
		t.Errorf("status = %s, want deprecated", m.Status)
	}
	if !m.Role.Critical {
		t.Error("expected critical flag to be OR-ed")
	}
	if m.Role.Layer != LayerDatabase {
		t.Errorf("layer = %s, want fill-in from incoming", m.Role.Layer)
	}
}

func TestMergeComponent_Nil(t *testing.T) {
	c := component(0.7)
	if MergeComponent(nil, c) != c || MergeComponent(c, nil) != c {
		t.Error("expected nil side to be ignored")
	}
}

func connection(conf float64, line int, snippet string) *Connection {
	return &Connection{
		ID:            "conn_x",
		From:          Endpoint{ComponentID: FileRef("a.go")},
		To:            Endpoint{ComponentID: ComponentID(TypeDatabase, "postgres")},
		Type:          ConnStores,
		CodeReference: CodeReference{File: "a.go", LineStart: line, LineEnd: line, Snippet: snippet},
		Confidence:    conf,
	}
}

func TestMergeConnection_OrderIndependent(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Connection
		wantConf float64
		wantLine int
	}{
		{"higher confidence wins", connection(0.6, 3, "x"), connection(0.9, 10, "y"), 0.9, 10},
		{"earlier line breaks tie", connection(0.8, 12, "x"), connection(0.8, 4, "y"), 0.8, 4},
		{"snippet breaks full tie", connection(0.8, 4, "b"), connection(0.8, 4, "a"), 0.8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := MergeConnection(tt.a, tt.b)
			ba := MergeConnection(tt.b, tt.a)
			if !SameConnection(ab, ba) {
				t.Fatalf("merge depends on order: %+v vs %+v", ab.CodeReference, ba.CodeReference)
			}
			if ab.Confidence != tt.wantConf || ab.CodeReference.LineStart != tt.wantLine {
				t.Errorf("got conf=%v line=%d", ab.Confidence, ab.CodeReference.LineStart)
			}
		})
	}
}

func TestMergeConnection_FillsSemantic(t *testing.T) {
	a := connection(0.9, 1, "x")
	b := connection(0.5, 2, "y")
	b.Semantic = &Semantic{Classification: ClassTest}
	m := MergeConnection(a, b)
	if m.ClassificationOf() != ClassTest {
		t.Errorf("classification = %s, want test", m.ClassificationOf())
	}
}

func TestSameComponent_IgnoresUpdatedAt(t *testing.T) {
	a := component(0.8, "a.go")
	b := component(0.8, "a.go")
	b.UpdatedAt = time.Now()
	if !SameComponent(a, b) {
		t.Error("expected UpdatedAt to be ignored")
	}
	b.Source.Confidence = 0.9
	if SameComponent(a, b) {
		t.Error("expected confidence change to be detected")
	}
}
