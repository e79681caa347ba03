package facematch

import (
	"math"
	"reflect"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

func face(e ...float32) FaceRecord {
	return FaceRecord{Embedding: vectors.Embedding(e), BBox: BBox{0, 0, 10, 10}}
}

func TestMatch(t *testing.T) {
	refs := []ReferenceIdentity{
		{Name: "alice", Embedding: vectors.Embedding{1, 0, 0}},
		{Name: "bob", Embedding: vectors.Embedding{0, 1, 0}},
	}

	tests := []struct {
		name      string
		probes    []FaceRecord
		refs      []ReferenceIdentity
		threshold float64
		expected  []string
	}{
		{
			name:      "exact match",
			probes:    []FaceRecord{face(2, 0, 0)},
			refs:      refs,
			threshold: 0.6,
			expected:  []string{"alice"},
		},
		{
			name:      "nearest of two",
			probes:    []FaceRecord{face(0.1, 0.9, 0)},
			refs:      refs,
			threshold: 0.6,
			expected:  []string{"bob"},
		},
		{
			name:      "unknown face rejected",
			probes:    []FaceRecord{face(0, 0, 1)},
			refs:      refs,
			threshold: 0.6,
			expected:  []string{},
		},
		{
			name:      "distance equal to threshold rejected",
			probes:    []FaceRecord{face(0, 0, 1)},
			refs:      refs,
			threshold: 1.0,
			expected:  []string{},
		},
		{
			name:      "tie keeps first reference",
			probes:    []FaceRecord{face(1, 1, 0)},
			refs:      refs,
			threshold: 0.6,
			expected:  []string{"alice"},
		},
		{
			name:      "multiple probes keep order",
			probes:    []FaceRecord{face(0, 1, 0), face(0, 0, 1), face(1, 0, 0)},
			refs:      refs,
			threshold: 0.6,
			expected:  []string{"bob", "alice"},
		},
		{
			name:      "no references",
			probes:    []FaceRecord{face(1, 0, 0)},
			refs:      nil,
			threshold: 0.6,
			expected:  []string{},
		},
		{
			name:      "no probes",
			probes:    nil,
			refs:      refs,
			threshold: 0.6,
			expected:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Match(tt.probes, tt.refs, tt.threshold)
			if results == nil {
				t.Fatal("expected non-nil result slice")
			}
			names := make([]string, len(results))
			for i, r := range results {
				names[i] = r.PersonName
				if r.Distance >= tt.threshold {
					t.Errorf("accepted match with distance %v >= threshold %v", r.Distance, tt.threshold)
				}
			}
			if !reflect.DeepEqual(names, tt.expected) {
				t.Errorf("Match names = %v, want %v", names, tt.expected)
			}
		})
	}
}

func TestMatch_DistanceAndBBox(t *testing.T) {
	refs := []ReferenceIdentity{{Name: "alice", Embedding: vectors.Embedding{1, 0}}}
	probe := FaceRecord{Embedding: vectors.Embedding{1, 1}, BBox: BBox{5, 6, 7, 8}}

	results := Match([]FaceRecord{probe}, refs, 0.5)
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}

	want := 1 - 1/math.Sqrt2
	if math.Abs(results[0].Distance-want) > 1e-6 {
		t.Errorf("distance = %v, want %v", results[0].Distance, want)
	}
	if results[0].BBox != probe.BBox {
		t.Errorf("bbox = %v, want %v", results[0].BBox, probe.BBox)
	}
}

func TestMatch_ScaleInvariant(t *testing.T) {
	refs := []ReferenceIdentity{{Name: "alice", Embedding: vectors.Embedding{0.3, 0.4, 0.5}}}

	a := Match([]FaceRecord{face(0.2, 0.5, 0.4)}, refs, 0.6)
	b := Match([]FaceRecord{face(20, 50, 40)}, refs, 0.6)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one match each, got %d and %d", len(a), len(b))
	}
	if math.Abs(a[0].Distance-b[0].Distance) > 1e-6 {
		t.Errorf("scaling changed distance: %v vs %v", a[0].Distance, b[0].Distance)
	}
}

func TestMatcher_TaggedImages(t *testing.T) {
	m := NewMatcher([]ReferenceIdentity{
		{Name: "alice", Embedding: vectors.Embedding{1, 0}},
		{Name: "bob", Embedding: vectors.Embedding{0, 1}},
	}, 0.6)

	m.MatchImage("a.jpg", []FaceRecord{face(1, 0)})
	m.MatchImage("b.jpg", []FaceRecord{face(0, 1), face(1, 0.05)})
	m.MatchImage("c.jpg", []FaceRecord{face(1, 0), face(1, 0)})
	m.MatchImage("d.jpg", nil)

	expected := map[string][]string{
		"alice": {"a.jpg", "b.jpg", "c.jpg", "c.jpg"},
		"bob":   {"b.jpg"},
	}
	tagged := m.TaggedImages()
	if !reflect.DeepEqual(tagged, expected) {
		t.Errorf("TaggedImages = %v, want %v", tagged, expected)
	}

	// The returned map is a copy.
	tagged["alice"][0] = "changed"
	if m.TaggedImages()["alice"][0] != "a.jpg" {
		t.Error("TaggedImages exposed internal state")
	}

	if !reflect.DeepEqual(m.Names(), []string{"alice", "bob"}) {
		t.Errorf("Names = %v", m.Names())
	}
}

func TestBuildReferences(t *testing.T) {
	tests := []struct {
		name     string
		person   string
		faces    int
		expected []string
	}{
		{"single face", "alice", 1, []string{"alice"}},
		{"multiple faces", "alice", 3, []string{"alice_0", "alice_1", "alice_2"}},
		{"empty name", "", 1, []string{"unknown"}},
		{"no faces", "alice", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := make([]FaceRecord, tt.faces)
			for i := range faces {
				faces[i] = face(1, float32(i))
			}
			refs := BuildReferences(tt.person, faces)
			names := make([]string, len(refs))
			for i, r := range refs {
				names[i] = r.Name
			}
			if !reflect.DeepEqual(names, tt.expected) {
				t.Errorf("BuildReferences names = %v, want %v", names, tt.expected)
			}
		})
	}
}
