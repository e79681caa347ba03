package grouping

import (
	"reflect"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

func item(name string, e ...float32) Item {
	return Item{Name: name, Embedding: vectors.Embedding(e)}
}

func groupImages(groups []Group) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.Images
	}
	return out
}

func TestCluster(t *testing.T) {
	tests := []struct {
		name      string
		items     []Item
		threshold float64
		expected  [][]string
	}{
		{
			name:      "empty input",
			items:     nil,
			threshold: 0.9,
			expected:  [][]string{},
		},
		{
			name:      "single image",
			items:     []Item{item("a", 1, 0)},
			threshold: 0.9,
			expected:  [][]string{},
		},
		{
			name: "two pairs",
			items: []Item{
				item("a", 1, 0),
				item("b", 0, 1),
				item("c", 1, 0.01),
				item("d", 0.01, 1),
			},
			threshold: 0.9,
			expected:  [][]string{{"a", "c"}, {"b", "d"}},
		},
		{
			name: "similarity equal to threshold excluded",
			items: []Item{
				item("a", 1, 0),
				item("b", 1, 0),
			},
			threshold: 1.0,
			expected:  [][]string{},
		},
		{
			name: "all dissimilar",
			items: []Item{
				item("a", 1, 0, 0),
				item("b", 0, 1, 0),
				item("c", 0, 0, 1),
			},
			threshold: 0.5,
			expected:  [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Cluster(tt.items, tt.threshold)
			if groups == nil {
				t.Fatal("expected non-nil result")
			}
			if got := groupImages(groups); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Cluster = %v, want %v", got, tt.expected)
			}
			for i, g := range groups {
				if g.GroupID != i {
					t.Errorf("group %d has id %d", i, g.GroupID)
				}
				if len(g.Images) < 2 {
					t.Errorf("group %d is a singleton", i)
				}
				if len(g.Similarities) != len(g.Images)-1 {
					t.Errorf("group %d has %d similarities for %d images", i, len(g.Similarities), len(g.Images))
				}
			}
		})
	}
}

// A is close to B and B is close to C, but A and C are not close. B joins
// A's group, and C is left alone because it is only compared with the seed.
func TestCluster_NotTransitive(t *testing.T) {
	items := []Item{
		item("a", 1, 0),
		item("b", 1, 1),
		item("c", 0, 1),
	}

	groups := Cluster(items, 0.7)
	expected := [][]string{{"a", "b"}}
	if got := groupImages(groups); !reflect.DeepEqual(got, expected) {
		t.Errorf("Cluster = %v, want %v", got, expected)
	}
}

func TestCluster_EachImageInAtMostOneGroup(t *testing.T) {
	items := []Item{
		item("a", 1, 0),
		item("b", 1, 0.05),
		item("c", 1, 0.1),
		item("d", 0, 1),
		item("e", 0.05, 1),
	}

	groups := Cluster(items, 0.95)
	seen := map[string]int{}
	for _, g := range groups {
		for _, img := range g.Images {
			seen[img]++
		}
	}
	for img, count := range seen {
		if count > 1 {
			t.Errorf("image %s appears in %d groups", img, count)
		}
	}

	expected := [][]string{{"a", "b", "c"}, {"d", "e"}}
	if got := groupImages(groups); !reflect.DeepEqual(got, expected) {
		t.Errorf("Cluster = %v, want %v", got, expected)
	}
}

func TestCluster_SimilarityRecords(t *testing.T) {
	groups := Cluster([]Item{item("a", 1, 0), item("b", 2, 0)}, 0.9)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	sim := groups[0].Similarities[0]
	if sim.Image1 != "a" || sim.Image2 != "b" {
		t.Errorf("unexpected pair %s/%s", sim.Image1, sim.Image2)
	}
	if sim.Similarity <= 0.9 || sim.Similarity > 1 {
		t.Errorf("unexpected similarity %v", sim.Similarity)
	}
}

func TestCluster_Progress(t *testing.T) {
	items := []Item{
		item("a", 1, 0),
		item("b", 1, 0),
		item("c", 0, 1),
	}

	var seeds []int
	Cluster(items, 0.9, WithProgress(func(seed, total int) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		seeds = append(seeds, seed)
	}))

	// b is absorbed by a, so it is never a seed.
	if !reflect.DeepEqual(seeds, []int{0, 2}) {
		t.Errorf("progress seeds = %v, want [0 2]", seeds)
	}
}

func TestSummarize(t *testing.T) {
	groups := []Group{
		{GroupID: 0, Images: []string{"a", "b"}},
		{GroupID: 1, Images: []string{"c", "d", "e"}},
	}
	got := Summarize(groups, 7)
	want := Summary{TotalImages: 7, GroupedImages: 5, TotalGroups: 2}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
}

// Both members clear the threshold against the seed while being far apart
// from each other. They still share the seed's group.
func TestCluster_MembersComparedWithSeedOnly(t *testing.T) {
	items := []Item{
		item("1", 1, 0),
		item("2", 0.766, 0.643),
		item("3", 0.766, -0.643),
	}
	if sim := vectors.CosineSimilarity(items[1].Embedding, items[2].Embedding); sim >= 0.7 {
		t.Fatalf("fixture broken: sim(2,3) = %v", sim)
	}

	groups := Cluster(items, 0.7)
	expected := [][]string{{"1", "2", "3"}}
	if got := groupImages(groups); !reflect.DeepEqual(got, expected) {
		t.Errorf("Cluster = %v, want %v", got, expected)
	}
}

func TestCluster_ThresholdOneShrinksToNothing(t *testing.T) {
	items := []Item{
		item("a", 1, 0),
		item("b", 1, 0),
		item("c", 2, 0),
		item("d", 1, 0.1),
		item("e", 0, 1),
		item("f", 0.1, 1),
	}

	grouped := func(threshold float64) int {
		return Summarize(Cluster(items, threshold), len(items)).GroupedImages
	}

	atOne := grouped(1.0)
	if atOne != 0 {
		t.Errorf("threshold 1.0 grouped %d images, want 0", atOne)
	}
	for _, threshold := range []float64{-1, 0, 0.5, 0.9, 0.99, 0.999999} {
		if g := grouped(threshold); g < atOne {
			t.Errorf("threshold %v grouped %d images, fewer than %d at 1.0", threshold, g, atOne)
		}
	}
}

func TestCluster_DuplicateNames(t *testing.T) {
	items := []Item{
		item("image_1", 1, 0),
		item("image_1", 0, 1),
		item("x", 0.01, 1),
	}

	// The second image_1 is a different picture and still seeds its own group.
	groups := Cluster(items, 0.9)
	expected := [][]string{{"image_1", "x"}}
	if got := groupImages(groups); !reflect.DeepEqual(got, expected) {
		t.Errorf("Cluster = %v, want %v", got, expected)
	}
}
