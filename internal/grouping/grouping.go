// Package grouping clusters near-duplicate images by whole-image embedding.
//
// Grouping is a single greedy pass: each unused image becomes a seed and
// collects every later unused image whose similarity to the seed alone
// exceeds the threshold. Members are never compared with each other, so two
// images in one group may be less similar than the threshold, and the result
// depends on input order.
package grouping

import "github.com/kozaktomas/photo-analyzer/internal/vectors"

// Item is one embedded image.
type Item struct {
	Name      string
	Embedding vectors.Embedding
}

// Similarity records why an image joined a group.
type Similarity struct {
	Image1     string  `json:"image1"`
	Image2     string  `json:"image2"`
	Similarity float64 `json:"similarity"`
}

// Group is a set of at least two near-duplicate images. Images[0] is the seed.
type Group struct {
	GroupID      int          `json:"group_id"`
	Images       []string     `json:"images"`
	Similarities []Similarity `json:"similarities"`
}

// Summary totals a grouping run.
type Summary struct {
	TotalImages   int `json:"total_images"`
	GroupedImages int `json:"grouped_images"`
	TotalGroups   int `json:"total_groups"`
}

// ProgressFunc is called after each seed has been scanned. seed is the
// zero-based index of the seed; total is len(items).
type ProgressFunc func(seed, total int)

type options struct {
	progress ProgressFunc
}

// Option configures Cluster.
type Option func(*options)

// WithProgress registers a callback invoked once per seed.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Cluster partitions items into near-duplicate groups with similarity
// strictly above threshold. Images that end up alone are not reported. Group
// ids count from 0 in emission order. Items are tracked by position, so two
// items sharing a name are still distinct images.
func Cluster(items []Item, threshold float64, opts ...Option) []Group {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	groups := []Group{}
	used := make([]bool, len(items))

	for i, seed := range items {
		if used[i] {
			continue
		}

		members := []string{seed.Name}
		similarities := []Similarity{}

		for j := i + 1; j < len(items); j++ {
			if used[j] {
				continue
			}
			candidate := items[j]
			sim := vectors.CosineSimilarity(seed.Embedding, candidate.Embedding)
			if sim > threshold {
				members = append(members, candidate.Name)
				used[j] = true
				similarities = append(similarities, Similarity{
					Image1:     seed.Name,
					Image2:     candidate.Name,
					Similarity: sim,
				})
			}
		}
		used[i] = true

		if len(members) > 1 {
			groups = append(groups, Group{
				GroupID:      len(groups),
				Images:       members,
				Similarities: similarities,
			})
		}

		if o.progress != nil {
			o.progress(i, len(items))
		}
	}

	return groups
}

// Summarize counts grouped images across groups. total is the number of
// images that were embedded.
func Summarize(groups []Group, total int) Summary {
	grouped := 0
	for _, g := range groups {
		grouped += len(g.Images)
	}
	return Summary{
		TotalImages:   total,
		GroupedImages: grouped,
		TotalGroups:   len(groups),
	}
}
