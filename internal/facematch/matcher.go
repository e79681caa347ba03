package facematch

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

// Match assigns each probe face to its nearest reference by cosine distance
// over L2-normalized embeddings. A probe is accepted only when its minimum
// distance is strictly below threshold; rejected probes produce no entry.
// On equal distances the reference that appears first wins.
func Match(probes []FaceRecord, refs []ReferenceIdentity, threshold float64) []MatchResult {
	results := []MatchResult{}
	if len(probes) == 0 || len(refs) == 0 {
		return results
	}

	normalizedRefs := make([]vectors.Embedding, len(refs))
	for i, ref := range refs {
		normalizedRefs[i] = vectors.Normalize(ref.Embedding)
	}

	for _, probe := range probes {
		p := vectors.Normalize(probe.Embedding)

		best := -1
		bestDistance := 0.0
		for i, ref := range normalizedRefs {
			d := vectors.CosineDistance(p, ref)
			if best == -1 || d < bestDistance {
				best, bestDistance = i, d
			}
		}

		if bestDistance < threshold {
			results = append(results, MatchResult{
				PersonName: refs[best].Name,
				Distance:   bestDistance,
				BBox:       probe.BBox,
			})
		}
	}

	return results
}

// Matcher holds the reference set for one batch and accumulates which images
// each person was found in. It is not safe for concurrent use.
type Matcher struct {
	refs      []ReferenceIdentity
	threshold float64
	tagged    map[string][]string
}

// NewMatcher creates a matcher over refs. The slice is copied.
func NewMatcher(refs []ReferenceIdentity, threshold float64) *Matcher {
	return &Matcher{
		refs:      slices.Clone(refs),
		threshold: threshold,
		tagged:    make(map[string][]string),
	}
}

// Len returns the number of references.
func (m *Matcher) Len() int {
	return len(m.refs)
}

// Names returns reference names in input order.
func (m *Matcher) Names() []string {
	names := make([]string, len(m.refs))
	for i, ref := range m.refs {
		names[i] = ref.Name
	}
	return names
}

// Threshold returns the distance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// MatchImage matches the probes of one image and records every accepted match
// under the matched person. An image matched twice for the same person is
// recorded twice.
func (m *Matcher) MatchImage(imageName string, probes []FaceRecord) []MatchResult {
	matches := Match(probes, m.refs, m.threshold)
	for _, match := range matches {
		m.tagged[match.PersonName] = append(m.tagged[match.PersonName], imageName)
	}
	return matches
}

// TaggedImages returns a copy of the person to image-names index.
func (m *Matcher) TaggedImages() map[string][]string {
	out := make(map[string][]string, len(m.tagged))
	for name, images := range maps.All(m.tagged) {
		out[name] = slices.Clone(images)
	}
	return out
}

// BuildReferences names the faces detected in one reference image. A single
// face keeps name; several faces get an index suffix (name_0, name_1, ...).
func BuildReferences(name string, faces []FaceRecord) []ReferenceIdentity {
	if name == "" {
		name = DefaultPersonName
	}

	refs := make([]ReferenceIdentity, 0, len(faces))
	for i, face := range faces {
		refName := name
		if len(faces) > 1 {
			refName = fmt.Sprintf("%s_%d", name, i)
		}
		refs = append(refs, ReferenceIdentity{Name: refName, Embedding: face.Embedding})
	}
	return refs
}
