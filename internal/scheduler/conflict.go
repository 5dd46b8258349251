package scheduler

import "sort"

// SourceKind identifies where a commitment came from.
type SourceKind string

const (
	// SourceKindPersonal is a meeting the user created or was invited to.
	SourceKindPersonal SourceKind = "personal"
	// SourceKindDesired is a catalog event on the user's wishlist.
	SourceKindDesired SourceKind = "desired"
	// SourceKindTracked is a catalog event the user follows.
	SourceKindTracked SourceKind = "tracked"
	// SourceKindPurchased is a catalog event the user holds a ticket for.
	SourceKindPurchased SourceKind = "purchased"
)

// SourceKinds lists every kind in result order.
var SourceKinds = []SourceKind{
	SourceKindPersonal,
	SourceKindDesired,
	SourceKindTracked,
	SourceKindPurchased,
}

// Valid reports whether k is a known kind.
func (k SourceKind) Valid() bool {
	return k.rank() < len(SourceKinds)
}

// Label is the attribution string shown next to a commitment.
func (k SourceKind) Label() string {
	switch k {
	case SourceKindPersonal:
		return "Personal event"
	case SourceKindDesired:
		return "Added from event browser"
	case SourceKindTracked:
		return "Tracked event"
	case SourceKindPurchased:
		return "Purchased ticket"
	default:
		return ""
	}
}

func (k SourceKind) rank() int {
	for i, kind := range SourceKinds {
		if kind == k {
			return i
		}
	}
	return len(SourceKinds)
}

// Commitment is the normalised shape shared by every source.
type Commitment struct {
	ID          string
	EventID     string
	OwnerUserID string
	Title       string
	Window      TimeWindow
	SourceKind  SourceKind
	SourceLabel string
}

// CommitmentRef names a single commitment within its source.
type CommitmentRef struct {
	ID         string
	SourceKind SourceKind
}

// Matches reports whether the commitment is the one referenced.
func (r CommitmentRef) Matches(c Commitment) bool {
	return r.ID == c.ID && r.SourceKind == c.SourceKind
}

// ConflictResult is the outcome of a conflict scan.
type ConflictResult struct {
	HasConflicts bool
	Conflicts    []Commitment
}

// DetectConflicts returns the candidates overlapping window, skipping the
// excluded commitment before any overlap test. Results are ordered by source
// kind and keep discovery order within a kind.
func DetectConflicts(candidates []Commitment, window TimeWindow, exclude *CommitmentRef) ConflictResult {
	conflicts := make([]Commitment, 0)
	for _, candidate := range candidates {
		if exclude != nil && exclude.Matches(candidate) {
			continue
		}
		if !Overlaps(window, candidate.Window) {
			continue
		}
		conflicts = append(conflicts, candidate)
	}
	SortCommitments(conflicts)
	return ConflictResult{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}
}

// SortCommitments orders commitments by source kind, stable within a kind.
func SortCommitments(commitments []Commitment) {
	sort.SliceStable(commitments, func(i, j int) bool {
		return commitments[i].SourceKind.rank() < commitments[j].SourceKind.rank()
	})
}
