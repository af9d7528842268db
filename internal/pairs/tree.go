package pairs

import "github.com/Miyazak1/linklore-sub001/internal/models"

// tree resolves effective parents and depths over one topic's documents.
type tree struct {
	byID   map[string]*models.Document
	root   *models.Document
	depths map[string]int
}

func newTree(docs []*models.Document) *tree {
	t := &tree{
		byID:   make(map[string]*models.Document, len(docs)),
		depths: make(map[string]int, len(docs)),
	}
	for _, d := range docs {
		t.byID[d.ID] = d
		if t.root == nil && d.IsRoot() {
			t.root = d
		}
	}
	return t
}

// parentOf returns the effective parent: the stored parent when it is in the topic,
// the root for extra parentless documents, and nil otherwise.
func (t *tree) parentOf(doc *models.Document) *models.Document {
	if doc.IsRoot() {
		if t.root == nil || doc.ID == t.root.ID {
			return nil
		}
		return t.root
	}
	return t.byID[*doc.ParentID]
}

// depth is the number of parent hops from the root. Extra parentless documents and
// documents whose parent is outside the topic have depth 1. Parent cycles are cut
// where they are first revisited.
func (t *tree) depth(docID string) int {
	if d, ok := t.depths[docID]; ok {
		return d
	}
	// Walk up until a known depth, the root, or a break in the chain.
	var chain []string
	onChain := make(map[string]bool)
	base := 0
	cur := docID
	for {
		if d, ok := t.depths[cur]; ok {
			base = d
			break
		}
		if onChain[cur] {
			// Cycle: cur is already on the chain; cut the edge into it.
			base = 0
			break
		}
		doc := t.byID[cur]
		if doc == nil {
			break
		}
		chain = append(chain, cur)
		onChain[cur] = true
		if t.root != nil && cur == t.root.ID {
			base = -1
			break
		}
		if doc.IsRoot() {
			// Implicit reply to the root.
			base = 0
			break
		}
		parentID := *doc.ParentID
		if _, ok := t.byID[parentID]; !ok {
			base = 0
			break
		}
		cur = parentID
	}
	// chain[len-1] is the top-most document reached; it sits at base+1.
	for i := len(chain) - 1; i >= 0; i-- {
		base++
		t.depths[chain[i]] = base
	}
	return t.depths[docID]
}
