package batch

import (
	"bytes"
	"encoding/json"

	"github.com/nginly/nginx-analyze-ci/pkg/sslref"
)

// DefaultMaxBytes is the default batch size limit.
const DefaultMaxBytes = 1500 * 1024

// Batch is one request's worth of trees.
type Batch struct {
	Trees    []Tree
	Files    map[string]string
	SSLFiles []sslref.Reference
	// BatchIndex and TotalBatches are only sent when a payload was split.
	BatchIndex   int
	TotalBatches int
}

type wireBatch struct {
	Trees        []Tree             `json:"trees"`
	Files        map[string]string  `json:"files"`
	SSLFiles     []sslref.Reference `json:"sslFiles"`
	BatchIndex   *int               `json:"batchIndex,omitempty"`
	TotalBatches *int               `json:"totalBatches,omitempty"`
}

func (b Batch) wire() wireBatch {
	w := wireBatch{Trees: b.Trees, Files: b.Files, SSLFiles: b.SSLFiles}
	if w.Trees == nil {
		w.Trees = []Tree{}
	}
	if w.Files == nil {
		w.Files = map[string]string{}
	}
	if w.SSLFiles == nil {
		w.SSLFiles = []sslref.Reference{}
	}
	if b.TotalBatches > 1 {
		idx, total := b.BatchIndex, b.TotalBatches
		w.BatchIndex, w.TotalBatches = &idx, &total
	}
	return w
}

// MarshalJSON encodes the batch in the analyzer's wire format.
func (b Batch) MarshalJSON() ([]byte, error) {
	return EncodeJSON(b.wire())
}

// EncodeJSON encodes v compactly without escaping &, < and >, so the
// result is byte-for-byte what a JavaScript JSON.stringify would send.
// Size estimates and request bodies both go through it.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FileSet returns the set of file paths the batch's trees cover.
func (b Batch) FileSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range b.Trees {
		for _, f := range t.AllFiles {
			set[f] = struct{}{}
		}
	}
	return set
}

// EstimateSize returns the byte length of the JSON encoding of the batch's
// trees, files and SSL references.
func EstimateSize(b Batch) int {
	w := b.wire()
	w.BatchIndex, w.TotalBatches = nil, nil

	data, err := EncodeJSON(w)
	if err != nil {
		return 0
	}
	return len(data)
}

// Pack splits p into batches of at most limit estimated bytes; limit <= 0
// selects DefaultMaxBytes.
//
// Trees are added greedily in order. When adding a tree would exceed the
// limit, the current batch is sealed and the tree starts the next one, or,
// if it exceeds the limit by itself, is emitted immediately as its own batch.
// A batch's SSL references are those declared in one of its files.
func Pack(p Payload, limit int) []Batch {
	if len(p.Trees) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	var (
		batches []Batch
		cur     []Tree
		files   = map[string]string{}
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		batches = append(batches, p.batch(cur, files))
		cur = nil
		files = map[string]string{}
	}

	for _, t := range p.Trees {
		nextTrees := append(append([]Tree(nil), cur...), t)
		nextFiles := p.withFiles(files, t)
		if EstimateSize(p.batch(nextTrees, nextFiles)) <= limit || len(cur) == 0 {
			cur, files = nextTrees, nextFiles
			continue
		}

		flush()
		single := p.batch([]Tree{t}, p.withFiles(nil, t))
		if EstimateSize(single) > limit {
			batches = append(batches, single)
			continue
		}
		cur, files = single.Trees, single.Files
	}
	flush()

	if len(batches) > 1 {
		for i := range batches {
			batches[i].BatchIndex = i
			batches[i].TotalBatches = len(batches)
		}
	}
	return batches
}

// withFiles returns a copy of base extended with the contents of t's files.
func (p Payload) withFiles(base map[string]string, t Tree) map[string]string {
	out := make(map[string]string, len(base)+len(t.AllFiles))
	for k, v := range base {
		out[k] = v
	}
	for _, f := range t.AllFiles {
		if c, ok := p.Files[f]; ok {
			out[f] = c
		}
	}
	return out
}

func (p Payload) batch(trees []Tree, files map[string]string) Batch {
	b := Batch{Trees: trees, Files: files}
	set := b.FileSet()
	b.SSLFiles = []sslref.Reference{}
	for _, ref := range p.SSLFiles {
		if _, ok := set[ref.ReferencedIn]; ok {
			b.SSLFiles = append(b.SSLFiles, ref)
		}
	}
	return b
}
