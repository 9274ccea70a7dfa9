package topic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kevinmichaelchen/star-topics/internal/logger"
	"github.com/kevinmichaelchen/star-topics/internal/models"
)

const (
	DefaultMinClusterSize      = 5
	DefaultSimilarityThreshold = 0.5
	DefaultLanguage            = "multilingual"

	maxKeywords           = 10
	nameKeywords          = 4
	maxRepresentativeDocs = 3
)

// Embedder turns documents into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Labeler names a topic from its keywords and example documents.
type Labeler interface {
	LabelTopic(ctx context.Context, keywords []string, docs []string) (string, error)
}

// Clusterer embeds documents, links every pair whose cosine similarity
// reaches the threshold, and keeps connected groups of at least
// minClusterSize documents as topics. Everything else is an outlier.
type Clusterer struct {
	embedder       Embedder
	labeler        Labeler
	minClusterSize int
	threshold      float64
	language       string
}

type Option func(*Clusterer)

func WithMinClusterSize(n int) Option {
	return func(c *Clusterer) {
		if n > 0 {
			c.minClusterSize = n
		}
	}
}

func WithSimilarityThreshold(t float64) Option {
	return func(c *Clusterer) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// WithLabeler enables naming each topic. Labeling failures are logged and
// leave the topic unnamed.
func WithLabeler(l Labeler) Option {
	return func(c *Clusterer) {
		c.labeler = l
	}
}

// WithLanguage sets the language hint reported with every run. The embedding
// model is expected to be multilingual.
func WithLanguage(lang string) Option {
	return func(c *Clusterer) {
		if lang != "" {
			c.language = lang
		}
	}
}

func NewClusterer(embedder Embedder, opts ...Option) *Clusterer {
	c := &Clusterer{
		embedder:       embedder,
		minClusterSize: DefaultMinClusterSize,
		threshold:      DefaultSimilarityThreshold,
		language:       DefaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FitTransform assigns a topic to every document. Blank documents are never
// embedded and always end up as outliers.
func (c *Clusterer) FitTransform(ctx context.Context, docs []string) (*Result, error) {
	labels := make([]int, len(docs))
	for i := range labels {
		labels[i] = OutlierTopic
	}

	var idx []int
	var texts []string
	for i, d := range docs {
		if strings.TrimSpace(d) != "" {
			idx = append(idx, i)
			texts = append(texts, d)
		}
	}
	logger.Debugf("[Topic] %d documents (%d blank), language=%s, min_cluster_size=%d",
		len(docs), len(docs)-len(texts), c.language, c.minClusterSize)

	var vecs [][]float64
	if len(texts) > 0 {
		raw, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding documents: %w", err)
		}
		if len(raw) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(raw), len(texts))
		}
		vecs = make([][]float64, len(raw))
		for i, v := range raw {
			if len(v) != len(raw[0]) {
				return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), len(raw[0]))
			}
			vecs[i] = normalize(v)
		}
	}

	groups := c.cluster(vecs)
	for topicID, members := range groups {
		for _, m := range members {
			labels[idx[m]] = topicID
		}
	}
	logger.Infof("[Topic] found %d topics in %d documents", len(groups), len(docs))

	return &Result{
		Labels: labels,
		Info:   c.describe(ctx, docs, labels, idx, vecs, len(groups)),
	}, nil
}

// cluster returns groups of vector positions ordered by descending size,
// ties broken by the earliest member.
func (c *Clusterer) cluster(vecs [][]float64) [][]int {
	n := len(vecs)
	if n < c.minClusterSize {
		return nil
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dot(vecs[i], vecs[j]) >= c.threshold {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := uf.find(i)
		byRoot[r] = append(byRoot[r], i)
	}

	var groups [][]int
	for _, members := range byRoot {
		if len(members) >= c.minClusterSize {
			groups = append(groups, members)
		}
	}
	sort.Slice(groups, func(a, b int) bool {
		if len(groups[a]) != len(groups[b]) {
			return len(groups[a]) > len(groups[b])
		}
		return groups[a][0] < groups[b][0]
	})
	return groups
}

func (c *Clusterer) describe(ctx context.Context, docs []string, labels, idx []int, vecs [][]float64, k int) []models.TopicInfo {
	pos := make(map[int]int, len(idx))
	for p, i := range idx {
		pos[i] = p
	}

	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	keywords := classKeywords(docs, members)

	var topics []int
	if len(members[OutlierTopic]) > 0 {
		topics = append(topics, OutlierTopic)
	}
	for t := 0; t < k; t++ {
		topics = append(topics, t)
	}

	info := make([]models.TopicInfo, 0, len(topics))
	for _, t := range topics {
		kw := keywords[t]
		if kw == nil {
			kw = []string{}
		}
		info = append(info, models.TopicInfo{
			Topic:              t,
			Count:              len(members[t]),
			Name:               topicName(t, kw),
			Representation:     kw,
			RepresentativeDocs: representativeDocs(docs, members[t], pos, vecs),
		})
	}

	if c.labeler != nil {
		for i := range info {
			if info[i].Topic == OutlierTopic {
				continue
			}
			label, err := c.labeler.LabelTopic(ctx, info[i].Representation, info[i].RepresentativeDocs)
			if err != nil {
				logger.Warnf("[Topic] labeling topic %d failed: %v", info[i].Topic, err)
				continue
			}
			info[i].Label = label
		}
	}
	return info
}

func topicName(t int, keywords []string) string {
	parts := []string{strconv.Itoa(t)}
	parts = append(parts, keywords[:min(nameKeywords, len(keywords))]...)
	return strings.Join(parts, "_")
}

// representativeDocs picks the embedded members closest to the topic centroid.
func representativeDocs(docs []string, members []int, pos map[int]int, vecs [][]float64) []string {
	var embedded []int
	for _, i := range members {
		if _, ok := pos[i]; ok {
			embedded = append(embedded, i)
		}
	}
	if len(embedded) == 0 {
		return []string{}
	}

	centroid := make([]float64, len(vecs[pos[embedded[0]]]))
	for _, i := range embedded {
		for d, x := range vecs[pos[i]] {
			centroid[d] += x
		}
	}
	centroid = normalize64(centroid)

	sort.SliceStable(embedded, func(a, b int) bool {
		return dot(vecs[pos[embedded[a]]], centroid) > dot(vecs[pos[embedded[b]]], centroid)
	})

	out := make([]string, 0, maxRepresentativeDocs)
	for _, i := range embedded[:min(maxRepresentativeDocs, len(embedded))] {
		out = append(out, docs[i])
	}
	return out
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return normalize64(out)
}

func normalize64(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
