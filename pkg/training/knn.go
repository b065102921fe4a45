// pkg/training/knn.go
package training

import (
	"errors"
	"sort"
)

// KNNRegressor predicts coordinates as the similarity-weighted mean of the
// K most cosine-similar training vectors
type KNNRegressor struct {
	K           int
	Vectors     []SparseVector
	Latitude    []float64
	Longitude   []float64
	CentroidLat float64
	CentroidLng float64

	postings map[int32][]posting
}

type posting struct {
	doc    int32
	weight float64
}

type neighbor struct {
	doc   int32
	score float64
}

// NewKNNRegressor creates an unfitted regressor
func NewKNNRegressor(k int) *KNNRegressor {
	if k < 1 {
		k = 1
	}
	return &KNNRegressor{K: k}
}

// Fit stores the training vectors and their targets
func (m *KNNRegressor) Fit(vectors []SparseVector, lat, lng []float64) error {
	if len(vectors) == 0 {
		return errors.New("no training vectors")
	}
	if len(vectors) != len(lat) || len(vectors) != len(lng) {
		return errors.New("vectors and targets differ in length")
	}

	m.Vectors = vectors
	m.Latitude = lat
	m.Longitude = lng

	var sumLat, sumLng float64
	for i := range lat {
		sumLat += lat[i]
		sumLng += lng[i]
	}
	m.CentroidLat = sumLat / float64(len(lat))
	m.CentroidLng = sumLng / float64(len(lng))

	m.index()
	return nil
}

// index builds the inverted index from term to documents
func (m *KNNRegressor) index() {
	m.postings = make(map[int32][]posting)
	for doc, v := range m.Vectors {
		for i, term := range v.Indices {
			m.postings[term] = append(m.postings[term], posting{doc: int32(doc), weight: v.Values[i]})
		}
	}
}

// Predict returns the coordinates for a vector. A vector sharing no term
// with the training set gets the centroid of the training targets.
func (m *KNNRegressor) Predict(v SparseVector) (float64, float64) {
	if m.postings == nil {
		m.index()
	}

	scores := make(map[int32]float64)
	for i, term := range v.Indices {
		for _, p := range m.postings[term] {
			scores[p.doc] += v.Values[i] * p.weight
		}
	}
	if len(scores) == 0 {
		return m.CentroidLat, m.CentroidLng
	}

	neighbors := make([]neighbor, 0, len(scores))
	for doc, s := range scores {
		if s > 0 {
			neighbors = append(neighbors, neighbor{doc: doc, score: s})
		}
	}
	if len(neighbors) == 0 {
		return m.CentroidLat, m.CentroidLng
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].score != neighbors[j].score {
			return neighbors[i].score > neighbors[j].score
		}
		return neighbors[i].doc < neighbors[j].doc
	})
	if len(neighbors) > m.K {
		neighbors = neighbors[:m.K]
	}

	var lat, lng, total float64
	for _, n := range neighbors {
		lat += n.score * m.Latitude[n.doc]
		lng += n.score * m.Longitude[n.doc]
		total += n.score
	}
	return lat / total, lng / total
}
