package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
)

// TreeModel is one stored tree. Nodes and edges are kept as the JSON the
// editor exchanges; the counts are denormalized for listing.
type TreeModel struct {
	ID         string `gorm:"primaryKey"`
	Name       string `gorm:"not null;index"`
	Nodes      string `gorm:"not null"`
	Edges      string `gorm:"not null"`
	Households int    `gorm:"not null;default:0"`
	Members    int    `gorm:"not null;default:0"`
	EdgeCount  int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (TreeModel) TableName() string { return "trees" }

func toModel(t family.Tree) (TreeModel, error) {
	nodes, err := json.Marshal(t.Nodes)
	if err != nil {
		return TreeModel{}, fmt.Errorf("marshal nodes: %w", err)
	}
	edges, err := json.Marshal(t.Edges)
	if err != nil {
		return TreeModel{}, fmt.Errorf("marshal edges: %w", err)
	}
	return TreeModel{
		ID:         t.ID,
		Name:       t.Name,
		Nodes:      string(nodes),
		Edges:      string(edges),
		Households: len(t.Nodes),
		Members:    t.MemberCount(),
		EdgeCount:  len(t.Edges),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}, nil
}

func (m TreeModel) tree() (family.Tree, error) {
	t := family.Tree{
		ID:        m.ID,
		Name:      m.Name,
		Nodes:     []family.Household{},
		Edges:     []family.Edge{},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(m.Nodes), &t.Nodes); err != nil {
		return family.Tree{}, fmt.Errorf("decode nodes of tree %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.Edges), &t.Edges); err != nil {
		return family.Tree{}, fmt.Errorf("decode edges of tree %s: %w", m.ID, err)
	}
	return t, nil
}

func (m TreeModel) summary() store.Summary {
	return store.Summary{
		ID:         m.ID,
		Name:       m.Name,
		Households: m.Households,
		Members:    m.Members,
		Edges:      m.EdgeCount,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}
