package family

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/matzehuels/stemma/pkg/errors"
)

// =============================================================================
// Members
// =============================================================================

// memberWire has Member's fields and tags without its methods.
type memberWire Member

// UnmarshalJSON decodes a member. The editor names a primary with "label"
// and a spouse with "name"; either is accepted, as is a numeric childIndex.
func (m *Member) UnmarshalJSON(data []byte) error {
	var w struct {
		memberWire
		ChildIndex any    `json:"childIndex"`
		AltName    string `json:"name"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Member(w.memberWire)
	if m.Name == "" {
		m.Name = w.AltName
	}
	switch v := w.ChildIndex.(type) {
	case string:
		m.ChildIndex = v
	case float64:
		m.ChildIndex = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		m.ChildIndex = ""
	}
	return nil
}

// =============================================================================
// Households
// =============================================================================

type householdWire struct {
	ID             string          `json:"id"`
	Type           string          `json:"type,omitempty"`
	Data           json.RawMessage `json:"data"`
	Position       Point           `json:"position"`
	TargetPosition Side            `json:"targetPosition,omitempty"`
	SourcePosition Side            `json:"sourcePosition,omitempty"`
}

type householdDataOut struct {
	memberWire
	Spouses []spouseWire `json:"spouses"`
}

// spouseWire is a Member as the editor stores it inside a spouse list.
type spouseWire struct {
	Name       string `json:"name"`
	Nickname   string `json:"nickname,omitempty"`
	Gender     Gender `json:"gender,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	ChildIndex string `json:"childIndex,omitempty"`
	Photo      string `json:"photo,omitempty"`
}

// MarshalJSON encodes the household in the editor's node format. Spouses
// are always written as a "spouses" list; the legacy "spouse" key is never
// emitted.
func (h Household) MarshalJSON() ([]byte, error) {
	spouses := make([]spouseWire, len(h.Spouses))
	for i, m := range h.Spouses {
		spouses[i] = spouseWire(m)
	}
	data, err := json.Marshal(householdDataOut{memberWire: memberWire(h.Primary), Spouses: spouses})
	if err != nil {
		return nil, err
	}
	return json.Marshal(householdWire{
		ID:             h.ID,
		Type:           h.Type,
		Data:           data,
		Position:       h.Position,
		TargetPosition: h.TargetSide,
		SourcePosition: h.SourceSide,
	})
}

// UnmarshalJSON decodes a household from the editor's node format.
//
// A legacy single "spouse" object becomes a one-element spouse list, but
// only when "spouses" is not an array; an empty array wins. A "spouses"
// value that cannot be decoded counts as no spouses so that geometry stays
// total.
func (h *Household) UnmarshalJSON(data []byte) error {
	var w householdWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = Household{
		ID:         w.ID,
		Type:       w.Type,
		Position:   w.Position,
		TargetSide: w.TargetPosition,
		SourceSide: w.SourcePosition,
	}
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(w.Data, &h.Primary); err != nil {
		return fmt.Errorf("node %q data: %w", w.ID, err)
	}
	var rel struct {
		Spouses json.RawMessage `json:"spouses"`
		Spouse  json.RawMessage `json:"spouse"`
	}
	if err := json.Unmarshal(w.Data, &rel); err != nil {
		return fmt.Errorf("node %q data: %w", w.ID, err)
	}
	h.Spouses = decodeSpouses(rel.Spouses, rel.Spouse)
	return nil
}

func decodeSpouses(list, legacy json.RawMessage) []Member {
	if firstByte(list) == '[' {
		var out []Member
		if err := json.Unmarshal(list, &out); err != nil {
			return nil
		}
		return out
	}
	if firstByte(legacy) == '{' {
		var m Member
		if err := json.Unmarshal(legacy, &m); err == nil {
			return []Member{m}
		}
	}
	return nil
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// =============================================================================
// Tree files
// =============================================================================

// ParseTrees decodes one tree object or a list of trees (the editor's saved
// data format).
func ParseTrees(data []byte) ([]Tree, error) {
	switch firstByte(data) {
	case '[':
		var trees []Tree
		if err := json.Unmarshal(data, &trees); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode tree list")
		}
		return trees, nil
	case '{':
		var t Tree
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode tree")
		}
		return []Tree{t}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected a tree object or a list of trees")
	}
}

// ReadTreeFile reads a single tree from a JSON file. A file holding a list
// must contain exactly one tree.
func ReadTreeFile(path string) (Tree, error) {
	trees, err := ReadTreesFile(path)
	if err != nil {
		return Tree{}, err
	}
	if len(trees) != 1 {
		return Tree{}, errors.New(errors.ErrCodeInvalidInput, "%s holds %d trees, want exactly one", path, len(trees))
	}
	return trees[0], nil
}

// ReadTreesFile reads every tree from a JSON file.
func ReadTreesFile(path string) ([]Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "tree file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseTrees(data)
}

// WriteTreeFile writes a tree as indented JSON.
func WriteTreeFile(path string, t Tree) error {
	data, err := MarshalTree(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MarshalTree encodes a tree as indented JSON with a trailing newline.
func MarshalTree(t Tree) ([]byte, error) {
	if t.Nodes == nil {
		t.Nodes = []Household{}
	}
	if t.Edges == nil {
		t.Edges = []Edge{}
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	return append(data, '\n'), nil
}
