package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/stemma/pkg/family"
)

func TestDocumentShape(t *testing.T) {
	h := family.NewHousehold("h1", family.DefaultRoot)
	doc := document{
		Tree:       family.Tree{ID: "t1", Name: "Smith", Nodes: []family.Household{h}, Edges: []family.Edge{}},
		Households: 1,
		Members:    1,
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["_id"] != "t1" || m["name"] != "Smith" || m["households"] != int32(1) {
		t.Errorf("document = %v", m)
	}
	if _, ok := m["tree"]; ok {
		t.Error("tree not inlined")
	}

	var back document
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != "t1" || len(back.Nodes) != 1 || back.Nodes[0].Primary.Name != "Root Member" {
		t.Errorf("round trip = %+v", back)
	}
}
