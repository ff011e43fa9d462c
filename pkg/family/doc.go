// Package family defines the family-tree data model: households, the
// parent-to-child edges between them, and named trees.
//
// # Households
//
// A [Household] is one node of the graph: a primary person plus zero or
// more spouses. With at most one spouse the household is drawn as a single
// card ([ShapeUnified]); with two or more the primary sits above a row of
// spouse cards ([ShapeFan]).
//
// # Anchors
//
// Every [Edge] leaves from an [Anchor] of its source household:
// [AnchorPrimary] for the primary line, or SpouseAnchor(i) for the union
// with the i-th spouse. An edge therefore states whose child the target is:
//
//	t, id, err := family.AddChild(t, parentID, family.SpouseAnchor(1), member)
//
// # Wire Format
//
// Trees encode to the JSON format of the interactive editor. The legacy
// single-spouse field ("spouse") is normalized to a one-element spouse list
// when decoding and is never written back.
//
// # Editing
//
// The edit operations ([AddRoot], [AddSpouse], [AddChild], [Connect],
// [EditMember], [DeleteMember], [RemoveEdge]) are pure: they return a new
// Tree and leave their argument untouched.
package family
