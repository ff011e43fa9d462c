package family

import (
	"strings"

	"github.com/matzehuels/stemma/pkg/errors"
)

// Gender of a household member. It only affects how a card is colored.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool { return g == Male || g == Female }

// Or returns g if it is valid, otherwise def.
func (g Gender) Or(def Gender) Gender {
	if g.Valid() {
		return g
	}
	return def
}

// ParseGender normalizes a user-supplied gender. Empty input yields "".
func ParseGender(s string) (Gender, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", nil
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMember, "unknown gender %q (want male or female)", s)
}

// Member is one person drawn on a household card.
type Member struct {
	Name       string `json:"label" bson:"name"`
	Nickname   string `json:"nickname,omitempty" bson:"nickname,omitempty"`
	Gender     Gender `json:"gender,omitempty" bson:"gender,omitempty"`
	Mobile     string `json:"mobile,omitempty" bson:"mobile,omitempty"`
	ChildIndex string `json:"childIndex,omitempty" bson:"childIndex,omitempty"` // display ordinal among siblings
	Photo      string `json:"photo,omitempty" bson:"photo,omitempty"`           // data URL or reference, never parsed
}

// Validate checks the member's fields. Primary members must be named.
func (m Member) Validate(primary bool) error {
	if err := errors.ValidateMemberName(m.Name, primary); err != nil {
		return err
	}
	if m.Gender != "" && !m.Gender.Valid() {
		return errors.New(errors.ErrCodeInvalidMember, "unknown gender %q", m.Gender)
	}
	return nil
}

// MemberRef selects the primary or one spouse of a household.
type MemberRef struct {
	Primary bool
	Spouse  int // index into Household.Spouses, ignored when Primary is set
}

// PrimaryRef selects a household's primary member.
func PrimaryRef() MemberRef { return MemberRef{Primary: true} }

// SpouseRef selects the i-th spouse of a household.
func SpouseRef(i int) MemberRef { return MemberRef{Spouse: i} }

// ParseMemberRef accepts "primary" or a spouse anchor such as "spouse-1".
func ParseMemberRef(s string) (MemberRef, error) {
	a := Anchor(s)
	if a == "" || a == AnchorPrimary {
		return PrimaryRef(), nil
	}
	if i, ok := a.SpouseIndex(); ok {
		return SpouseRef(i), nil
	}
	return MemberRef{}, errors.New(errors.ErrCodeInvalidAnchor, "unknown member %q (want primary or spouse-N)", s)
}

func (r MemberRef) String() string {
	if r.Primary {
		return string(AnchorPrimary)
	}
	return string(SpouseAnchor(r.Spouse))
}
