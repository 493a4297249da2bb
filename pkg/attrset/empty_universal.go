package attrset

type emptySet struct{}

func (emptySet) Kind() Kind                { return KindEmpty }
func (emptySet) Contains(Atom) bool        { return false }
func (emptySet) IsEmpty() bool             { return true }
func (emptySet) IsUniversal() bool         { return false }
func (emptySet) String() string            { return "∅" }
func (emptySet) Complement() (Value, error) { return universalSet{}, nil }

func (emptySet) IsSubset(Value) (bool, error) { return true, nil }

func (emptySet) Union(other Value) (Value, error) { return other, nil }

func (emptySet) Intersection(Value) (Value, error) { return emptySet{}, nil }

func (emptySet) Difference(Value) (Value, error) { return emptySet{}, nil }

func (emptySet) Equals(other Value) (bool, error) { return other.IsEmpty(), nil }

type universalSet struct{}

func (universalSet) Kind() Kind                { return KindUniversal }
func (universalSet) Contains(Atom) bool        { return true }
func (universalSet) IsEmpty() bool             { return false }
func (universalSet) IsUniversal() bool         { return true }
func (universalSet) String() string            { return "𝒰" }
func (universalSet) Complement() (Value, error) { return emptySet{}, nil }

func (universalSet) IsSubset(other Value) (bool, error) { return other.IsUniversal(), nil }

func (universalSet) Union(Value) (Value, error) { return universalSet{}, nil }

func (universalSet) Intersection(other Value) (Value, error) { return other, nil }

func (u universalSet) Difference(other Value) (Value, error) {
	return other.Complement()
}

func (universalSet) Equals(other Value) (bool, error) { return other.IsUniversal(), nil }
