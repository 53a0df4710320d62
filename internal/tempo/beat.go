package tempo

// Role is the accent tier of a tick.
type Role int

const (
	RoleMeasureDownbeat Role = iota
	RoleBeatDownbeat
	RoleSubdivision
)

func (r Role) String() string {
	switch r {
	case RoleMeasureDownbeat:
		return "measure"
	case RoleBeatDownbeat:
		return "beat"
	default:
		return "subdivision"
	}
}

// Classify returns the accent tier of tick beatIndex. A tick that starts
// both a measure and a beat is a RoleMeasureDownbeat.
func Classify(beatIndex int, c Config) Role {
	npb := c.Subdivision.NotesPerBeat()
	switch {
	case beatIndex%c.MeasureLength() == 0:
		return RoleMeasureDownbeat
	case beatIndex%npb == 0:
		return RoleBeatDownbeat
	default:
		return RoleSubdivision
	}
}

// Advance returns the tick index after beatIndex, wrapping to zero at the
// measure boundary of c.
func Advance(beatIndex int, c Config) int {
	beatIndex++
	if beatIndex >= c.MeasureLength() {
		return 0
	}
	return beatIndex
}
