package interp

// arithStateVars adapts *State to arith.Vars (plain string reads/writes,
// unset reads as "").
type arithStateVars struct{ s *State }

func arithVarsOf(s *State) arithStateVars { return arithStateVars{s} }

func (a arithStateVars) Get(name string) string {
	if v, ok := a.s.Get(name); ok {
		return v
	}
	if sp, ok := a.s.specials()[name]; ok {
		return sp
	}
	return ""
}

func (a arithStateVars) Set(name, value string) { a.s.Set(name, value) }
