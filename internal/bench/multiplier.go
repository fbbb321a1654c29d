package bench

// Multiplier scales a benchmark's planned iterations. Cheap operations run
// more iterations per pass and expensive ones fewer, keeping pass lengths
// comparable.
type Multiplier struct {
	Name string
	Num  int
	Den  int
}

var (
	// Unscaled keeps the planned iterations.
	Unscaled = Multiplier{Name: "x1", Num: 1, Den: 1}
	// Times10 is used by batched status, read and write benchmarks.
	Times10 = Multiplier{Name: "x10", Num: 10, Den: 1}
	// Div10 is used by schema benchmarks.
	Div10 = Multiplier{Name: "/10", Num: 1, Den: 10}
)

// Apply scales n, never scaling a positive n below one. A non-positive n is
// returned unchanged so the run rejects it. The zero Multiplier is Unscaled.
func (m Multiplier) Apply(n int) int {
	if n <= 0 || m.Num == 0 || m.Den == 0 {
		return n
	}
	return max(n*m.Num/m.Den, 1)
}

func (m Multiplier) String() string {
	if m.Name == "" {
		return Unscaled.Name
	}
	return m.Name
}
