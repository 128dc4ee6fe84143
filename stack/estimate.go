package stack

// Method names a stacking estimator.
type Method string

// Supported stacking methods.
const (
	MethodLinear    Method = "linear"
	MethodPWS       Method = "pws"
	MethodRobust    Method = "robust"
	MethodNRoot     Method = "nroot"
	MethodACF       Method = "acf"
	MethodSelective Method = "selective"
	MethodAll       Method = "all"
)

// Estimate is the method-specific outcome of a stack. The concrete types
// are Linear, PhaseWeighted, Robust, NRoot, ACF, Selective and All.
type Estimate interface {
	// Method reports the estimator that produced the value.
	Method() Method
	// Trace returns the primary stacked trace.
	Trace() []float64
}

// Linear is the arithmetic mean of the rows.
type Linear struct {
	Stack []float64
}

// PhaseWeighted is a phase-weighted stack.
type PhaseWeighted struct {
	Stack []float64
}

// Robust is an iteratively reweighted stack with its final row weights.
type Robust struct {
	Stack      []float64
	Weights    []float64
	Iterations int
}

// NRoot is an n-th root stack.
type NRoot struct {
	Stack []float64
	Power float64
}

// ACF is the adaptive covariance filtered stack.
type ACF struct {
	Stack []float64
}

// Selective is the mean of the rows whose correlation with the stack
// reached the threshold. Fallback reports that no row qualified and the
// linear mean was used instead.
type Selective struct {
	Stack      []float64
	Selected   []int
	Iterations int
	Fallback   bool
}

// All carries the linear, phase-weighted and robust stacks of one batch.
type All struct {
	Linear        Linear
	PhaseWeighted PhaseWeighted
	Robust        Robust
}

func (Linear) Method() Method        { return MethodLinear }
func (PhaseWeighted) Method() Method { return MethodPWS }
func (Robust) Method() Method        { return MethodRobust }
func (NRoot) Method() Method         { return MethodNRoot }
func (ACF) Method() Method           { return MethodACF }
func (Selective) Method() Method     { return MethodSelective }
func (All) Method() Method           { return MethodAll }

func (e Linear) Trace() []float64        { return e.Stack }
func (e PhaseWeighted) Trace() []float64 { return e.Stack }
func (e Robust) Trace() []float64        { return e.Stack }
func (e NRoot) Trace() []float64         { return e.Stack }
func (e ACF) Trace() []float64           { return e.Stack }
func (e Selective) Trace() []float64     { return e.Stack }

// Trace returns the linear stack.
func (e All) Trace() []float64 { return e.Linear.Stack }
